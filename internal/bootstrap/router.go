package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/algenord/portfolio-backend/internal/api/http"
	"github.com/algenord/portfolio-backend/internal/api/http/middleware"
	"github.com/algenord/portfolio-backend/internal/auth"
	authhttp "github.com/algenord/portfolio-backend/internal/auth/http"
	"github.com/algenord/portfolio-backend/internal/cache"
	projecthttp "github.com/algenord/portfolio-backend/internal/projects/http"
	"github.com/algenord/portfolio-backend/internal/projects/repository"
	"github.com/algenord/portfolio-backend/internal/projects/service"
	"github.com/algenord/portfolio-backend/internal/storage/local"
	"github.com/algenord/portfolio-backend/internal/users"
	usershttp "github.com/algenord/portfolio-backend/internal/users/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	DB             *pgxpool.Pool
	Codec          *auth.Codec
	Blobs          *local.Store
	Cache          *cache.ProjectCache
	AllowedOrigins []string
}

func SetGinMode(env string) {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(auth.Gate(dep.Codec, auth.DefaultPolicy()))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB)
	healthHandler.RegisterRoutes(r)

	// stored blobs are public reads
	r.Static("/uploads", dep.Blobs.Root())

	userRepo := users.NewRepo(dep.DB)
	authhttp.Register(r, dep.Codec, userRepo)

	projectRepo := repository.NewProjectRepository(dep.DB)
	projectSvc := service.NewProjectService(projectRepo, projectRepo, dep.Blobs)

	api := r.Group("/api")
	projecthttp.Register(api.Group("/projects"), projectSvc, dep.Blobs, dep.Cache)
	usershttp.Register(api.Group("/users"), userRepo)

	return r
}
