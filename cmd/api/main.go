package main

import (
	"context"
	"log"

	"github.com/algenord/portfolio-backend/config"
	"github.com/algenord/portfolio-backend/internal/auth"
	"github.com/algenord/portfolio-backend/internal/bootstrap"
	"github.com/algenord/portfolio-backend/internal/cache"
	"github.com/algenord/portfolio-backend/internal/janitor"
	"github.com/algenord/portfolio-backend/internal/projects/repository"
	"github.com/algenord/portfolio-backend/internal/storage/local"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	codec, err := auth.NewCodec(cfg.JWT.Secret)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: bootstrap.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := bootstrap.Migrate(&cfg.Database); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	redisClient, err := bootstrap.OpenRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if redisClient == nil {
		log.Println("REDIS_ADDR not set, project cache disabled")
	}

	blobs, err := local.New(cfg.Storage.UploadDir, cfg.Storage.PublicBase)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	sweeper := janitor.NewSweeper(repository.NewProjectRepository(pool), blobs)
	sweeper.Start()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "portfolio-backend",
		Version:        cfg.App.Version,
		DB:             pool,
		Codec:          codec,
		Blobs:          blobs,
		Cache:          cache.NewProjectCache(redisClient),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
