package janitor

import (
	"context"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// ImageIndex lists every blob location the database still references.
type ImageIndex interface {
	AllImageURLs(ctx context.Context) ([]string, error)
}

// BlobDir lists and deletes files under the storage root.
type BlobDir interface {
	Root() string
	List() ([]string, error)
	Delete(location string) error
}

// minOrphanAge protects uploads whose rows have not committed yet.
const minOrphanAge = time.Hour

// Sweeper deletes blobs no image row references. Compensation after a failed
// workflow is best-effort, so orphans are expected; this keeps them from
// accumulating forever.
type Sweeper struct {
	index ImageIndex
	blobs BlobDir
}

func NewSweeper(index ImageIndex, blobs BlobDir) *Sweeper {
	return &Sweeper{index: index, blobs: blobs}
}

// Start schedules the nightly sweep. Runs in cron's own goroutine.
func (s *Sweeper) Start() {
	c := cron.New(cron.WithSeconds())

	// 03:00 every night
	_, err := c.AddFunc("0 0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := s.Sweep(ctx); err != nil {
			log.Printf("[janitor] sweep failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("[janitor] failed to schedule sweep: %v", err)
		return
	}

	log.Println("[janitor] orphan sweep scheduled nightly at 03:00")
	c.Start()
}

// Sweep removes unreferenced files older than minOrphanAge and reports how
// it went. Exported so tests and an eventual admin trigger can run it
// directly.
func (s *Sweeper) Sweep(ctx context.Context) error {
	urls, err := s.index.AllImageURLs(ctx)
	if err != nil {
		return err
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		referenced[path.Base(u)] = struct{}{}
	}

	names, err := s.blobs.List()
	if err != nil {
		return err
	}

	removed := 0
	for _, name := range names {
		if _, ok := referenced[name]; ok {
			continue
		}

		info, err := os.Stat(filepath.Join(s.blobs.Root(), name))
		if err != nil || time.Since(info.ModTime()) < minOrphanAge {
			continue
		}

		if err := s.blobs.Delete(name); err != nil {
			log.Printf("[janitor] delete %s: %v", name, err)
			continue
		}
		removed++
	}

	log.Printf("[janitor] sweep done: %d orphaned blob(s) removed", removed)
	return nil
}
