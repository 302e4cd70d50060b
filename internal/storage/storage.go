// Package storage connects the archive to object storage
package storage

import (
	"context"
	"log"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/config"
	"github.com/UnendingLoop/PhotoAnimator/internal/storage/miniostorage"
)

// NewImgStorage keeps retrying until MinIO answers or ctx is cancelled
func NewImgStorage(ctx context.Context, cfg *config.AppConfig, delay time.Duration) (*miniostorage.ArchiveStorage, error) {
	for {
		log.Println("Connecting to IMG-storage...")
		client, err := miniostorage.NewArchiveStorage(ctx, cfg.MinioAddr, cfg.MinioUser, cfg.MinioPass, cfg.Bucket)
		if err == nil {
			log.Println("Successfully connected IMG-storage!")
			return client, nil
		}
		log.Printf("Failed to init connection to IMG-storage: %v\nNext retry in %v...", err, delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
