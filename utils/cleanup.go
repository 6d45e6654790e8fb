package utils

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"vidfetch-go/config"

	"github.com/robfig/cron/v3"
)

// StartCleanupScheduler starts the cleanup cron job
func StartCleanupScheduler() *cron.Cron {
	c := cron.New()

	c.AddFunc(config.CleanupInterval, func() {
		CleanupOldFiles()
	})

	c.Start()

	// Run cleanup on startup
	go CleanupOldFiles()

	log.Println("[Cleanup] Scheduler started")
	return c
}

// CleanupOldFiles removes saved downloads older than MaxFileAge
func CleanupOldFiles() {
	if _, err := os.Stat(config.DownloadDir); os.IsNotExist(err) {
		return
	}

	entries, err := os.ReadDir(config.DownloadDir)
	if err != nil {
		log.Printf("[Cleanup] Error reading download directory: %v\n", err)
		return
	}

	now := time.Now()
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		// Stale partial writes count as aged files too
		age := now.Sub(info.ModTime())
		if age > config.MaxFileAge || (filepath.Ext(entry.Name()) == ".tmp" && age > time.Hour) {
			path := filepath.Join(config.DownloadDir, entry.Name())
			if err := os.Remove(path); err == nil {
				deleted++
				log.Printf("[Cleanup] Deleted %s (age: %v)\n", entry.Name(), age.Round(time.Minute))
			}
		}
	}

	if deleted > 0 {
		log.Printf("[Cleanup] Finished. Deleted %d files\n", deleted)
	}
}
