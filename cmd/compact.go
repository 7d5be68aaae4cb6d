package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/timelock/internal/storage"
)

// Compact rewrites the database to reclaim unused space
func Compact() {
	cfg := LoadConfig()

	info, err := os.Stat(cfg.Database)
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	db, err := storage.Open(cfg.Database)
	if err != nil {
		HandleError(err)
	}
	if err := db.Compact(); err != nil {
		db.Close()
		HandleError(err)
	}
	if err := db.Close(); err != nil {
		HandleError(err)
	}

	info, err = os.Stat(cfg.Database)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(info.Size()))
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
