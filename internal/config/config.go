// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const AppVersion = "0.4.2"

type AppConfig struct {
	Port         string
	DataFile     string
	YtdlpPath    string
	PythonPath   string
	IgScriptPath string

	// Result-count cap passed to flat-listing extractions.
	ListingLimit int

	// Batch size for per-item enrichment, which spawns one subprocess
	// per item, so it runs in small groups.
	BatchSizeHeavy int

	ToolTimeout           time.Duration
	WorkerIntervalMinutes int
	Headless              bool
}

func Load() *AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	return &AppConfig{
		Port:                  envOr("PORT", "8080"),
		DataFile:              envOr("STATSYNC_DATA_FILE", "outputs/statsync.json"),
		YtdlpPath:             envOr("YTDLP_PATH", "yt-dlp"),
		PythonPath:            envOr("PYTHON_PATH", "python3"),
		IgScriptPath:          envOr("IG_SCRAPER_PATH", "scripts/ig_scraper.py"),
		ListingLimit:          envInt("LISTING_LIMIT", 25),
		BatchSizeHeavy:        envInt("BATCH_SIZE_HEAVY", 5),
		ToolTimeout:           time.Duration(envInt("TOOL_TIMEOUT_SECONDS", 60)) * time.Second,
		WorkerIntervalMinutes: envInt("WORKER_INTERVAL_MINUTES", 0),
		Headless:              envOr("STATSYNC_HEADLESS", "true") != "false",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
