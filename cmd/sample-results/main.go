package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/podium/internal/sampledata"
	"github.com/okian/podium/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers     = 64
	defaultTournaments = 12
	defaultDrawSize    = 16
	defaultTopN        = 50
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 5 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "", "Base URL of a running service; empty only writes files")
		outDir      = flag.String("out", "sample", "Directory for results.yaml and ratings.yaml")
		players     = flag.Int("players", defaultPlayers, "Size of the player pool")
		tournaments = flag.Int("tournaments", defaultTournaments, "Number of tournaments in the season")
		drawSize    = flag.Int("draw", defaultDrawSize, "Singles draw size (rounded down to a power of two)")
		seed        = flag.Uint64("seed", 1, "Random seed")
		scaleName   = flag.String("scale", "U18", "Ranking scale name for generated ratings")
		topN        = flag.Int("top", defaultTopN, "Number of leaderboard entries to verify")
		workers     = flag.Int("workers", runtime.NumCPU(), "Concurrent rank lookups")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFormat   = flag.String("log-format", logger.FormatText, "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	_, err := sampledata.Run(ctx, sampledata.Config{
		Seed:        *seed,
		Players:     *players,
		Tournaments: *tournaments,
		DrawSize:    *drawSize,
		ScaleName:   *scaleName,
		OutDir:      *outDir,
		BaseURL:     *baseURL,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
	})
	if err != nil {
		logger.Get().Error(ctx, "sample run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
