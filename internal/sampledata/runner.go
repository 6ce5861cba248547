package sampledata

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/podium/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Config drives a sample run.
type Config struct {
	Seed        uint64
	Players     int
	Tournaments int
	DrawSize    int
	ScaleName   string
	OutDir      string
	// BaseURL, when set, publishes the generated results to a running service
	// and verifies what it serves back.
	BaseURL string
	TopN    int
	Workers int
	Timeout time.Duration
}

// Stats summarizes a run.
type Stats struct {
	Results         int
	Ratings         int
	RunID           string
	Ranked          int
	LeaderboardSize int
	RanksChecked    int
	Duration        time.Duration
}

// Run generates a season, writes it to disk and optionally round-trips it
// through a running service.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	start := time.Now()
	log := logger.Named("sample-results")

	ds := NewGenerator(
		WithSeed(cfg.Seed),
		WithPlayers(cfg.Players),
		WithTournaments(cfg.Tournaments),
		WithDrawSize(cfg.DrawSize),
		WithScaleName(cfg.ScaleName),
	).Generate()
	stats := Stats{Results: len(ds.Results), Ratings: len(ds.Ratings)}

	if cfg.OutDir != "" {
		resultsPath, ratingsPath, err := WriteFiles(cfg.OutDir, ds)
		if err != nil {
			return stats, err
		}
		log.Info(ctx, "sample files written",
			logger.String("results", resultsPath),
			logger.String("ratings", ratingsPath),
			logger.Int("resultCount", stats.Results))
	}

	if cfg.BaseURL != "" {
		if err := roundTrip(ctx, cfg, ds, &stats); err != nil {
			return stats, err
		}
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "sample run finished",
		logger.Int("results", stats.Results),
		logger.Int("ratings", stats.Ratings),
		logger.String("runId", stats.RunID),
		logger.Int("leaderboard", stats.LeaderboardSize),
		logger.Int("ranksChecked", stats.RanksChecked),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

func roundTrip(ctx context.Context, cfg Config, ds Dataset, stats *Stats) error {
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	published, err := client.PublishStandings(ctx, ds.Results, time.Time{})
	if err != nil {
		return fmt.Errorf("publish standings: %w", err)
	}
	stats.RunID = published.RunID
	stats.Ranked = published.Participants

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}
	stats.LeaderboardSize = len(board.Entries)
	if board.RunID != published.RunID {
		return fmt.Errorf("leaderboard run %s, published run %s", board.RunID, published.RunID)
	}
	if err := VerifyLeaderboard(board.Entries); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i := range board.Entries {
		want := board.Entries[i]
		g.Go(func() error {
			got, err := client.Rank(gctx, want.PersonID)
			if err != nil {
				return fmt.Errorf("rank %s: %w", want.PersonID, err)
			}
			if got.Rank != want.Rank || got.TotalPoints != want.TotalPoints {
				return fmt.Errorf("rank %s: got rank %d (%.3f), leaderboard has %d (%.3f)",
					want.PersonID, got.Rank, got.TotalPoints, want.Rank, want.TotalPoints)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	stats.RanksChecked = len(board.Entries)
	return nil
}
