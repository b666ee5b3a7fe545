package main

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/config"
	"github.com/mmadness/spread-pool/internal/fetch"
	"github.com/mmadness/spread-pool/internal/provider"
	"github.com/mmadness/spread-pool/internal/service"
	"github.com/mmadness/spread-pool/internal/store"
)

// startScheduler runs the periodic score and spread refresh jobs. The
// returned stop function shuts the scheduler down.
func startScheduler(cfg config.Config, database *sqlx.DB) func() {
	if !cfg.EnableLiveScores && !cfg.EnableLiveSpreads {
		return func() {}
	}

	poolStore := store.NewPoolStore(database)
	gameService := service.NewGameService(database, poolStore)
	scoreUpdater := fetch.NewScoreUpdater(database, poolStore, gameService)
	spreadUpdater := fetch.NewSpreadUpdater(database, poolStore)
	espn := provider.NewESPNScores()
	odds := provider.NewOddsAPISpreads(cfg.OddsAPIKey)

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] failed to start: %v", err)
		return func() {}
	}

	if cfg.EnableLiveScores {
		_, err := sched.NewJob(
			gocron.DurationJob(cfg.RefreshInterval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				date := time.Now().UTC().Format("2006-01-02")
				entries := espn.FetchScores(ctx, date)
				if len(entries) == 0 {
					return
				}
				result, err := scoreUpdater.Apply(ctx, cfg.Year, entries)
				if err != nil {
					log.Printf("[Scheduler] score refresh failed: %v", err)
					return
				}
				if result.Updated > 0 || result.Finalized > 0 || result.Failed > 0 {
					log.Printf("[Scheduler] scores: %d updated, %d finalized, %d failed",
						result.Updated, result.Finalized, result.Failed)
				}
			}),
		)
		if err != nil {
			log.Printf("[Scheduler] failed to schedule score refresh: %v", err)
		}
	}

	if cfg.EnableLiveSpreads && cfg.OddsAPIKey != "" {
		_, err := sched.NewJob(
			gocron.DurationJob(cfg.RefreshInterval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				entries := odds.FetchSpreads(ctx)
				if len(entries) == 0 {
					return
				}
				updated, err := spreadUpdater.Apply(ctx, cfg.Year, entries)
				if err != nil {
					log.Printf("[Scheduler] spread refresh failed: %v", err)
					return
				}
				if updated > 0 {
					log.Printf("[Scheduler] spreads: %d games updated", updated)
				}
			}),
		)
		if err != nil {
			log.Printf("[Scheduler] failed to schedule spread refresh: %v", err)
		}
	}

	sched.Start()

	return func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Scheduler] shutdown: %v", err)
		}
	}
}
