// Package stats maintains a cached snapshot of platform counters. A cron job
// refreshes the snapshot in Redis so the stats endpoint never runs counting
// queries on the request path; a cache miss falls back to a live count.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const cacheKey = "smarthire:stats"

// Snapshot is the platform statistics payload served to the dashboard.
type Snapshot struct {
	TotalUsers        int       `json:"totalUsers"`
	TotalJobs         int       `json:"totalJobs"`
	TotalApplications int       `json:"totalApplications"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// Refresher wraps robfig/cron and keeps the cached snapshot fresh.
type Refresher struct {
	cron *cron.Cron
	pool *pgxpool.Pool
	rdb  *redis.Client
	spec string // cron spec, e.g. "@every 15m"
}

// NewRefresher creates a Refresher that fires every intervalMinutes minutes.
func NewRefresher(pool *pgxpool.Pool, rdb *redis.Client, intervalMinutes int) *Refresher {
	return &Refresher{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		pool: pool,
		rdb:  rdb,
		spec: fmt.Sprintf("@every %dm", intervalMinutes),
	}
}

// Start registers the job and starts the scheduler. Also refreshes once
// immediately so the cache is warm without waiting for the first tick.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() {
		r.refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	r.cron.Start()
	log.Printf("[stats] Cron started — spec: %s", r.spec)

	go r.refresh(ctx)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (r *Refresher) Stop() {
	r.cron.Stop()
	log.Println("[stats] Cron stopped")
}

func (r *Refresher) refresh(ctx context.Context) {
	snap, err := Count(ctx, r.pool)
	if err != nil {
		log.Printf("[stats] refresh count error: %v", err)
		return
	}

	body, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[stats] refresh marshal error: %v", err)
		return
	}
	if err := r.rdb.Set(ctx, cacheKey, body, 0).Err(); err != nil {
		log.Printf("[stats] refresh cache write error: %v", err)
	}
}

// Load returns the cached snapshot, counting live on a cache miss.
func Load(ctx context.Context, rdb *redis.Client, pool *pgxpool.Pool) (Snapshot, error) {
	body, err := rdb.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var snap Snapshot
		if err := json.Unmarshal(body, &snap); err == nil {
			return snap, nil
		}
	}
	return Count(ctx, pool)
}

// Count runs the counting queries directly.
func Count(ctx context.Context, pool *pgxpool.Pool) (Snapshot, error) {
	snap := Snapshot{GeneratedAt: time.Now().UTC()}
	err := pool.QueryRow(ctx,
		`SELECT
		   (SELECT count(*) FROM users),
		   (SELECT count(*) FROM jobs),
		   (SELECT count(*) FROM applications)`,
	).Scan(&snap.TotalUsers, &snap.TotalJobs, &snap.TotalApplications)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stats count: %w", err)
	}
	return snap, nil
}
