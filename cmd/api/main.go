// smarthire-backend
//
// Application workflow engine and skill-matching service:
//   - applyForJob(jobId, resume)            — create application + match score
//   - updateStage(applicationId, stage)     — hiring pipeline transitions
//   - myApplications / jobApplications      — candidate and recruiter views
//   - recommendations(skills?)              — top 10 jobs by match score
//
// Publishes EVENT_NEW_APPLICATION / EVENT_STAGE_CHANGED to Redis for the
// Gateway SSE forward and enqueues the same payloads on RabbitMQ for the
// mailer worker. A cron job keeps the /stats snapshot warm.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streadway/amqp"

	"github.com/Raghukul777/SmartHire/internal/config"
	"github.com/Raghukul777/SmartHire/internal/db"
	"github.com/Raghukul777/SmartHire/internal/httpapi"
	"github.com/Raghukul777/SmartHire/internal/notify"
	"github.com/Raghukul777/SmartHire/internal/resume"
	"github.com/Raghukul777/SmartHire/internal/stats"
	"github.com/Raghukul777/SmartHire/internal/store"
	"github.com/Raghukul777/SmartHire/internal/workflow"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[smarthire] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[smarthire] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[smarthire] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[smarthire] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[smarthire] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[smarthire] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[smarthire] Redis connected ✓")

	// ── RabbitMQ (optional) ─────────────────────────────────────────────────
	var amqpConn *amqp.Connection
	if cfg.AmqpURL != "" {
		amqpConn, err = amqp.Dial(cfg.AmqpURL)
		if err != nil {
			log.Fatalf("[smarthire] RabbitMQ: %v", err)
		}
		defer amqpConn.Close()
		log.Println("[smarthire] RabbitMQ connected ✓")
	} else {
		log.Println("[smarthire] AMQP_URL not set — mailer queue disabled")
	}

	// ── Resume storage (optional) ───────────────────────────────────────────
	var resumes *resume.Store
	if cfg.ResumeStorageConfigured() {
		resumes, err = resume.NewStore(ctx, cfg.R2AccountID, cfg.R2AccessKey, cfg.R2SecretKey, cfg.R2Bucket)
		if err != nil {
			log.Fatalf("[smarthire] Resume storage: %v", err)
		}
		log.Println("[smarthire] Resume storage ready ✓")
	} else {
		log.Println("[smarthire] R2 settings not set — resume uploads disabled")
	}

	// ── Stats refresher ─────────────────────────────────────────────────────
	refresher := stats.NewRefresher(pool, rdb, cfg.StatsIntervalMinutes)
	if err := refresher.Start(ctx); err != nil {
		log.Fatalf("[smarthire] Stats refresher: %v", err)
	}
	defer refresher.Stop()

	// ── Wiring ──────────────────────────────────────────────────────────────
	events := notify.NewPublisher(rdb, amqpConn)
	svc := workflow.NewService(
		store.NewApplicationStore(pool),
		store.NewJobStore(pool),
		store.NewUserStore(pool),
		events,
	)

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpapi.HealthHandler(version))

	h := httpapi.NewHandler(svc, resumes, pool, rdb)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[smarthire] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[smarthire] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[smarthire] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[smarthire] Shutdown error: %v", err)
	}
	log.Println("[smarthire] Stopped.")
}
