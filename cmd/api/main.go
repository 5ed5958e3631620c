package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/rent-ledger/internal/api/handlers"
	"github.com/dvloznov/rent-ledger/internal/api/middleware"
	"github.com/dvloznov/rent-ledger/internal/app"
	"github.com/dvloznov/rent-ledger/internal/config"
	"github.com/dvloznov/rent-ledger/internal/jobs"
	"github.com/dvloznov/rent-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/rent-ledger/internal/logger"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to a YAML config file (default: ./config.yaml if present)")
		envFile    = flag.String("env-file", ".env", "Path to a .env file loaded before reading the environment")
		workers    = flag.Int("workers", 2, "Number of background job workers")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log, err := logger.NewFromConfig(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to create logger")
	}

	ctx := logger.WithContext(context.Background(), log)

	svc, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer svc.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(*workers))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewDispatcher(svc.Syncer, svc.Generator)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}
	log.Info().Int("workers", *workers).Msg("Job worker started")

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(svc.Syncer, jobQueue, log)
	rulesHandler := handlers.NewRulesHandler(svc.Corrector, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			syncHandler.Sync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/sync/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			syncHandler.EnqueueSync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/rules/corrections", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			rulesHandler.RecordCorrection(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/rules/properties", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			rulesHandler.RegenerateProperty(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	port := strconv.Itoa(cfg.HTTP.Port)
	server := &http.Server{
		Addr:        ":" + port,
		Handler:     middleware.Chain(mux, log, cfg.HTTP.AuthToken),
		ReadTimeout: 15 * time.Second,
		// A full backfill runs inside the request.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
