// Package main runs the enrichment Temporal worker.
package main

import (
	"context"
	"database/sql"
	"log"

	_ "github.com/lib/pq"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/fedlink/enrich-core/internal/activities"
	"github.com/fedlink/enrich-core/internal/config"
	"github.com/fedlink/enrich-core/internal/connector/samgov"
	"github.com/fedlink/enrich-core/internal/connector/sbir"
	"github.com/fedlink/enrich-core/internal/connector/usaspending"
	"github.com/fedlink/enrich-core/internal/enrich"
	"github.com/fedlink/enrich-core/internal/export"
	"github.com/fedlink/enrich-core/internal/store"
	"github.com/fedlink/enrich-core/internal/vendor"
	"github.com/fedlink/enrich-core/internal/workflows"
	"github.com/fedlink/enrich-core/pkg/staging"
)

func main() {
	cfg := config.LoadWorkerConfig()

	log.Printf("Starting enrichment worker: address=%s namespace=%s queue=%s",
		cfg.TemporalHost, cfg.TemporalNamespace, cfg.TemporalTaskQueue)

	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		log.Fatalf("Failed to build worker dependencies: %v", err)
	}
	defer cleanup()

	acts, err := activities.NewActivities(*deps)
	if err != nil {
		log.Fatalf("Failed to create activities: %v", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHost,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})

	w.RegisterWorkflowWithOptions(workflows.EnrichmentRunWorkflowFunc,
		workflow.RegisterOptions{Name: workflows.EnrichmentRunWorkflow})
	w.RegisterActivity(acts.FetchSourceBatch)
	w.RegisterActivity(acts.EnrichAwardBatch)
	w.RegisterActivity(acts.PersistEnrichedBatch)
	w.RegisterActivity(acts.ExportEnrichmentRun)
	w.RegisterActivity(acts.FailEnrichmentRun)

	log.Printf("Registered 5 activities: FetchSourceBatch, EnrichAwardBatch, PersistEnrichedBatch, ExportEnrichmentRun, FailEnrichmentRun")

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

// buildDeps wires connectors, staging, and storage from environment config.
func buildDeps(cfg *config.WorkerConfig) (*activities.Deps, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	sbirConn, err := sbir.New(&sbir.Config{
		BaseURL:   cfg.SBIRBaseURL,
		FetchSize: cfg.FetchSize,
	})
	if err != nil {
		return nil, cleanup, err
	}

	spendingConn, err := usaspending.New(&usaspending.Config{
		BaseURL:   cfg.USASpendingBaseURL,
		FetchSize: cfg.FetchSize,
	})
	if err != nil {
		return nil, cleanup, err
	}

	var registration enrich.RegistrationSource
	if cfg.SAMAPIKey != "" {
		samConn, err := samgov.New(&samgov.Config{
			BaseURL: cfg.SAMBaseURL,
			APIKey:  cfg.SAMAPIKey,
		})
		if err != nil {
			return nil, cleanup, err
		}
		registration = samConn
	} else {
		log.Printf("SAM.gov API key not set, registration enrichment disabled")
	}

	stagingRegistry := staging.NewRegistry(staging.NewMemoryProvider(0))
	var exporter *export.Exporter
	if cfg.HasObjectStore() {
		minioProvider, err := staging.NewMinIOProvider(&staging.MinIOConfig{
			EndpointURL:     cfg.MinIOEndpoint,
			AccessKeyID:     cfg.MinIOAccessKey,
			SecretAccessKey: cfg.MinIOSecretKey,
			Bucket:          cfg.MinIOBucket,
			UseSSL:          cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, cleanup, err
		}
		stagingRegistry.Register(minioProvider)

		exporter, err = export.New(&export.Config{
			EndpointURL:     cfg.MinIOEndpoint,
			AccessKeyID:     cfg.MinIOAccessKey,
			SecretAccessKey: cfg.MinIOSecretKey,
			Bucket:          cfg.MinIOBucket,
			UseSSL:          cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, cleanup, err
		}
	} else {
		log.Printf("Object store not configured, large-batch staging and export disabled")
	}

	var registry vendor.Registry = vendor.NewMemoryRegistry()
	var st *store.Store
	if cfg.DatabaseURL != "" {
		if err := store.Migrate(cfg.DatabaseURL, ""); err != nil {
			return nil, cleanup, err
		}

		st, err = store.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, st.Close)

		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, func() { db.Close() })

		pgRegistry, err := vendor.NewPostgresRegistry(db)
		if err != nil {
			return nil, cleanup, err
		}
		registry = pgRegistry
	} else {
		log.Printf("Database not configured, using in-memory vendor registry")
	}

	return &activities.Deps{
		SBIR:              sbirConn,
		Matcher:           vendor.NewDefaultMatcher(registry),
		Spending:          spendingConn,
		Registration:      registration,
		Staging:           stagingRegistry,
		Store:             st,
		Exporter:          exporter,
		SpendingThreshold: cfg.SpendingThreshold,
	}, cleanup, nil
}
