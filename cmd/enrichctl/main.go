// Package main provides the enrichctl CLI for driving enrichment runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/fedlink/enrich-core/internal/config"
	"github.com/fedlink/enrich-core/internal/connector/samgov"
	"github.com/fedlink/enrich-core/internal/connector/sbir"
	"github.com/fedlink/enrich-core/internal/connector/usaspending"
	"github.com/fedlink/enrich-core/internal/endpoint"
	"github.com/fedlink/enrich-core/internal/export"
	"github.com/fedlink/enrich-core/internal/store"
	"github.com/fedlink/enrich-core/internal/workflows"
)

var specPath string

var rootCmd = &cobra.Command{
	Use:   "enrichctl",
	Short: "enrichctl drives SBIR award enrichment runs",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an enrichment run and wait for its result",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := config.LoadRunSpec(specPath)
		if err != nil {
			return err
		}

		runID := spec.RunID
		if runID == "" {
			runID = "run-" + strings.Split(uuid.New().String(), "-")[0]
		}

		cfg := config.LoadWorkerConfig()
		c, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalHost,
			Namespace: cfg.TemporalNamespace,
		})
		if err != nil {
			return fmt.Errorf("connect temporal: %w", err)
		}
		defer c.Close()

		we, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
			ID:        "enrichment-" + runID,
			TaskQueue: cfg.TemporalTaskQueue,
		}, workflows.EnrichmentRunWorkflow, workflows.EnrichmentRunInput{
			RunID:             runID,
			Agency:            spec.Agency,
			Year:              spec.Year,
			Limit:             spec.Limit,
			SpendingThreshold: spec.SpendingThreshold,
			StagingProviderID: spec.StagingProvider,
			Persist:           spec.Persist,
			Export:            spec.Export,
			ExportFormat:      spec.ExportFormat,
		})
		if err != nil {
			return fmt.Errorf("start workflow: %w", err)
		}

		log.Printf("Started workflow %s (run %s)", we.GetID(), runID)

		var output workflows.EnrichmentRunOutput
		if err := we.Get(cmd.Context(), &output); err != nil {
			return fmt.Errorf("workflow failed: %w", err)
		}

		return printJSON(output)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a run spec file and source connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadRunSpec(specPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "spec OK: %s\n", specPath)

		targets, err := validationTargets(config.LoadWorkerConfig())
		if err != nil {
			return err
		}
		return runSourceChecks(cmd.Context(), cmd.OutOrStdout(), targets)
	},
}

// sourceCheck pairs a source name with its connector for validation.
type sourceCheck struct {
	name string
	ep   endpoint.Endpoint
}

// validationTargets builds the configured source connectors. SAM.gov is only
// checked when an API key is set, matching the worker's wiring.
func validationTargets(cfg *config.WorkerConfig) ([]sourceCheck, error) {
	sbirConn, err := sbir.New(&sbir.Config{BaseURL: cfg.SBIRBaseURL})
	if err != nil {
		return nil, err
	}
	spendingConn, err := usaspending.New(&usaspending.Config{BaseURL: cfg.USASpendingBaseURL})
	if err != nil {
		return nil, err
	}

	targets := []sourceCheck{
		{name: "sbir", ep: sbirConn},
		{name: "usaspending", ep: spendingConn},
	}
	if cfg.SAMAPIKey != "" {
		samConn, err := samgov.New(&samgov.Config{BaseURL: cfg.SAMBaseURL, APIKey: cfg.SAMAPIKey})
		if err != nil {
			return nil, err
		}
		targets = append(targets, sourceCheck{name: "samgov", ep: samConn})
	}
	return targets, nil
}

// runSourceChecks probes each source and prints a per-source status line.
func runSourceChecks(ctx context.Context, out io.Writer, targets []sourceCheck) error {
	failed := 0
	for _, tgt := range targets {
		result, err := tgt.ep.ValidateConfig(ctx, nil)
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(out, "%-12s ERROR  %v\n", tgt.name, err)
		case !result.Valid:
			failed++
			fmt.Fprintf(out, "%-12s FAILED %s\n", tgt.name, result.Message)
		default:
			fmt.Fprintf(out, "%-12s OK     %s\n", tgt.name, result.Message)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d source(s) failed validation", failed)
	}
	return nil
}

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <runID>",
	Short: "Export a persisted run to the object store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]
		cfg := config.LoadWorkerConfig()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("ENRICH_DATABASE_URL is required for export")
		}
		if !cfg.HasObjectStore() {
			return fmt.Errorf("object store is not configured")
		}

		st, err := store.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		exporter, err := export.New(&export.Config{
			EndpointURL:     cfg.MinIOEndpoint,
			AccessKeyID:     cfg.MinIOAccessKey,
			SecretAccessKey: cfg.MinIOSecretKey,
			Bucket:          cfg.MinIOBucket,
			UseSSL:          cfg.MinIOUseSSL,
		})
		if err != nil {
			return err
		}

		records, err := st.EnrichedForRun(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no enriched awards persisted for run %s", runID)
		}

		var uri string
		switch exportFormat {
		case "", "parquet":
			uri, err = exporter.ExportRun(cmd.Context(), runID, records)
		case "jsonl":
			uri, err = exporter.ExportJSONL(cmd.Context(), runID, records)
		default:
			return fmt.Errorf("unknown format: %s", exportFormat)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d records to %s\n", len(records), uri)
		return nil
	},
}

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent enrichment runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadWorkerConfig()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("ENRICH_DATABASE_URL is required")
		}

		st, err := store.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			finished := "-"
			if r.FinishedAt != nil {
				finished = r.FinishedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%-24s %-10s started=%s finished=%s\n",
				r.ID, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"), finished)
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadWorkerConfig()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("ENRICH_DATABASE_URL is required")
		}
		if err := store.Migrate(cfg.DatabaseURL, ""); err != nil {
			return err
		}
		fmt.Println("Migrations applied")
		return nil
	},
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	runCmd.Flags().StringVar(&specPath, "spec", "", "path to run spec YAML")
	_ = runCmd.MarkFlagRequired("spec")
	validateCmd.Flags().StringVar(&specPath, "spec", "", "path to run spec YAML")
	_ = validateCmd.MarkFlagRequired("spec")
	exportCmd.Flags().StringVar(&exportFormat, "format", "parquet", "export format (parquet or jsonl)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list")

	rootCmd.AddCommand(runCmd, validateCmd, exportCmd, runsCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
