// Package export writes enrichment run results to the object store as
// Parquet files, with a JSONL fallback for raw dumps.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/fedlink/enrich-core/internal/core/cdm"
)

// Config holds object-store settings for exports.
type Config struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	BasePrefix      string
	UseSSL          bool
}

// Exporter writes run outputs to MinIO/S3.
type Exporter struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates an exporter from config.
func New(cfg *Config) (*Exporter, error) {
	if cfg == nil || cfg.EndpointURL == "" {
		return nil, fmt.Errorf("export: endpointUrl is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("export: bucket is required")
	}

	endpoint := cfg.EndpointURL
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.EndpointURL); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("export: create minio client: %w", err)
	}

	return &Exporter{client: client, bucket: cfg.Bucket, prefix: cfg.BasePrefix}, nil
}

// ExportRun writes the run's enriched awards as a single Parquet object and
// returns its URI.
func (e *Exporter) ExportRun(ctx context.Context, runID string, records []map[string]any) (string, error) {
	data, err := encodeParquet(records)
	if err != nil {
		return "", err
	}

	key := e.objectKey(runID, fmt.Sprintf("part-%06d.parquet", 0))
	if err := e.putObject(ctx, key, data, "application/octet-stream"); err != nil {
		return "", err
	}

	return fmt.Sprintf("minio://%s/%s", e.bucket, key), nil
}

// ExportJSONL writes the records as newline-delimited JSON, for raw dumps
// and for consumers without Parquet readers.
func (e *Exporter) ExportJSONL(ctx context.Context, runID string, records []map[string]any) (string, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return "", fmt.Errorf("encode record: %w", err)
		}
	}

	key := e.objectKey(runID, "enriched.jsonl")
	if err := e.putObject(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return "", err
	}
	return fmt.Sprintf("minio://%s/%s", e.bucket, key), nil
}

func (e *Exporter) objectKey(runID, filename string) string {
	parts := []string{}
	if e.prefix != "" {
		parts = append(parts, strings.Trim(e.prefix, "/"))
	}
	parts = append(parts,
		"enriched",
		fmt.Sprintf("dt=%s", time.Now().UTC().Format("2006-01-02")),
		fmt.Sprintf("run=%s", runID),
		filename,
	)
	return strings.Join(parts, "/")
}

func (e *Exporter) putObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := e.client.PutObject(ctx, e.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// PARQUET ENCODING
// =============================================================================

// encodeParquet writes enriched award records into a Parquet buffer using
// the canonical enriched-model schema.
func encodeParquet(records []map[string]any) ([]byte, error) {
	schema := cdm.ModelSchema(cdm.ModelEnriched)
	if schema == nil {
		return nil, fmt.Errorf("no schema for %s", cdm.ModelEnriched)
	}

	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(buildParquetSchema(schema), pfw, 4)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		row := projectRow(rec, schema)
		data, err := json.Marshal(row)
		if err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, fmt.Errorf("marshal row: %w", err)
		}
		if err := pw.Write(string(data)); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return nil, fmt.Errorf("finish parquet: %w", err)
	}
	_ = pfw.Close()

	return buf.Bytes(), nil
}

// buildParquetSchema renders the JSON schema string parquet-go's JSONWriter
// expects, mapping CDM column types to Parquet physical types.
func buildParquetSchema(schema []cdm.ColumnDef) string {
	fields := make([]map[string]string, 0, len(schema))
	for _, col := range schema {
		fields = append(fields, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", col.Name, parquetPhysicalType(col.Type)),
		})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func parquetPhysicalType(dataType string) string {
	switch strings.ToUpper(dataType) {
	case "BOOLEAN":
		return "BOOLEAN"
	case "INTEGER", "INT", "BIGINT":
		return "INT64"
	case "NUMERIC", "DOUBLE", "FLOAT", "DECIMAL":
		return "DOUBLE"
	default:
		// TEXT, TIMESTAMPTZ, JSONB all serialize as strings
		return "BYTE_ARRAY"
	}
}

// projectRow flattens an enriched record onto the model schema. JSONB columns
// are serialized to JSON strings; missing values stay null.
func projectRow(rec map[string]any, schema []cdm.ColumnDef) map[string]any {
	row := make(map[string]any, len(schema))
	for _, col := range schema {
		val, ok := lookupColumn(rec, col.Name)
		if !ok || val == nil {
			row[col.Name] = nil
			continue
		}
		switch strings.ToUpper(col.Type) {
		case "JSONB":
			b, err := json.Marshal(val)
			if err != nil {
				row[col.Name] = nil
				continue
			}
			row[col.Name] = string(b)
		default:
			row[col.Name] = val
		}
	}
	return row
}

// lookupColumn maps enriched-model column names onto the record layout
// produced by cdm.EnrichedAward.ToRecord.
func lookupColumn(rec map[string]any, name string) (any, bool) {
	switch name {
	case "id":
		v, ok := rec["cdm_id"]
		return v, ok
	case "award_cdm_id":
		if award, ok := rec["award"].(map[string]any); ok {
			v, ok := award["cdm_id"]
			return v, ok
		}
		return nil, false
	default:
		v, ok := rec[name]
		return v, ok
	}
}
