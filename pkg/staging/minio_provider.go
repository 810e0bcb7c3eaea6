package staging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds MinIO/S3 connection settings for object staging.
type MinIOConfig struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
}

// MinIOProvider stores batches as JSONL objects in a MinIO/S3 bucket.
// Object keys take the form <stageID>/<sliceID>-<seq>.jsonl.
type MinIOProvider struct {
	client *minio.Client
	bucket string
}

// NewMinIOProvider creates an object-store staging provider backed by minio-go.
func NewMinIOProvider(cfg *MinIOConfig) (*MinIOProvider, error) {
	if cfg == nil || cfg.EndpointURL == "" {
		return nil, &Error{Code: CodeStagingUnavailable, Retryable: false, Err: fmt.Errorf("endpointUrl is required")}
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, &Error{Code: CodeStagingUnavailable, Retryable: false, Err: fmt.Errorf("credentials are required")}
	}
	if cfg.Bucket == "" {
		return nil, &Error{Code: CodeStagingUnavailable, Retryable: false, Err: fmt.Errorf("bucket is required")}
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
		Region: cfg.Region,
	})
	if err != nil {
		return nil, &Error{Code: CodeStagingUnavailable, Retryable: true, Err: fmt.Errorf("create minio client: %w", err)}
	}

	return &MinIOProvider{client: client, bucket: cfg.Bucket}, nil
}

func (p *MinIOProvider) ID() string { return ProviderMinIO }

// EnsureBucket creates the staging bucket when missing.
func (p *MinIOProvider) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return classifyMinioError(err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		return classifyMinioError(err)
	}
	return nil
}

func (p *MinIOProvider) PutBatch(ctx context.Context, req *PutBatchRequest) (*PutBatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageID := resolveStageID(req.StageRef, req.StageID)
	if stageID == "" {
		stageID = NewStageID()
	}

	batchSeq := req.BatchSeq
	if batchSeq <= 0 {
		existing, err := p.ListBatches(ctx, MakeStageRef(p.ID(), stageID), req.SliceID)
		if err == nil {
			batchSeq = len(existing)
		}
	}
	batchRef := batchKey(req.SliceID, batchSeq) + ".jsonl"

	buf := &bytes.Buffer{}
	if err := writeJSONLines(buf, req.Records); err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	key := stageID + "/" + batchRef
	_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return nil, classifyMinioError(err)
	}

	return &PutBatchResult{
		StageRef: MakeStageRef(p.ID(), stageID),
		BatchRef: batchRef,
		Stats: BatchStats{
			Records: len(req.Records),
			Bytes:   int64(buf.Len()),
		},
	}, nil
}

func (p *MinIOProvider) ListBatches(ctx context.Context, stageRef string, sliceID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, stageID := ParseStageRef(stageRef)

	prefix := stageID + "/"
	if sliceID != "" {
		prefix += sliceID + "-"
	}

	var refs []string
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classifyMinioError(obj.Err)
		}
		refs = append(refs, strings.TrimPrefix(obj.Key, stageID+"/"))
	}
	sort.Strings(refs)
	return refs, nil
}

func (p *MinIOProvider) GetBatch(ctx context.Context, stageRef string, batchRef string) ([]RecordEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, stageID := ParseStageRef(stageRef)

	obj, err := p.client.GetObject(ctx, p.bucket, stageID+"/"+batchRef, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyMinioError(err)
	}
	return readJSONLines(bytes.NewReader(data))
}

func (p *MinIOProvider) FinalizeStage(ctx context.Context, stageRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Staged objects are retained for run debugging; cleanup is explicit.
	return nil
}

// RemoveStage deletes all objects under a stage prefix.
func (p *MinIOProvider) RemoveStage(ctx context.Context, stageRef string) error {
	_, stageID := ParseStageRef(stageRef)
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{
		Prefix:    stageID + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return classifyMinioError(obj.Err)
		}
		if err := p.client.RemoveObject(ctx, p.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return classifyMinioError(err)
		}
	}
	return nil
}

// classifyMinioError converts minio-go errors to structured staging errors.
func classifyMinioError(err error) *Error {
	if err == nil {
		return nil
	}

	if minioErr, ok := err.(minio.ErrorResponse); ok {
		switch minioErr.Code {
		case "NoSuchBucket", "NoSuchKey", "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return &Error{Code: CodeStagingUnavailable, Retryable: false, Err: err}
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") ||
		strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return &Error{Code: CodeStagingUnavailable, Retryable: true, Err: err}
	}

	return &Error{Code: CodeStagingUnavailable, Retryable: true, Err: err}
}

// Ensure interface compliance
var _ Provider = (*MinIOProvider)(nil)
var _ Provider = (*MemoryProvider)(nil)
