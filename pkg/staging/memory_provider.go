package staging

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// sliceKey extracts the slice name from a batch ref ("source-000000" -> "source").
func sliceKey(batchRef string) string {
	if i := strings.LastIndex(batchRef, "-"); i > 0 {
		return batchRef[:i]
	}
	return batchRef
}

type memoryStage struct {
	batches    map[string][]RecordEnvelope
	sliceStats map[string]BatchStats
	totalBytes int64
}

// MemoryProvider stores staged data in process memory with a strict byte cap.
// Each stage tracks per-slice record and byte counts so a run's source and
// enriched slices can be inspected independently.
type MemoryProvider struct {
	maxBytes int64

	mu     sync.Mutex
	stages map[string]*memoryStage
}

var _ Inspector = (*MemoryProvider)(nil)

// NewMemoryProvider creates a memory-backed staging provider.
func NewMemoryProvider(maxBytes int64) *MemoryProvider {
	if maxBytes <= 0 {
		maxBytes = DefaultMemoryCapBytes
	}
	return &MemoryProvider{
		maxBytes: maxBytes,
		stages:   make(map[string]*memoryStage),
	}
}

func (p *MemoryProvider) ID() string { return ProviderMemory }

func (p *MemoryProvider) ensureStage(stageID string) *memoryStage {
	if stage, ok := p.stages[stageID]; ok {
		return stage
	}
	stage := &memoryStage{
		batches:    make(map[string][]RecordEnvelope),
		sliceStats: make(map[string]BatchStats),
	}
	p.stages[stageID] = stage
	return stage
}

func (p *MemoryProvider) PutBatch(ctx context.Context, req *PutBatchRequest) (*PutBatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageID := resolveStageID(req.StageRef, req.StageID)
	if stageID == "" {
		stageID = NewStageID()
	}

	size, err := envelopeSizeBytes(req.Records)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	stage := p.ensureStage(stageID)
	if stage.totalBytes+size > p.maxBytes {
		return nil, &Error{Code: CodeStageTooLarge, Retryable: false, Err: fmt.Errorf("stage %s would hold %d of %d byte cap", stageID, stage.totalBytes+size, p.maxBytes)}
	}

	batchSeq := req.BatchSeq
	if batchSeq <= 0 {
		batchSeq = len(stage.batches)
	}
	batchRef := batchKey(req.SliceID, batchSeq)

	stage.batches[batchRef] = cloneEnvelopes(req.Records)
	stage.totalBytes += size

	slice := sliceKey(batchRef)
	stats := stage.sliceStats[slice]
	stats.Records += len(req.Records)
	stats.Bytes += size
	stage.sliceStats[slice] = stats

	return &PutBatchResult{
		StageRef: MakeStageRef(p.ID(), stageID),
		BatchRef: batchRef,
		Stats: BatchStats{
			Records: len(req.Records),
			Bytes:   size,
		},
	}, nil
}

func (p *MemoryProvider) ListBatches(ctx context.Context, stageRef string, sliceID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, stageID := ParseStageRef(stageRef)

	p.mu.Lock()
	defer p.mu.Unlock()

	stage, ok := p.stages[stageID]
	if !ok {
		return []string{}, nil
	}

	refs := make([]string, 0, len(stage.batches))
	for ref := range stage.batches {
		if sliceID != "" && !strings.HasPrefix(ref, sliceID+"-") {
			continue
		}
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}

func (p *MemoryProvider) GetBatch(ctx context.Context, stageRef string, batchRef string) ([]RecordEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, stageID := ParseStageRef(stageRef)

	p.mu.Lock()
	defer p.mu.Unlock()

	stage, ok := p.stages[stageID]
	if !ok {
		return nil, fmt.Errorf("stage not found: %s", stageID)
	}
	records, ok := stage.batches[batchRef]
	if !ok {
		return nil, fmt.Errorf("batch not found: %s", batchRef)
	}
	return cloneEnvelopes(records), nil
}

// StageStats reports per-slice and total counts for a stage.
func (p *MemoryProvider) StageStats(ctx context.Context, stageRef string) (*StageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, stageID := ParseStageRef(stageRef)

	p.mu.Lock()
	defer p.mu.Unlock()

	stage, ok := p.stages[stageID]
	if !ok {
		return nil, fmt.Errorf("stage not found: %s", stageID)
	}

	out := &StageStats{Slices: make(map[string]BatchStats, len(stage.sliceStats))}
	for slice, stats := range stage.sliceStats {
		out.Slices[slice] = stats
		out.Total.Records += stats.Records
		out.Total.Bytes += stats.Bytes
	}
	return out, nil
}

func (p *MemoryProvider) FinalizeStage(ctx context.Context, stageRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, stageID := ParseStageRef(stageRef)

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.stages, stageID)
	return nil
}
