package endpoint

// Record represents a single data record as key-value pairs.
type Record = map[string]any

// Iterator provides streaming access to records.
type Iterator[T any] interface {
	// Next advances to the next record. Returns false when done or on error.
	Next() bool

	// Value returns the current record. Only valid after Next() returns true.
	Value() T

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases resources. Must be called when done.
	Close() error
}

// --- Validation Types ---

type ValidationResult struct {
	Valid           bool
	Message         string
	DetectedVersion string
}

// --- Capabilities ---

type Capabilities struct {
	SupportsFull        bool
	SupportsIncremental bool
	SupportsCountProbe  bool
	SupportsPreview     bool
	SupportsMetadata    bool
	SupportsLookup      bool

	// Incremental details
	IncrementalLiteral string // "timestamp" | "year"
	DefaultFetchSize   int
}

// --- Dataset Types ---

type Dataset struct {
	ID                  string
	Name                string
	Kind                string // "entity", "collection"
	SupportsIncremental bool
	CdmModelID          string // e.g., "cdm.award.award"
	IncrementalColumn   string
	IncrementalLiteral  string
	PrimaryKeys         []string
}

// --- Schema Types ---

type Schema struct {
	Fields []*FieldDefinition
}

type FieldDefinition struct {
	Name     string
	DataType string
	Nullable bool
	Comment  string
	Position int
}

// --- Read Types ---

type ReadRequest struct {
	DatasetID string
	Limit     int64
	Filter    map[string]any // connector-specific filters (agency, year, uei, ...)
}

// --- Checkpoint Types ---

type Checkpoint struct {
	Watermark string
	Metadata  map[string]any
}

// --- Slice Iterator ---

// SliceIterator adapts a fully materialized record slice to the Iterator
// contract. Connectors use it for small, non-paginated datasets.
type SliceIterator struct {
	records []Record
	index   int
	limit   int
}

// NewSliceIterator wraps records in an iterator honoring an optional limit.
func NewSliceIterator(records []Record, limit int64) *SliceIterator {
	return &SliceIterator{records: records, limit: int(limit)}
}

func (it *SliceIterator) Next() bool {
	if it.limit > 0 && it.index >= it.limit {
		return false
	}
	return it.index < len(it.records)
}

func (it *SliceIterator) Value() Record {
	if it.index < len(it.records) {
		rec := it.records[it.index]
		it.index++
		return rec
	}
	return nil
}

func (it *SliceIterator) Err() error   { return nil }
func (it *SliceIterator) Close() error { return nil }
