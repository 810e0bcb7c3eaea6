package staging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// cloneEnvelopes makes a shallow copy of envelope slice to avoid mutation.
func cloneEnvelopes(in []RecordEnvelope) []RecordEnvelope {
	out := make([]RecordEnvelope, len(in))
	copy(out, in)
	return out
}

// envelopeSizeBytes approximates payload size using JSONL encoding.
func envelopeSizeBytes(records []RecordEnvelope) (int64, error) {
	buf := &bytes.Buffer{}
	if err := writeJSONLines(buf, records); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

func writeJSONLines(w io.Writer, records []RecordEnvelope) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}

func readJSONLines(r io.Reader) ([]RecordEnvelope, error) {
	dec := json.NewDecoder(r)
	var records []RecordEnvelope
	for dec.More() {
		var rec RecordEnvelope
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
