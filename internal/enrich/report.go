package enrich

import (
	"fmt"
	"time"
)

// RunReport summarizes one enrichment run.
type RunReport struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Processed           int `json:"processed"`
	VendorResolved      int `json:"vendorResolved"`
	VendorCreated       int `json:"vendorCreated"`
	SpendingMatched     int `json:"spendingMatched"`
	RegistrationMatched int `json:"registrationMatched"`
	Unmatched           int `json:"unmatched"`
	Conflicts           int `json:"conflicts"`

	// Errors holds non-fatal per-source fetch failures. An award whose
	// secondary lookups fail still passes through with what it has.
	Errors []string `json:"errors,omitempty"`
}

// Summary renders a one-line run summary for logs.
func (r *RunReport) Summary() string {
	return fmt.Sprintf(
		"run=%s processed=%d vendors=%d(+%d new) spending=%d registration=%d unmatched=%d conflicts=%d errors=%d in %s",
		r.RunID, r.Processed, r.VendorResolved, r.VendorCreated,
		r.SpendingMatched, r.RegistrationMatched, r.Unmatched, r.Conflicts,
		len(r.Errors), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}
