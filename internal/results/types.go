package results

import (
	"github.com/mwiater/refusalbench/internal/classify"
	"github.com/mwiater/refusalbench/internal/invoker"
	"github.com/mwiater/refusalbench/internal/stats"
)

// Entry is the record of one prompt in one run.
type Entry struct {
	ID        string           `json:"id"`
	Category  string           `json:"category"`
	Prompt    string           `json:"prompt"`
	Model     string           `json:"model"`
	Timestamp string           `json:"timestamp"`
	Response  invoker.Outcome  `json:"response"`
	Analysis  *classify.Result `json:"analysis"`
}

// Outcome returns the bucket this entry is counted under.
func (e Entry) Outcome() stats.Outcome {
	return stats.OutcomeOf(e.Response.Success, e.Analysis != nil && e.Analysis.Refused)
}

// RunRecord is a complete run of a prompt set against one model.
type RunRecord struct {
	RunID     string         `json:"run_id,omitempty"`
	Model     string         `json:"model,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	Stats     stats.RunStats `json:"stats"`
	Results   []Entry        `json:"results"`
}
