package domain

import "time"

// Result is everything one analysis run produced.
type Result struct {
	GeneratedAt       time.Time       `json:"generated_at"`
	OutputFile        string          `json:"output_file"`
	DuplicatesRemoved int             `json:"duplicates_removed"`
	Observations      []Observation   `json:"observations"`
	Annual            []AnnualSummary `json:"annual"`
	Panels            []Panel         `json:"panels"`
}
