package types

// Severity grades how much two responses differ.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DiffResult contains the line-level comparison of a ComparisonResult.
type DiffResult struct {
	Name          string   `json:"name"`
	LeftURL       string   `json:"left_url"`
	RightURL      string   `json:"right_url"`
	LeftStatus    uint16   `json:"left_status"`
	RightStatus   uint16   `json:"right_status"`
	StatusChanged bool     `json:"status_changed"`
	Identical     bool     `json:"identical"`
	Added         int      `json:"added"`   // Lines only in the right body
	Removed       int      `json:"removed"` // Lines only in the left body
	Unified       string   `json:"unified,omitempty"`
	Severity      Severity `json:"severity"`
}
