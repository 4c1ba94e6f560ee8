package types

import (
	"fmt"
	"strings"
)

// FetchedResponse is one normalized response. Body holds the formatted and
// redacted text, not the wire bytes. The JSON form is the cache file format.
type FetchedResponse struct {
	URL        string `json:"url"`
	StatusCode uint16 `json:"status_code"`
	Body       string `json:"text"`
}

// String renders the status line followed by the body.
func (r FetchedResponse) String() string {
	return fmt.Sprintf("Status code %d\n%s", r.StatusCode, r.Body)
}

// ComparisonResult holds both sides of a comparison that fully succeeded.
type ComparisonResult struct {
	Name  string          `json:"name"`
	Left  FetchedResponse `json:"left"`
	Right FetchedResponse `json:"right"`
}

// ComparisonFailure records why a comparison produced no result.
type ComparisonFailure struct {
	Name string
	Side Side   // Empty when the failure is not tied to one side
	URL  string // URL of the failing side, if known
	Err  error
}

func (f *ComparisonFailure) Error() string {
	var b strings.Builder
	b.WriteString("comparison ")
	b.WriteString(fmt.Sprintf("%q", f.Name))
	if f.Side != "" {
		b.WriteString(" ")
		b.WriteString(string(f.Side))
	}
	if f.URL != "" {
		b.WriteString(" (")
		b.WriteString(f.URL)
		b.WriteString(")")
	}
	b.WriteString(": ")
	if f.Err != nil {
		b.WriteString(f.Err.Error())
	} else {
		b.WriteString("unknown error")
	}
	return b.String()
}

func (f *ComparisonFailure) Unwrap() error {
	return f.Err
}

// Report is the outcome of one engine run. Results and Failures are sets
// keyed by comparison name; their order carries no meaning.
type Report struct {
	Results  []ComparisonResult
	Failures []*ComparisonFailure
}

// OK reports whether every comparison succeeded.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Result looks up a result by comparison name.
func (r *Report) Result(name string) (ComparisonResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return ComparisonResult{}, false
}

// Failure looks up a failure by comparison name.
func (r *Report) Failure(name string) (*ComparisonFailure, bool) {
	for _, f := range r.Failures {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
