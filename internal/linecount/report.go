package linecount

import (
	"encoding/json"
	"fmt"
	"time"
)

// Statistics describes how the listing entries were handled in one run.
type Statistics struct {
	FilesProcessed int  `json:"files_processed"`
	FilesExcluded  int  `json:"files_excluded"`
	FilesSkipped   int  `json:"files_skipped"`
	FilesFailed    int  `json:"files_failed"`
	FilesLimited   int  `json:"files_limited,omitempty"`
	TreeTruncated  bool `json:"tree_truncated,omitempty"`
}

// Diagnostics carries best-effort figures that are not part of the totals.
type Diagnostics struct {
	CommentLines map[Category]int `json:"comment_lines"`
}

// Report is the aggregate line count of one repository ref.
//
// It serializes flat: every category is a top-level key next to total,
// statistics, timestamp, repository and branch.
type Report struct {
	Counts      map[Category]int
	Total       int
	Statistics  Statistics
	Timestamp   int64
	Repository  string
	Branch      string
	Diagnostics *Diagnostics
}

// Count returns the line count of category c.
func (r *Report) Count(c Category) int {
	if r == nil {
		return 0
	}
	return r.Counts[c]
}

// Assemble combines accumulated counts with run metadata. Total is derived
// from counts so it always equals their sum.
func Assemble(counts map[Category]int, stats Statistics, ref RepoRef, capturedAt time.Time) *Report {
	out := &Report{
		Counts:     make(map[Category]int, len(Categories)),
		Statistics: stats,
		Timestamp:  capturedAt.UnixMilli(),
		Repository: ref.FullName(),
		Branch:     ref.Ref,
	}
	for _, c := range Categories {
		n := counts[c]
		out.Counts[c] = n
		out.Total += n
	}
	return out
}

func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(Categories)+7)
	for _, c := range Categories {
		out[string(c)] = r.Counts[c]
	}
	out["total"] = r.Total
	out["statistics"] = r.Statistics
	out["timestamp"] = r.Timestamp
	out["repository"] = r.Repository
	out["branch"] = r.Branch
	if r.Diagnostics != nil {
		out["diagnostics"] = r.Diagnostics
	}
	return json.Marshal(out)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Report
	out.Counts = make(map[Category]int, len(Categories))
	for _, c := range Categories {
		v, ok := raw[string(c)]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("decode %s: %w", c, err)
		}
		out.Counts[c] = n
	}
	fields := map[string]any{
		"total":      &out.Total,
		"statistics": &out.Statistics,
		"timestamp":  &out.Timestamp,
		"repository": &out.Repository,
		"branch":     &out.Branch,
	}
	for key, dst := range fields {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}
	if v, ok := raw["diagnostics"]; ok && string(v) != "null" {
		out.Diagnostics = &Diagnostics{}
		if err := json.Unmarshal(v, out.Diagnostics); err != nil {
			return fmt.Errorf("decode diagnostics: %w", err)
		}
	}
	*r = out
	return nil
}
