// Package injection flags user-supplied values that look like attempts to
// steer the content generator. It reports; it never blocks or rewrites.
package injection

import (
	"sort"

	"github.com/af-corp/tourdesk/internal/config"
)

// Detection records a matched injection pattern.
type Detection struct {
	Field    string
	RuleName string
	Severity float64
	Category Category
	Start    int
	End      int
}

// Report summarises a scan over several named inputs.
type Report struct {
	Flagged    bool
	Score      float64
	Detections []Detection
}

// Rules returns the distinct rule names that matched.
func (r Report) Rules() []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range r.Detections {
		if !seen[d.RuleName] {
			seen[d.RuleName] = true
			names = append(names, d.RuleName)
		}
	}
	sort.Strings(names)
	return names
}

// Scanner scans text for prompt injection patterns.
type Scanner struct {
	rules []Rule
	cfg   func() config.InjectionConfig
}

// NewScanner creates a prompt injection scanner.
func NewScanner(cfg func() config.InjectionConfig) *Scanner {
	return &Scanner{rules: DefaultRules(), cfg: cfg}
}

func (s *Scanner) Enabled() bool { return s.cfg().Enabled }

// Scan checks a single text string and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, r := range s.rules {
		locs := r.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			detections = append(detections, Detection{
				RuleName: r.Name,
				Severity: r.Severity,
				Category: r.Category,
				Start:    loc[0],
				End:      loc[1],
			})
		}
	}
	return detections
}

// Score returns the highest severity matched in text, or 0.
func (s *Scanner) Score(text string) float64 {
	maxScore := 0.0
	for _, d := range s.Scan(text) {
		if d.Severity > maxScore {
			maxScore = d.Severity
		}
	}
	return maxScore
}

// Check scans each named field and flags the report when the highest
// severity reaches the configured threshold. A disabled scanner returns
// an empty report.
func (s *Scanner) Check(fields map[string]string) Report {
	cfg := s.cfg()
	if !cfg.Enabled {
		return Report{}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var report Report
	for _, name := range names {
		for _, d := range s.Scan(fields[name]) {
			d.Field = name
			report.Detections = append(report.Detections, d)
			if d.Severity > report.Score {
				report.Score = d.Severity
			}
		}
	}
	report.Flagged = len(report.Detections) > 0 && report.Score >= cfg.FlagThreshold
	return report
}
