package taxonomy

import "fmt"

// Rank returns the ordinal of a severity, higher is more severe.
// Unknown severities rank below hidden.
func (s Severity) Rank() int {
	rank, ok := severityRank[s]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// ParseSeverity converts a config or case-file string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q: must be hidden, info, warning, or error", s)
	}
	return sev, nil
}

var severityRank = map[Severity]int{
	SeverityHidden:  0,
	SeverityInfo:    1,
	SeverityWarning: 2,
	SeverityError:   3,
}
