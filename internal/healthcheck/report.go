package healthcheck

import (
	"context"
	"time"
)

// Report is the combined outcome of every registered checker.
type Report struct {
	Status    string        `json:"status"`
	CheckedAt time.Time     `json:"checked_at"`
	Checks    []CheckResult `json:"checks"`
}

// Suite runs a fixed list of checkers.
type Suite struct {
	checkers []Checker
}

// NewSuite creates a suite; nil checkers are skipped.
func NewSuite(checkers ...Checker) *Suite {
	s := &Suite{}
	for _, c := range checkers {
		if c != nil {
			s.checkers = append(s.checkers, c)
		}
	}
	return s
}

// Run evaluates all checkers. The report status is the worst item status.
func (s *Suite) Run(ctx context.Context) Report {
	report := Report{Status: StatusOK, CheckedAt: time.Now().UTC(), Checks: []CheckResult{}}
	if s == nil {
		return report
	}
	for _, c := range s.checkers {
		for _, item := range c.ListChecks(ctx) {
			report.Checks = append(report.Checks, item)
			if severity(item.Status) > severity(report.Status) {
				report.Status = item.Status
			}
		}
	}
	return report
}

func severity(status string) int {
	switch status {
	case StatusOK:
		return 0
	case StatusUnknown:
		return 1
	case StatusWarn:
		return 2
	case StatusError:
		return 3
	default:
		return 1
	}
}
