package healthcheck

import (
	"context"
	"testing"
)

type testChecker struct {
	items []CheckResult
}

func (c *testChecker) ListChecks(ctx context.Context) []CheckResult {
	return c.items
}

func TestSuiteRunTakesWorstStatus(t *testing.T) {
	t.Parallel()

	suite := NewSuite(
		&testChecker{items: []CheckResult{{ID: "a", Status: StatusOK}}},
		nil,
		&testChecker{items: []CheckResult{{ID: "b", Status: StatusWarn}, {ID: "c", Status: StatusOK}}},
	)

	report := suite.Run(context.Background())
	if len(report.Checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(report.Checks))
	}
	if report.Status != StatusWarn {
		t.Fatalf("expected warn, got %s", report.Status)
	}

	suite = NewSuite(&testChecker{items: []CheckResult{{ID: "d", Status: StatusError}, {ID: "e", Status: StatusWarn}}})
	if got := suite.Run(context.Background()).Status; got != StatusError {
		t.Fatalf("expected error, got %s", got)
	}
}

func TestSuiteRunEmpty(t *testing.T) {
	t.Parallel()

	var suite *Suite
	report := suite.Run(context.Background())
	if report.Status != StatusOK {
		t.Fatalf("expected ok, got %s", report.Status)
	}
	if report.Checks == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}
