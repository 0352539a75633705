package usage

import (
	"testing"

	"github.com/kailas-cloud/travelq/internal/domain/usage/budget"
)

func TestNewReport(t *testing.T) {
	b := budget.New(1000000, 384200, 615800, 1700000000000)

	r := NewReport(PeriodMonth, 1700000000, 1702600000, "gemini", b)

	if r.Period() != PeriodMonth {
		t.Errorf("Period() = %q", r.Period())
	}
	if r.PeriodStart() != 1700000000 {
		t.Errorf("PeriodStart() = %d", r.PeriodStart())
	}
	if r.PeriodEnd() != 1702600000 {
		t.Errorf("PeriodEnd() = %d", r.PeriodEnd())
	}
	if r.Provider() != "gemini" {
		t.Errorf("Provider() = %q", r.Provider())
	}
	if r.Budget().Used() != 384200 {
		t.Errorf("Budget().Used() = %d", r.Budget().Used())
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"day", PeriodDay, true},
		{"month", PeriodMonth, true},
		{"total", PeriodTotal, true},
		{"week", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePeriod(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePeriod(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
