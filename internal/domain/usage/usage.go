package usage

import "github.com/kailas-cloud/travelq/internal/domain/usage/budget"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod maps a raw value to a Period. Unknown values yield false.
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(s); p {
	case PeriodDay, PeriodMonth, PeriodTotal:
		return p, true
	default:
		return "", false
	}
}

// Report is a completion token usage report for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	provider    string
	budget      budget.Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, provider string, b budget.Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		provider:    provider,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Provider returns the completion provider the budget applies to.
func (r *Report) Provider() string { return r.provider }

// Budget returns the budget status.
func (r *Report) Budget() budget.Budget { return r.budget }
