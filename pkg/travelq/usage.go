package travelq

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/travelq/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// UsageReport contains completion token usage for a time period.
type UsageReport struct {
	Period      UsagePeriod
	PeriodStart time.Time
	PeriodEnd   time.Time
	Budget      BudgetStatus
}

// BudgetStatus tracks token quota state. Limit is 0 and Remaining -1 when unlimited.
type BudgetStatus struct {
	Limit       int64
	Used        int64
	Remaining   int64
	IsExhausted bool
	ResetsAt    time.Time
}

// Usage returns a token usage report for the given period.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	report := c.usageSvc.GetReport(ctx, domusage.Period(period))
	b := report.Budget()

	return UsageReport{
		Period:      UsagePeriod(report.Period()),
		PeriodStart: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEnd:   time.UnixMilli(report.PeriodEnd()).UTC(),
		Budget: BudgetStatus{
			Limit:       b.Limit(),
			Used:        b.Used(),
			Remaining:   b.Remaining(),
			IsExhausted: b.IsExhausted(),
			ResetsAt:    time.UnixMilli(b.ResetsAt()).UTC(),
		},
	}
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}
