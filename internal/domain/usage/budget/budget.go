package budget

// Budget is a snapshot of the completion token budget for one period.
type Budget struct {
	limit     int64
	used      int64
	remaining int64
	exhausted bool
	resetsAt  int64 // unix millis, 0 when the period never resets
}

// New creates a Budget snapshot. A zero limit means unlimited.
func New(limit, used, remaining int64, resetsAt int64) Budget {
	return Budget{
		limit:     limit,
		used:      used,
		remaining: remaining,
		exhausted: limit > 0 && remaining <= 0,
		resetsAt:  resetsAt,
	}
}

// Limit returns the token cap (0 = unlimited).
func (b Budget) Limit() int64 { return b.limit }

// Used returns tokens consumed in the period.
func (b Budget) Used() int64 { return b.used }

// Remaining returns tokens left, or -1 when unlimited.
func (b Budget) Remaining() int64 { return b.remaining }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.exhausted }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }
