package ledger

import (
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// budgetDateLayout is the calendar-day key used for the lazy daily reset.
const budgetDateLayout = "2006-01-02"

// BudgetSnapshot is a read-only copy of the sponsor budget state.
type BudgetSnapshot struct {
	Enabled       bool
	PerTxCeiling  uint64
	DailyCeiling  uint64
	SpentToday    uint64
	LastResetDate string
}

// Remaining returns what is left of today's ceiling. Commits debit actual
// gas, which can overshoot the estimate that was reserved, so this guards
// against going negative.
func (s BudgetSnapshot) Remaining() uint64 {
	if s.SpentToday >= s.DailyCeiling {
		return 0
	}
	return s.DailyCeiling - s.SpentToday
}

// QuotaManager tracks the shared fee-sponsorship budget against a
// per-transaction ceiling and a daily ceiling.
//
// The day rollover happens lazily on first access of a new UTC calendar day,
// under the same lock as the ceiling checks, so two concurrent reservations
// cannot double-spend across a day boundary.
type QuotaManager struct {
	mu            sync.Mutex
	enabled       bool
	perTxCeiling  uint64
	dailyCeiling  uint64
	spentToday    uint64
	lastResetDate string

	now    func() time.Time
	logger *log.Helper
}

// NewQuotaManager creates a quota manager with zero spend for today.
func NewQuotaManager(enabled bool, perTxCeiling, dailyCeiling uint64, logger log.Logger) *QuotaManager {
	q := &QuotaManager{
		enabled:      enabled,
		perTxCeiling: perTxCeiling,
		dailyCeiling: dailyCeiling,
		now:          time.Now,
		logger:       log.NewHelper(logger),
	}
	q.lastResetDate = q.today()
	return q
}

// TryReserve reports whether amount fits the sponsor budget. The reservation
// is advisory: the debit happens via Commit after the call actually executed.
// A false return means the caller should use an explicit fee payer instead.
func (q *QuotaManager) TryReserve(amount uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()

	if !q.enabled {
		return false
	}
	if amount > q.perTxCeiling {
		observeSponsorDenial(sponsorDenialPerTx)
		q.logger.Warnw(
			"msg", "sponsor reservation denied, per-transaction ceiling exceeded",
			"requested", amount,
			"per_tx_ceiling", q.perTxCeiling,
		)
		return false
	}
	if q.spentToday >= q.dailyCeiling || amount > q.dailyCeiling-q.spentToday {
		observeSponsorDenial(sponsorDenialDaily)
		q.logger.Warnw(
			"msg", "sponsor reservation denied, daily ceiling would be exceeded",
			"requested", amount,
			"spent_today", q.spentToday,
			"daily_ceiling", q.dailyCeiling,
		)
		return false
	}
	return true
}

// Commit debits amount from today's budget. It must only follow an approved
// reservation whose call actually executed.
func (q *QuotaManager) Commit(amount uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()

	q.spentToday += amount
	observeSponsorSpend(q.spentToday)
	q.logger.Debugw(
		"msg", "sponsor budget debited",
		"amount", amount,
		"spent_today", q.spentToday,
		"daily_ceiling", q.dailyCeiling,
	)
}

// Snapshot returns a copy of the budget state after applying any pending
// day rollover.
func (q *QuotaManager) Snapshot() BudgetSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()

	return BudgetSnapshot{
		Enabled:       q.enabled,
		PerTxCeiling:  q.perTxCeiling,
		DailyCeiling:  q.dailyCeiling,
		SpentToday:    q.spentToday,
		LastResetDate: q.lastResetDate,
	}
}

// rollover zeroes the daily spend on the first access of a new day.
// Callers hold q.mu.
func (q *QuotaManager) rollover() {
	today := q.today()
	if today == q.lastResetDate {
		return
	}
	if q.spentToday > 0 {
		q.logger.Infow(
			"msg", "sponsor budget reset for new day",
			"previous_date", q.lastResetDate,
			"previous_spend", q.spentToday,
			"daily_ceiling", q.dailyCeiling,
		)
	}
	q.spentToday = 0
	q.lastResetDate = today
	observeSponsorSpend(0)
}

func (q *QuotaManager) today() string {
	return q.now().UTC().Format(budgetDateLayout)
}
