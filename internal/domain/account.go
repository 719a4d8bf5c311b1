package domain

// AccountProfile holds per-account metadata from the explorer API.
type AccountProfile struct {
	Lamports   uint64  // native balance in lamports
	OwnerProg  string  // owning program address
	AccountTyp *string // explorer account classification (nullable)
	Executable bool
}

// TokenHolding is one token balance entry for an account.
type TokenHolding struct {
	TokenAddress string  // mint address
	TokenSymbol  *string // symbol (nullable)
	Amount       float64 // UI amount
	Decimals     int
}

// TransactionSummary is one recent-activity entry for an account.
type TransactionSummary struct {
	Signature string
	Slot      int64
	BlockTime int64 // Unix seconds, 0 if unknown
	Status    string
	Fee       uint64
}

// AccountRecord is the merged profile + holdings + activity for one address
// at one point in time. It is never mutated after the three sub-fetches
// complete; terminal state is "written to output" or "dropped with a logged
// failure".
type AccountRecord struct {
	Address    Address
	Profile    AccountProfile
	Holdings   []TokenHolding       // ordered as returned; empty is valid
	Activity   []TransactionSummary // ordered as returned; empty is valid
	CapturedAt int64                // capture timestamp (ms)
}

// TotalTokenAmount sums the UI amounts across all holdings.
func (r *AccountRecord) TotalTokenAmount() float64 {
	var total float64
	for _, h := range r.Holdings {
		total += h.Amount
	}
	return total
}

// LastActivityTime returns the block time of the most recent transaction,
// or 0 when the account has no recorded activity.
func (r *AccountRecord) LastActivityTime() int64 {
	if len(r.Activity) == 0 {
		return 0
	}
	return r.Activity[0].BlockTime
}

// EngagementScore computes a simple activity metric:
// 10 points per recent transaction, 5 per held token, plus up to 100
// points from total token amount (capped at 1000, scaled by 1/10).
func (r *AccountRecord) EngagementScore() float64 {
	amount := r.TotalTokenAmount()
	if amount > 1000 {
		amount = 1000
	}
	return float64(len(r.Activity))*10 + float64(len(r.Holdings))*5 + amount/10
}

// HarvestFailure marks an address whose structured fetch exhausted its
// retry budget. The pipeline records it and continues.
type HarvestFailure struct {
	Address  Address
	Stage    string // "profile" | "holdings" | "activity"
	Attempts int
	Reason   string
}
