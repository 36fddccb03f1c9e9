package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// PointsLedger debits points from a user's balance in the user service.
type PointsLedger interface {
	// DebitPoints returns nil only when the ledger confirmed the debit
	DebitPoints(ctx context.Context, userID int64, amount decimal.Decimal) error
}
