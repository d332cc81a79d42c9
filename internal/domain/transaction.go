package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxTypeDebit  TxType = "debit"
	TxTypeCredit TxType = "credit"
)

// Transaction is a journal entry for a single balance mutation.
type Transaction struct {
	ID          int64
	UserID      int64
	Amount      decimal.Decimal
	TxType      TxType
	Description string
	CreatedAt   time.Time
}

// TxTypeFor returns the journal type matching the sign of delta.
func TxTypeFor(delta decimal.Decimal) TxType {
	if delta.IsNegative() {
		return TxTypeDebit
	}
	return TxTypeCredit
}
