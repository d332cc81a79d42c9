package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
