package domain

import (
	"time"

	"github.com/google/uuid"
)

// InventoryMovement is one row of the stock ledger. Positive deltas are
// restocks, negative deltas are order consumption.
type InventoryMovement struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ProductID      uuid.UUID  `json:"product_id" db:"product_id"`
	QuantityChange int        `json:"quantity_change" db:"quantity_change"`
	Reason         string     `json:"reason" db:"reason"`
	OrderID        *uuid.UUID `json:"order_id,omitempty" db:"order_id"`
	CreatedBy      uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
