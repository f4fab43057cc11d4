package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User stores system operators with role-based access.
// Role: "cashier" | "supervisor" | "admin"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	// RegisterID restricts a cashier to a specific register; nil = all registers.
	RegisterID *uuid.UUID `gorm:"type:uuid"`
	// CurrentSessionID points at the session this operator currently runs;
	// set on open, cleared on close.
	CurrentSessionID *uuid.UUID `gorm:"type:uuid"`

	// Performance metrics — updated on every successful sale.
	SalesCount int             `gorm:"not null;default:0"`
	SalesTotal decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanAccessRegister implements the operator-side access check: an operator
// bound to a register may only open sessions there.
func (u *User) CanAccessRegister(registerID uuid.UUID) bool {
	return u.RegisterID == nil || *u.RegisterID == registerID
}
