package collateral

import (
	"time"
)

type Type string

const (
	TypeGold     Type = "gold"
	TypeProperty Type = "property"
)

// LedgerCode is the numeric collateral code the ledger contract expects.
func (t Type) LedgerCode() int {
	switch t {
	case TypeGold:
		return 0
	case TypeProperty:
		return 1
	default:
		return -1
	}
}

func (t Type) Valid() bool { return t == TypeGold || t == TypeProperty }

type Status string

const (
	StatusUnlocked   Status = "unlocked"
	StatusLocked     Status = "locked"
	StatusLiquidated Status = "liquidated"
	StatusReleased   Status = "released"
)

// Terminal statuses never transition again.
func (s Status) Terminal() bool { return s == StatusLiquidated || s == StatusReleased }

type AssociationKind string

const (
	AssocNone        AssociationKind = ""
	AssocApplication AssociationKind = "application"
	AssocLoan        AssociationKind = "loan"
)

// Table: collaterals. Status changes go through Repository.CompareAndSet so
// that locked <=> association set holds for every row.
type Collateral struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	CollateralID    string          `gorm:"size:32;uniqueIndex:ux_collaterals_collateral_id" json:"collateral_id"`
	OwnerID         string          `gorm:"size:32;index:idx_collaterals_owner" json:"owner_id"`
	Type            Type            `gorm:"type:varchar(16);not null" json:"type"`
	Quantity        float64         `gorm:"type:decimal(18,4)" json:"quantity"` // troy ounces or square feet
	City            string          `gorm:"size:64" json:"city,omitempty"`
	ValueUSD        float64         `gorm:"type:decimal(18,2)" json:"value_usd"`
	Status          Status          `gorm:"type:varchar(16);not null;default:'unlocked';index:idx_collaterals_status" json:"status"`
	AssociationID   *string         `gorm:"size:32" json:"association_id,omitempty"`
	AssociationKind AssociationKind `gorm:"type:varchar(16)" json:"association_kind,omitempty"`
	StatusUpdatedAt time.Time       `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Collateral) TableName() string { return "collaterals" }

// Associated reports whether the collateral currently backs an application or loan.
func (c *Collateral) Associated() bool { return c.AssociationID != nil && *c.AssociationID != "" }

// Transition describes a compare-and-set on a collateral row: it only applies
// when the current status is one of From (and, if set, the association
// matches FromAssociation).
type Transition struct {
	From            []Status
	FromAssociation *string
	To              Status
	Association     *string
	Kind            AssociationKind
}
