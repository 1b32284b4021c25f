package collateral

import (
	"time"

	"btc-lending-backend/internal/domain/collateral"
)

// RegisterInput carries the valuation query. Gold uses Ounces; property uses
// City and AreaSqFt.
type RegisterInput struct {
	OwnerID  string          `json:"owner_id"`
	Type     collateral.Type `json:"type" validate:"required,oneof=gold property"`
	Ounces   float64         `json:"ounces" validate:"omitempty,gt=0"`
	City     string          `json:"city" validate:"omitempty,max=64"`
	AreaSqFt float64         `json:"area_sq_ft" validate:"omitempty,gt=0"`
}

type CollateralDTO struct {
	CollateralID    string    `json:"collateral_id"`
	OwnerID         string    `json:"owner_id"`
	Type            string    `json:"type"`
	Quantity        float64   `json:"quantity"`
	City            string    `json:"city,omitempty"`
	ValueUSD        float64   `json:"value_usd"`
	Status          string    `json:"status"`
	AssociationID   string    `json:"association_id,omitempty"`
	AssociationKind string    `json:"association_kind,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toDTO(c *collateral.Collateral) *CollateralDTO {
	dto := &CollateralDTO{
		CollateralID:    c.CollateralID,
		OwnerID:         c.OwnerID,
		Type:            string(c.Type),
		Quantity:        c.Quantity,
		City:            c.City,
		ValueUSD:        c.ValueUSD,
		Status:          string(c.Status),
		AssociationKind: string(c.AssociationKind),
		CreatedAt:       c.CreatedAt,
	}
	if c.AssociationID != nil {
		dto.AssociationID = *c.AssociationID
	}
	return dto
}
