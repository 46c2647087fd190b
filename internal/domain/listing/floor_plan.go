package listing

import (
	"github.com/keepup/backend/internal/domain/shared"
)

// PlanSpecs holds the structural specs of a floor plan. Absent values stay
// nil so "no data" is distinguishable from zero.
type PlanSpecs struct {
	Beds       *int     `json:"beds"`
	Baths      *float64 `json:"baths"`
	SquareFeet *int     `json:"squareFeet"`
	Garage     *float64 `json:"garage"`
}

// PlanAsset is a stored document or rendering attached to a plan.
type PlanAsset struct {
	PreviewURL string `json:"previewUrl"`
	FileURL    string `json:"fileUrl"`
}

// PrimaryURL returns the preferred URL for display: the preview rendering
// when available, otherwise the raw file.
func (a PlanAsset) PrimaryURL() string {
	return FirstNonEmpty(a.PreviewURL, a.FileURL)
}

// Elevation is one exterior elevation option of a floor plan.
type Elevation struct {
	Name  string    `json:"name"`
	Asset PlanAsset `json:"asset"`
}

// FloorPlan is a company floor plan referenced by homes. It is a read-only
// input to payload building; the publication pipeline never mutates it.
type FloorPlan struct {
	shared.CompanyAggregateRoot
	Name       string      `gorm:"type:varchar(200);not null"`
	PlanNumber string      `gorm:"type:varchar(50)"`
	Specs      PlanSpecs   `gorm:"type:jsonb;serializer:json"`
	Asset      PlanAsset   `gorm:"type:jsonb;serializer:json"`
	Elevations []Elevation `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (FloorPlan) TableName() string {
	return "floor_plans"
}

// PrimaryElevation returns the first elevation that carries an asset URL,
// or nil if none does.
func (p *FloorPlan) PrimaryElevation() *Elevation {
	for i := range p.Elevations {
		if p.Elevations[i].Asset.PrimaryURL() != "" {
			return &p.Elevations[i]
		}
	}
	return nil
}

// ReferencesPlan reports whether the given home references this plan.
func (p *FloorPlan) ReferencesPlan(h *Home) bool {
	return h.FloorPlanID != nil && *h.FloorPlanID == p.ID
}
