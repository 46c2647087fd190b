package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the public floor plan summary attached to a home document.
type Plan struct {
	Name       string `json:"name"`
	PlanNumber string `json:"planNumber"`
}

// Specs carries the headline numbers shown on listing cards. Pointers keep
// missing values as null rather than zero.
type Specs struct {
	Beds       *int     `json:"beds"`
	Baths      *float64 `json:"baths"`
	SquareFeet *int     `json:"sqft"`
	Garage     *float64 `json:"garage"`
}

// Schools is the public school assignment block.
type Schools struct {
	ISD        string `json:"isd"`
	Elementary string `json:"elementary"`
	Middle     string `json:"middle"`
	High       string `json:"high"`
}

// SalesContact is the public point of contact for a listing.
type SalesContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// FloorPlanMedia holds plan imagery that is distinct from listing photos.
type FloorPlanMedia struct {
	PreviewURL string `json:"previewUrl"`
	FileURL    string `json:"fileUrl"`
}

// Coordinates is a lat/lng pair; both present or the block is omitted.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Meta records provenance of a published document so replays and stale
// writes can be detected by consumers.
type Meta struct {
	PublishVersion  int       `json:"publishVersion"`
	SourceUpdatedAt time.Time `json:"sourceUpdatedAt"`
}

// PublicHome is the denormalized home document in the public catalog,
// keyed uniquely on (CompanyID, SourceHomeID). CommunityID is the canonical
// catalog community id; SourceCommunityID is the originating internal
// community and PublicCommunityID points at the PublicCommunity record.
type PublicHome struct {
	ID                uuid.UUID `json:"id"`
	CompanyID         uuid.UUID `json:"companyId"`
	CommunityID       uuid.UUID `json:"communityId"`
	SourceCommunityID uuid.UUID `json:"sourceCommunityId"`
	PublicCommunityID uuid.UUID `json:"publicCommunityId"`
	SourceHomeID      uuid.UUID `json:"sourceHomeId"`
	BuilderID         uuid.UUID `json:"builderId"`

	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
	Published bool   `json:"published"`

	Address Address  `json:"address"`
	Price   *float64 `json:"price"`
	Plan    Plan     `json:"plan"`
	Specs   Specs    `json:"specs"`
	Builder Builder  `json:"builder"`
	LotSize string   `json:"lotSize"`

	Images         []string       `json:"images"`
	Incentives     []string       `json:"incentives"`
	Description    string         `json:"description"`
	Schools        Schools        `json:"schools"`
	SalesContact   SalesContact   `json:"salesContact"`
	ModelAddress   *Address       `json:"modelAddress"`
	FloorPlanMedia FloorPlanMedia `json:"floorPlanMedia"`
	Coordinates    *Coordinates   `json:"coordinates"`

	Meta      Meta      `json:"meta"`
	UpdatedAt time.Time `json:"updatedAt"`
}
