package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Builder is the public builder reference embedded in catalog documents.
type Builder struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Fees is the public fee schedule. Absent money values marshal as null so
// consumers can tell "no data" from "free".
type Fees struct {
	HOAFee          *float64 `json:"hoaFee"`
	HOAFrequency    string   `json:"hoaFrequency"`
	Tax             *float64 `json:"tax"`
	MudFee          *float64 `json:"mudFee"`
	PidFee          *float64 `json:"pidFee"`
	PidFeeFrequency string   `json:"pidFeeFrequency"`
	FeeTypes        []string `json:"feeTypes"`
}

// Address is a public postal address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// PublicCommunity is the denormalized community document in the public
// catalog. It is created and updated only by the publication pipeline,
// keyed uniquely on (CompanyID, CommunityID) where CommunityID is the
// canonical catalog community the internal community is mapped to.
type PublicCommunity struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"companyId"`
	CommunityID uuid.UUID `json:"communityId"`

	Name   string `json:"name"`
	Slug   string `json:"slug"`
	City   string `json:"city"`
	State  string `json:"state"`
	Market string `json:"market"`

	Builder      Builder  `json:"builder"`
	Promotion    string   `json:"promotion"`
	Amenities    []string `json:"amenities"`
	Fees         Fees     `json:"fees"`
	HeroImage    string   `json:"heroImage"`
	ModelAddress Address  `json:"modelAddress"`

	UpdatedAt time.Time `json:"updatedAt"`
}
