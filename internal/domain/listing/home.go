package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Home status values observed across the three legacy status fields.
const (
	StatusAvailable = "Available"
	StatusModel     = "Model"
	StatusSold      = "Sold"
	StatusPending   = "Pending"
)

// Publish outcome recorded on the home after each attempt.
const (
	PublishStatusOK    = "ok"
	PublishStatusError = "error"
)

// PublishState is the publish bookkeeping carried by a Home. It is mutated
// only by the publication pipeline; CRUD edit flows never touch it.
type PublishState struct {
	IsPublished         bool `gorm:"not null;default:false"`
	IsListed            bool `gorm:"not null;default:false"`
	PublishedAt         *time.Time
	ContentSyncedAt     *time.Time
	PublishVersion      int        `gorm:"not null;default:0"`
	ExternalID          *uuid.UUID `gorm:"type:uuid"`
	ExternalCommunityID *uuid.UUID `gorm:"type:uuid"`
	LastPublishStatus   string     `gorm:"type:varchar(20)"`
	LastPublishError    string     `gorm:"type:text"`
}

// Home represents one sellable unit (a lot) inside a Community.
// It is the source of truth that the publication pipeline projects into the
// public catalog.
type Home struct {
	shared.CompanyAggregateRoot
	CommunityID uuid.UUID `gorm:"type:uuid;not null;index"`

	Address        string `gorm:"type:varchar(300)"`
	LotNumber      string `gorm:"type:varchar(50)"`
	JobNumber      string `gorm:"type:varchar(50)"`
	GeneralStatus  string `gorm:"type:varchar(50)"`
	Status         string `gorm:"type:varchar(50)"`
	BuildingStatus string `gorm:"type:varchar(50)"`

	ListPrice   *decimal.Decimal `gorm:"type:decimal(14,2)"`
	FloorPlanID *uuid.UUID       `gorm:"type:uuid"`
	Latitude    *float64
	Longitude   *float64

	HeroImage          string   `gorm:"type:text"`
	LiveElevationPhoto string   `gorm:"type:text"`
	ListingPhotos      []string `gorm:"type:jsonb;serializer:json"`

	PromoText          string `gorm:"type:text"`
	ListingDescription string `gorm:"type:text"`

	SalesContactName  string `gorm:"type:varchar(100)"`
	SalesContactPhone string `gorm:"type:varchar(50)"`
	SalesContactEmail string `gorm:"type:varchar(200)"`

	Publish PublishState `gorm:"embedded"`
}

// TableName returns the table name for GORM
func (Home) TableName() string {
	return "homes"
}

// NewHome creates a new unpublished home inside a community
func NewHome(companyID, communityID uuid.UUID, address string) (*Home, error) {
	if communityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMMUNITY", "Home requires a community")
	}
	return &Home{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		CommunityID:          communityID,
		Address:              address,
	}, nil
}

// DisplayStatus resolves the home's public status from the three legacy
// status fields in precedence order. The explicit order is the contract:
// generalStatus wins, then status, then buildingStatus.
func (h *Home) DisplayStatus() string {
	return FirstNonEmpty(h.GeneralStatus, h.Status, h.BuildingStatus, StatusAvailable)
}

// IsModelHome reports whether any of the status fields marks this home as
// the community's model home.
func (h *Home) IsModelHome() bool {
	return h.DisplayStatus() == StatusModel
}

// LotReference returns the identifier used in home slugs: the lot number
// when present, otherwise the job number, otherwise the home id.
func (h *Home) LotReference() string {
	return FirstNonEmpty(h.LotNumber, h.JobNumber, h.ID.String())
}

// WasPublished reports whether the home currently points at a catalog record.
func (h *Home) WasPublished() bool {
	return h.Publish.ExternalID != nil
}

// FirstNonEmpty returns the first non-empty string from the ordered list of
// candidates. It makes field-fallback precedence an explicit contract rather
// than chained optional access.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
