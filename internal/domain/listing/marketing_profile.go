package listing

import (
	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CommunityFees holds the fee schedule marketed for a community. Money
// fields stay nil when unknown; nil means "no data", not "free".
type CommunityFees struct {
	HOAFee          *decimal.Decimal `json:"hoaFee"`
	HOAFrequency    string           `json:"hoaFrequency"`
	Tax             *decimal.Decimal `json:"tax"`
	MudFee          *decimal.Decimal `json:"mudFee"`
	PidFee          *decimal.Decimal `json:"pidFee"`
	PidFeeFrequency string           `json:"pidFeeFrequency"`
	FeeTypes        []string         `json:"feeTypes"`
}

// CommunitySchools holds the school assignments marketed for a community.
type CommunitySchools struct {
	ISD        string `json:"isd"`
	Elementary string `json:"elementary"`
	Middle     string `json:"middle"`
	High       string `json:"high"`
}

// MarketingProfile is the per-community competitive/marketing profile
// maintained by the competition dashboards. The publication pipeline reads
// it to enrich public payloads and never writes it.
type MarketingProfile struct {
	shared.CompanyAggregateRoot
	CommunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_profile_company_community,priority:2"`

	Address string `gorm:"type:varchar(300)"`
	City    string `gorm:"type:varchar(100)"`
	State   string `gorm:"type:varchar(50)"`
	Zip     string `gorm:"type:varchar(20)"`

	Fees      CommunityFees    `gorm:"type:jsonb;serializer:json"`
	Amenities []string         `gorm:"type:jsonb;serializer:json"`
	Schools   CommunitySchools `gorm:"type:jsonb;serializer:json"`
	Promotion string           `gorm:"type:text"`
	LotSize   string           `gorm:"type:varchar(100)"`

	SalesPerson      string `gorm:"type:varchar(100)"`
	SalesPersonPhone string `gorm:"type:varchar(50)"`
	SalesPersonEmail string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (MarketingProfile) TableName() string {
	return "marketing_profiles"
}
