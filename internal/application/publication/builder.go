package publication

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/keepup/backend/internal/domain/catalog"
	"github.com/keepup/backend/internal/domain/listing"
)

// Builder transforms a loaded Aggregate into public catalog documents.
// Both build methods are pure: given the same aggregate they produce the
// same documents, with no I/O. URL resolution is injected as pure string
// construction for the same reason.
type Builder struct {
	urls MediaURLResolver
}

// NewBuilder creates a new Builder
func NewBuilder(urls MediaURLResolver) *Builder {
	return &Builder{urls: urls}
}

// BuildCommunityDoc builds the public community document from the aggregate.
func (b *Builder) BuildCommunityDoc(agg *Aggregate) *catalog.PublicCommunity {
	c := agg.Community
	name := listing.FirstNonEmpty(c.Mapping.CanonicalName, c.Name)

	doc := &catalog.PublicCommunity{
		CompanyID:   c.CompanyID,
		CommunityID: agg.CatalogCommunityID,
		Name:        name,
		Slug:        Slugify(name),
		City:        c.City,
		State:       c.State,
		Market:      c.Market,
		Builder:     b.builderRef(agg),
	}

	if model := findModelHome(agg.Homes); model != nil {
		doc.HeroImage = b.resolveURL(model.HeroImage)
	}
	doc.ModelAddress = b.modelAddress(agg)

	if p := agg.Profile; p != nil {
		doc.Promotion = p.Promotion
		doc.Amenities = dedupeStrings(p.Amenities)
		doc.Fees = catalog.Fees{
			HOAFee:          decimalToFloat(p.Fees.HOAFee),
			HOAFrequency:    p.Fees.HOAFrequency,
			Tax:             decimalToFloat(p.Fees.Tax),
			MudFee:          decimalToFloat(p.Fees.MudFee),
			PidFee:          decimalToFloat(p.Fees.PidFee),
			PidFeeFrequency: p.Fees.PidFeeFrequency,
			FeeTypes:        dedupeStrings(p.Fees.FeeTypes),
		}
		if doc.City == "" {
			doc.City = p.City
		}
		if doc.State == "" {
			doc.State = p.State
		}
	}

	return doc
}

// BuildHomeDoc builds the public home document, stamped with the given
// publish version and a back-reference to the public community record.
func (b *Builder) BuildHomeDoc(agg *Aggregate, version int, publicCommunityID uuid.UUID) *catalog.PublicHome {
	h := agg.Home
	c := agg.Community

	title := listing.FirstNonEmpty(h.Address, c.Name+" "+h.LotReference())

	doc := &catalog.PublicHome{
		CompanyID:         h.CompanyID,
		CommunityID:       agg.CatalogCommunityID,
		SourceCommunityID: c.ID,
		PublicCommunityID: publicCommunityID,
		SourceHomeID:      h.ID,
		BuilderID:         h.CompanyID,
		Title:             title,
		Slug:              Slugify(c.Name + "-" + h.LotReference()),
		Status:            h.DisplayStatus(),
		Published:         true,
		Address:           b.homeAddress(agg),
		Price:             decimalToFloat(h.ListPrice),
		Builder:           b.builderRef(agg),
		Images:            b.homeImages(h, agg.FloorPlan),
		Description:       h.ListingDescription,
		SalesContact:      b.salesContact(agg),
		Meta: catalog.Meta{
			PublishVersion:  version,
			SourceUpdatedAt: h.UpdatedAt,
		},
	}

	incentiveSources := []string{h.PromoText}
	if agg.Profile != nil {
		incentiveSources = append(incentiveSources, agg.Profile.Promotion)
		doc.LotSize = agg.Profile.LotSize
		doc.Schools = catalog.Schools{
			ISD:        agg.Profile.Schools.ISD,
			Elementary: agg.Profile.Schools.Elementary,
			Middle:     agg.Profile.Schools.Middle,
			High:       agg.Profile.Schools.High,
		}
	}
	doc.Incentives = ExtractIncentives(incentiveSources...)

	if plan := agg.FloorPlan; plan != nil {
		doc.Plan = catalog.Plan{Name: plan.Name, PlanNumber: plan.PlanNumber}
		doc.Specs = catalog.Specs{
			Beds:       plan.Specs.Beds,
			Baths:      plan.Specs.Baths,
			SquareFeet: plan.Specs.SquareFeet,
			Garage:     plan.Specs.Garage,
		}
		doc.FloorPlanMedia = catalog.FloorPlanMedia{
			PreviewURL: b.resolveURL(plan.Asset.PreviewURL),
			FileURL:    b.resolveURL(plan.Asset.FileURL),
		}
	}

	if ma := b.modelAddress(agg); ma.Street != "" {
		doc.ModelAddress = &ma
	}

	if h.Latitude != nil && h.Longitude != nil {
		doc.Coordinates = &catalog.Coordinates{Latitude: *h.Latitude, Longitude: *h.Longitude}
	}

	return doc
}

// homeImages assembles the public image list: the live elevation photo wins
// over a floor-plan-derived elevation, never both; then the hero image and
// listing photos, deduplicated in first-seen order.
func (b *Builder) homeImages(h *listing.Home, plan *listing.FloorPlan) []string {
	elevation := h.LiveElevationPhoto
	if elevation == "" && plan != nil {
		if e := plan.PrimaryElevation(); e != nil {
			elevation = e.Asset.PrimaryURL()
		}
	}

	raw := make([]string, 0, len(h.ListingPhotos)+2)
	raw = append(raw, elevation, h.HeroImage)
	raw = append(raw, h.ListingPhotos...)

	resolved := make([]string, 0, len(raw))
	for _, p := range raw {
		if p == "" {
			continue
		}
		resolved = append(resolved, b.resolveURL(p))
	}
	return dedupeStrings(resolved)
}

func (b *Builder) homeAddress(agg *Aggregate) catalog.Address {
	addr := catalog.Address{
		Street: agg.Home.Address,
		City:   agg.Community.City,
		State:  agg.Community.State,
	}
	if p := agg.Profile; p != nil {
		addr.City = listing.FirstNonEmpty(addr.City, p.City)
		addr.State = listing.FirstNonEmpty(addr.State, p.State)
		addr.Zip = p.Zip
	}
	return addr
}

// modelAddress prefers the community's model home; when none exists it
// falls back to the marketing profile's address fields.
func (b *Builder) modelAddress(agg *Aggregate) catalog.Address {
	if model := findModelHome(agg.Homes); model != nil && model.Address != "" {
		addr := catalog.Address{
			Street: model.Address,
			City:   agg.Community.City,
			State:  agg.Community.State,
		}
		if agg.Profile != nil {
			addr.Zip = agg.Profile.Zip
		}
		return addr
	}
	if p := agg.Profile; p != nil {
		return catalog.Address{Street: p.Address, City: p.City, State: p.State, Zip: p.Zip}
	}
	return catalog.Address{}
}

func (b *Builder) salesContact(agg *Aggregate) catalog.SalesContact {
	h := agg.Home
	contact := catalog.SalesContact{
		Name:  h.SalesContactName,
		Phone: h.SalesContactPhone,
		Email: h.SalesContactEmail,
	}
	if p := agg.Profile; p != nil {
		contact.Name = listing.FirstNonEmpty(contact.Name, p.SalesPerson)
		contact.Phone = listing.FirstNonEmpty(contact.Phone, p.SalesPersonPhone)
		contact.Email = listing.FirstNonEmpty(contact.Email, p.SalesPersonEmail)
	}
	return contact
}

func (b *Builder) builderRef(agg *Aggregate) catalog.Builder {
	if agg.Company == nil {
		return catalog.Builder{}
	}
	slug := agg.Company.Slug
	if slug == "" {
		slug = Slugify(agg.Company.Name)
	}
	return catalog.Builder{Name: agg.Company.Name, Slug: slug}
}

func (b *Builder) resolveURL(path string) string {
	if path == "" {
		return ""
	}
	return b.urls.PublicURL(path)
}

func findModelHome(homes []listing.Home) *listing.Home {
	for i := range homes {
		if homes[i].IsModelHome() {
			return &homes[i]
		}
	}
	return nil
}

var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases the input, strips diacritics, collapses every run of
// non-alphanumeric characters to a single hyphen, and trims leading and
// trailing hyphens.
func Slugify(s string) string {
	if folded, _, err := transform.String(diacritics, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var sb strings.Builder
	sb.Grow(len(s))
	lastHyphen := true
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			sb.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

// ExtractIncentives splits free-text promotional fields on newlines and
// semicolons, trims each fragment, and deduplicates while preserving
// first-seen order.
func ExtractIncentives(texts ...string) []string {
	var out []string
	for _, text := range texts {
		for _, part := range strings.FieldsFunc(text, func(r rune) bool {
			return r == '\n' || r == '\r' || r == ';'
		}) {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return dedupeStrings(out)
}

func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func decimalToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
