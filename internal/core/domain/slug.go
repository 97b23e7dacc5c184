package domain

import "strings"

// EntityType names the kind of content a slug can address.
type EntityType string

const (
	EntityPlace      EntityType = "place"
	EntityEvent      EntityType = "event"
	EntityStaticPage EntityType = "static_page"
	EntityLegalPage  EntityType = "legal_page"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityPlace, EntityEvent, EntityStaticPage, EntityLegalPage:
		return true
	}
	return false
}

// EntityRef identifies a single addressable entity.
type EntityRef struct {
	Type EntityType `json:"entity_type"`
	ID   string     `json:"entity_id"`
}

// EntityOwner is where an entity lives. PlaceID is set for places (their own
// ID) and for events hosted by a place; site-level pages have none.
type EntityOwner struct {
	SiteKey string
	PlaceID string
}

// Triple is the human-facing address of an entity: /{lang}/{site}/{slug}.
type Triple struct {
	Lang    string `json:"lang"`
	SiteKey string `json:"site_key"`
	Slug    string `json:"slug"`
}

// Normalize trims every component and lower-cases lang and site key. Slugs
// keep their case; they are compared byte for byte.
func (t Triple) Normalize() Triple {
	return Triple{
		Lang:    strings.ToLower(strings.TrimSpace(t.Lang)),
		SiteKey: strings.ToLower(strings.TrimSpace(t.SiteKey)),
		Slug:    strings.TrimSpace(t.Slug),
	}
}

// Complete reports whether every component is non-empty.
func (t Triple) Complete() bool {
	return t.Lang != "" && t.SiteKey != "" && t.Slug != ""
}

// SlugBinding is one name an entity has (or had) in a language on a site.
// Renames demote the previous canonical binding instead of deleting it, so
// old URLs keep redirecting.
type SlugBinding struct {
	Triple      Triple    `json:"triple"`
	Entity      EntityRef `json:"entity"`
	IsCanonical bool      `json:"is_canonical"`
}

// ResolutionResult is what resolving a triple yields. It is derived, never stored.
type ResolutionResult struct {
	EntityType    EntityType `json:"entity_type"`
	Entity        EntityRef  `json:"entity"`
	Canonical     Triple     `json:"canonical"`
	NeedsRedirect bool       `json:"needs_redirect"`
}
