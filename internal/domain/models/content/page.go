package content

import (
	"encoding/json"
	"time"
)

// PageStatus is the lifecycle state of one page version.
type PageStatus string

const (
	// StatusPreview versions are created by admin saves and visible only
	// through the authenticated preview view.
	StatusPreview PageStatus = "preview"
	// StatusPublished is held by at most one version per slug at a time.
	StatusPublished PageStatus = "published"
)

// Section kinds. Custom kinds are allowed; these are the ones the site's
// templates know about.
const (
	SectionWelcome    = "welcome"
	SectionActivities = "activities"
	SectionEvents     = "events"
)

// ItemKind distinguishes the two ordered collections a page can carry.
type ItemKind string

const (
	ItemActivity ItemKind = "activity"
	ItemEvent    ItemKind = "event"
)

// Page is one version of a logical page. (Slug, Version) is unique across
// both statuses; Version is assigned at preview-save time and never reused,
// and publishing copies a preview snapshot without changing its number.
type Page struct {
	ID               string     `json:"id" db:"id"`
	Slug             string     `json:"slug" db:"slug"`
	Version          int        `json:"version" db:"version"`
	Status           PageStatus `json:"status" db:"status"`
	Title            string     `json:"title" db:"title"`
	HeroImageKey     string     `json:"hero_image_key,omitempty" db:"hero_image_key"` // blob store key, not bytes
	DonateEnabled    bool       `json:"donate_enabled" db:"donate_enabled"`
	ActivitiesLayout string     `json:"activities_layout,omitempty" db:"activities_layout"`
	EventsHidePast   bool       `json:"events_hide_past" db:"events_hide_past"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`

	Sections   []Section      `json:"sections,omitempty"`
	Activities []ActivityItem `json:"activities,omitempty"`
	Events     []EventItem    `json:"events,omitempty"`
}

// Section is one ordered block of a page. It carries either inline content
// or a reference to a NamedDocument; it never owns the document's lifecycle.
type Section struct {
	ID          string          `json:"id" db:"id"`
	PageID      string          `json:"page_id" db:"page_id"`
	Kind        string          `json:"kind" db:"kind"`
	Pos         int             `json:"pos" db:"pos"`
	ContentHTML string          `json:"content_html,omitempty" db:"content_html"`
	ContentJSON json.RawMessage `json:"content_json,omitempty" db:"content_json"`
	ContentID   string          `json:"content_id,omitempty" db:"content_id"`
}

// ActivityItem is an ordered child record of a page. Render order follows
// Pos ascending, ties broken by ID.
type ActivityItem struct {
	ID              string `json:"id" db:"id"`
	PageID          string `json:"page_id" db:"page_id"`
	Title           string `json:"title" db:"title"`
	Pos             int    `json:"pos" db:"pos"`
	DescriptionID   string `json:"description_id,omitempty" db:"description_id"`
	DescriptionHTML string `json:"description_html,omitempty" db:"description_html"`
}

// EventItem is an ActivityItem with a date.
type EventItem struct {
	ID              string    `json:"id" db:"id"`
	PageID          string    `json:"page_id" db:"page_id"`
	Title           string    `json:"title" db:"title"`
	Pos             int       `json:"pos" db:"pos"`
	StartDate       time.Time `json:"start_date" db:"start_date"`
	DescriptionID   string    `json:"description_id,omitempty" db:"description_id"`
	DescriptionHTML string    `json:"description_html,omitempty" db:"description_html"`
}
