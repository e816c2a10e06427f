package content

import (
	"context"
	"encoding/json"

	"parishcms/internal/domain/models/content"
)

// SaveService is the save coordinator: it accepts one aggregate admin
// submission and commits it as a single atomic preview snapshot, plus the
// in-place item sub-operations against the current preview version.
type SaveService interface {
	// SavePage validates the whole command, then atomically upserts every
	// named sub-document (freshly rendered; client HTML is ignored),
	// inserts a new preview page version, and inserts its sections and
	// items. Any failure aborts the whole save with no version consumed.
	SavePage(ctx context.Context, cmd *SaveCommand) (*SaveResult, error)

	// AddItem appends one item to the current preview page at
	// pos = current item count.
	AddItem(ctx context.Context, cmd *AddItemCommand) (itemID string, err error)

	// DeleteItem removes one item from its preview page.
	DeleteItem(ctx context.Context, kind content.ItemKind, itemID string) error

	// ReorderItems rewrites pos for exactly the supplied ids, in the
	// supplied order, starting at 0.
	ReorderItems(ctx context.Context, pageID string, kind content.ItemKind, ids []string) error
}

// SaveCommand is the aggregate submission for one page: page-level fields,
// the ordered section list, the ordered item collections, and every named
// sub-document keyed by document id. It is validated as one unit before any
// store mutation, so a partial save is structurally impossible.
type SaveCommand struct {
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	HeroImageKey     string `json:"hero_image_key,omitempty"`
	DonateEnabled    bool   `json:"donate_enabled"`
	ActivitiesLayout string `json:"activities_layout,omitempty"`
	EventsHidePast   bool   `json:"events_hide_past"`

	Sections   []SectionInput `json:"sections"`
	Activities []ItemInput    `json:"activities,omitempty"`
	Events     []ItemInput    `json:"events,omitempty"`

	// Documents maps document id to its submitted structured JSON. Any
	// content_html the client sent alongside is informational only and is
	// dropped before the command reaches the service.
	Documents map[string]DocumentInput `json:"documents,omitempty"`
}

// SectionInput is one ordered section of the submission. Either inline
// content or a document reference.
type SectionInput struct {
	Kind        string          `json:"kind"`
	Pos         int             `json:"pos"`
	ContentHTML string          `json:"content_html,omitempty"`
	ContentJSON json.RawMessage `json:"content_json,omitempty"`
	ContentID   string          `json:"content_id,omitempty"`
}

// ItemInput is one ordered activity/event entry. StartDate is only
// meaningful for events (format 2006-01-02).
type ItemInput struct {
	Title         string `json:"title"`
	Pos           int    `json:"pos"`
	StartDate     string `json:"start_date,omitempty"`
	DescriptionID string `json:"description_id,omitempty"`
	// Description holds inline markup for items without a sub-document;
	// it is sanitized before persisting.
	Description string `json:"description,omitempty"`
}

// DocumentInput is one named sub-document in the submission.
type DocumentInput struct {
	Profile     string          `json:"profile"`
	ContentJSON json.RawMessage `json:"content_json"`
}

// AddItemCommand appends a single item to an existing preview page.
type AddItemCommand struct {
	PageID        string           `json:"page_id"`
	Kind          content.ItemKind `json:"kind"`
	Title         string           `json:"title"`
	StartDate     string           `json:"start_date,omitempty"`
	DescriptionID string           `json:"description_id,omitempty"`
	Description   string           `json:"description,omitempty"`
}
