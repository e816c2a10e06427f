package config

const (
	// MaxTitleLength bounds page and item titles. Fits VARCHAR(255) and
	// keeps headings usable in list layouts.
	MaxTitleLength = 255

	// MaxSlugLength bounds page slugs.
	MaxSlugLength = 100

	// MaxSectionsPerPage bounds one submission's section list.
	MaxSectionsPerPage = 50

	// MaxItemsPerCollection bounds one page's activities or events.
	MaxItemsPerCollection = 200
)
