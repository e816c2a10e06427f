package content

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parishcms/internal/domain"
	models "parishcms/internal/domain/models/content"
	contentRepo "parishcms/internal/domain/repositories/content"
	"parishcms/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pageColumns = "id, slug, version, status, title, hero_image_key, donate_enabled, activities_layout, events_hide_past, created_at"

// PostgresPageRepository implements the PageRepository interface.
type PostgresPageRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewPageRepository creates a new page repository.
func NewPageRepository(config *postgres.RepositoryConfig) contentRepo.PageRepository {
	return &PostgresPageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// InsertVersion inserts a new preview row, computing the next version for
// the slug inside the statement. The preview-scoped (slug, version) unique
// index turns a lost race into domain.ErrVersionConflict for the caller to
// retry; published copies share their source version and sit outside it.
func (r *PostgresPageRepository) InsertVersion(ctx context.Context, page *models.Page) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%s)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, $6, $7, $8, $9
		FROM %[1]s WHERE slug = $2
		RETURNING id, version, created_at
	`, r.tables.Pages, pageColumns)

	id := uuid.NewString()
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		id,
		page.Slug,
		string(models.StatusPreview),
		page.Title,
		page.HeroImageKey,
		page.DonateEnabled,
		page.ActivitiesLayout,
		page.EventsHidePast,
		time.Now().UTC(),
	).Scan(&page.ID, &page.Version, &page.CreatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("version race on slug %q: %w", page.Slug, domain.ErrVersionConflict)
		}
		return fmt.Errorf("insert page version: %w", err)
	}

	page.Status = models.StatusPreview
	return nil
}

// InsertCopy inserts a page row with an explicit version and status. Used by
// publish to duplicate a preview snapshot under the same version number.
func (r *PostgresPageRepository) InsertCopy(ctx context.Context, page *models.Page) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Pages, pageColumns)

	page.ID = uuid.NewString()
	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		page.ID,
		page.Slug,
		page.Version,
		string(page.Status),
		page.Title,
		page.HeroImageKey,
		page.DonateEnabled,
		page.ActivitiesLayout,
		page.EventsHidePast,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert page copy: %w", err)
	}
	return nil
}

// DeletePublished removes the published row set for a slug. Section and
// item rows go with the page row via ON DELETE CASCADE.
func (r *PostgresPageRepository) DeletePublished(ctx context.Context, slug string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE slug = $1 AND status = $2`, r.tables.Pages)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, slug, string(models.StatusPublished)); err != nil {
		return fmt.Errorf("delete published rows for %q: %w", slug, err)
	}
	return nil
}

// InsertSections inserts section rows for a page.
func (r *PostgresPageRepository) InsertSections(ctx context.Context, pageID string, sections []models.Section) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, page_id, kind, pos, content_html, content_json, content_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Sections)

	executor := postgres.GetExecutor(ctx, r.pool)
	for i := range sections {
		s := &sections[i]
		s.ID = uuid.NewString()
		s.PageID = pageID
		_, err := executor.Exec(ctx, query,
			s.ID, s.PageID, s.Kind, s.Pos, s.ContentHTML, string(s.ContentJSON), s.ContentID)
		if err != nil {
			return fmt.Errorf("insert section %d: %w", i, err)
		}
	}
	return nil
}

// InsertActivities inserts activity rows preserving submitted pos values.
func (r *PostgresPageRepository) InsertActivities(ctx context.Context, pageID string, items []models.ActivityItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, page_id, title, pos, description_id, description_html)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.ActivityItems)

	executor := postgres.GetExecutor(ctx, r.pool)
	for i := range items {
		it := &items[i]
		it.ID = uuid.NewString()
		it.PageID = pageID
		_, err := executor.Exec(ctx, query,
			it.ID, it.PageID, it.Title, it.Pos, it.DescriptionID, it.DescriptionHTML)
		if err != nil {
			return fmt.Errorf("insert activity item %d: %w", i, err)
		}
	}
	return nil
}

// InsertEvents inserts event rows preserving submitted pos values.
func (r *PostgresPageRepository) InsertEvents(ctx context.Context, pageID string, items []models.EventItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, page_id, title, pos, start_date, description_id, description_html)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.EventItems)

	executor := postgres.GetExecutor(ctx, r.pool)
	for i := range items {
		it := &items[i]
		it.ID = uuid.NewString()
		it.PageID = pageID
		_, err := executor.Exec(ctx, query,
			it.ID, it.PageID, it.Title, it.Pos, it.StartDate, it.DescriptionID, it.DescriptionHTML)
		if err != nil {
			return fmt.Errorf("insert event item %d: %w", i, err)
		}
	}
	return nil
}

// LatestPreview returns the highest preview version for a slug with its
// sections and items.
func (r *PostgresPageRepository) LatestPreview(ctx context.Context, slug string) (*models.Page, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE slug = $1 AND status = $2
		ORDER BY version DESC
		LIMIT 1
	`, pageColumns, r.tables.Pages)

	return r.queryPage(ctx, query, slug, string(models.StatusPreview))
}

// Published returns the unique published version for a slug with its
// sections and items.
func (r *PostgresPageRepository) Published(ctx context.Context, slug string) (*models.Page, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE slug = $1 AND status = $2
		LIMIT 1
	`, pageColumns, r.tables.Pages)

	return r.queryPage(ctx, query, slug, string(models.StatusPublished))
}

// ByID returns a page of any status with its sections and items.
func (r *PostgresPageRepository) ByID(ctx context.Context, pageID string) (*models.Page, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, pageColumns, r.tables.Pages)
	return r.queryPage(ctx, query, pageID)
}

func (r *PostgresPageRepository) queryPage(ctx context.Context, query string, args ...interface{}) (*models.Page, error) {
	var page models.Page
	var status string

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&page.ID,
		&page.Slug,
		&page.Version,
		&status,
		&page.Title,
		&page.HeroImageKey,
		&page.DonateEnabled,
		&page.ActivitiesLayout,
		&page.EventsHidePast,
		&page.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("page: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	page.Status = models.PageStatus(status)

	if err := r.loadChildren(ctx, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// loadChildren hydrates sections and items; all three lists come back in
// render order (pos ascending, id as tiebreak).
func (r *PostgresPageRepository) loadChildren(ctx context.Context, page *models.Page) error {
	executor := postgres.GetExecutor(ctx, r.pool)

	sectionQuery := fmt.Sprintf(`
		SELECT id, page_id, kind, pos, content_html, content_json, content_id
		FROM %s WHERE page_id = $1
		ORDER BY pos ASC, id ASC
	`, r.tables.Sections)

	rows, err := executor.Query(ctx, sectionQuery, page.ID)
	if err != nil {
		return fmt.Errorf("load sections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s models.Section
		var rawJSON string
		if err := rows.Scan(&s.ID, &s.PageID, &s.Kind, &s.Pos, &s.ContentHTML, &rawJSON, &s.ContentID); err != nil {
			return fmt.Errorf("scan section: %w", err)
		}
		if rawJSON != "" {
			s.ContentJSON = []byte(rawJSON)
		}
		page.Sections = append(page.Sections, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load sections: %w", err)
	}

	activityQuery := fmt.Sprintf(`
		SELECT id, page_id, title, pos, description_id, description_html
		FROM %s WHERE page_id = $1
		ORDER BY pos ASC, id ASC
	`, r.tables.ActivityItems)

	arows, err := executor.Query(ctx, activityQuery, page.ID)
	if err != nil {
		return fmt.Errorf("load activity items: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var it models.ActivityItem
		if err := arows.Scan(&it.ID, &it.PageID, &it.Title, &it.Pos, &it.DescriptionID, &it.DescriptionHTML); err != nil {
			return fmt.Errorf("scan activity item: %w", err)
		}
		page.Activities = append(page.Activities, it)
	}
	if err := arows.Err(); err != nil {
		return fmt.Errorf("load activity items: %w", err)
	}

	eventQuery := fmt.Sprintf(`
		SELECT id, page_id, title, pos, start_date, description_id, description_html
		FROM %s WHERE page_id = $1
		ORDER BY pos ASC, id ASC
	`, r.tables.EventItems)

	erows, err := executor.Query(ctx, eventQuery, page.ID)
	if err != nil {
		return fmt.Errorf("load event items: %w", err)
	}
	defer erows.Close()
	for erows.Next() {
		var it models.EventItem
		if err := erows.Scan(&it.ID, &it.PageID, &it.Title, &it.Pos, &it.StartDate, &it.DescriptionID, &it.DescriptionHTML); err != nil {
			return fmt.Errorf("scan event item: %w", err)
		}
		page.Events = append(page.Events, it)
	}
	if err := erows.Err(); err != nil {
		return fmt.Errorf("load event items: %w", err)
	}

	return nil
}

func (r *PostgresPageRepository) itemTable(kind models.ItemKind) (string, error) {
	switch kind {
	case models.ItemActivity:
		return r.tables.ActivityItems, nil
	case models.ItemEvent:
		return r.tables.EventItems, nil
	default:
		return "", fmt.Errorf("unknown item kind %q: %w", kind, domain.ErrValidation)
	}
}

// ItemCount returns the number of items of one kind on a page.
func (r *PostgresPageRepository) ItemCount(ctx context.Context, pageID string, kind models.ItemKind) (int, error) {
	table, err := r.itemTable(kind)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE page_id = $1`, table)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, pageID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// InsertActivity appends a single activity item.
func (r *PostgresPageRepository) InsertActivity(ctx context.Context, item *models.ActivityItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, page_id, title, pos, description_id, description_html)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.ActivityItems)

	item.ID = uuid.NewString()
	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		item.ID, item.PageID, item.Title, item.Pos, item.DescriptionID, item.DescriptionHTML)
	if err != nil {
		return fmt.Errorf("insert activity item: %w", err)
	}
	return nil
}

// InsertEvent appends a single event item.
func (r *PostgresPageRepository) InsertEvent(ctx context.Context, item *models.EventItem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, page_id, title, pos, start_date, description_id, description_html)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.EventItems)

	item.ID = uuid.NewString()
	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		item.ID, item.PageID, item.Title, item.Pos, item.StartDate, item.DescriptionID, item.DescriptionHTML)
	if err != nil {
		return fmt.Errorf("insert event item: %w", err)
	}
	return nil
}

// DeleteItem removes one item by id and reports the owning page.
func (r *PostgresPageRepository) ItemPage(ctx context.Context, kind models.ItemKind, itemID string) (string, error) {
	table, err := r.itemTable(kind)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf(`SELECT page_id FROM %s WHERE id = $1`, table)

	var pageID string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, itemID).Scan(&pageID); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return "", fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("look up item page: %w", err)
	}
	return pageID, nil
}

func (r *PostgresPageRepository) DeleteItem(ctx context.Context, kind models.ItemKind, itemID string) (string, error) {
	table, err := r.itemTable(kind)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING page_id`, table)

	var pageID string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, itemID).Scan(&pageID); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return "", fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("delete item: %w", err)
	}
	return pageID, nil
}

// ReorderItems rewrites pos for exactly the supplied ids, in the supplied
// order, starting at 0.
func (r *PostgresPageRepository) ReorderItems(ctx context.Context, pageID string, kind models.ItemKind, ids []string) error {
	table, err := r.itemTable(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET pos = $1 WHERE id = $2 AND page_id = $3`, table)

	executor := postgres.GetExecutor(ctx, r.pool)
	for pos, id := range ids {
		tag, err := executor.Exec(ctx, query, pos, id, pageID)
		if err != nil {
			return fmt.Errorf("reorder item %s: %w", id, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("item %s does not belong to page %s: %w", id, pageID, domain.ErrValidation)
		}
	}
	return nil
}
