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

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDocumentRepository implements the DocumentRepository interface.
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(config *postgres.RepositoryConfig) contentRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Get retrieves a document by its (slug, document id) key.
func (r *PostgresDocumentRepository) Get(ctx context.Context, slug, documentID string) (*models.NamedDocument, error) {
	query := fmt.Sprintf(`
		SELECT slug, document_id, profile, content_json, content_html, updated_at
		FROM %s
		WHERE slug = $1 AND document_id = $2
	`, r.tables.Documents)

	var doc models.NamedDocument
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, slug, documentID).Scan(
		&doc.Slug,
		&doc.DocumentID,
		&doc.Profile,
		&doc.ContentJSON,
		&doc.ContentHTML,
		&doc.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s/%s: %w", slug, documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// Upsert inserts or overwrites the document row by its unique key.
func (r *PostgresDocumentRepository) Upsert(ctx context.Context, doc *models.NamedDocument) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (slug, document_id, profile, content_json, content_html, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug, document_id) DO UPDATE SET
			profile = EXCLUDED.profile,
			content_json = EXCLUDED.content_json,
			content_html = EXCLUDED.content_html,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Slug,
		doc.DocumentID,
		doc.Profile,
		string(doc.ContentJSON),
		doc.ContentHTML,
		time.Now().UTC(),
	).Scan(&doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert document %s/%s: %w", doc.Slug, doc.DocumentID, err)
	}

	return nil
}
