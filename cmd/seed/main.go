package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"parishcms/internal/cache"
	"parishcms/internal/config"
	contentSvc "parishcms/internal/domain/services/content"
	"parishcms/internal/repository/postgres"
	postgresContent "parishcms/internal/repository/postgres/content"
	"parishcms/internal/richtext"
	serviceContent "parishcms/internal/service/content"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo content")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgresContent.NewDocumentRepository(repoConfig)
	pageRepo := postgresContent.NewPageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Seeding has no warm cache to invalidate.
	seedCache := cache.NewMemoryCache()

	docService := serviceContent.NewDocumentService(docRepo, logger)
	pageService := serviceContent.NewPageService(pageRepo, txManager, seedCache, logger)
	saveService := serviceContent.NewSaveService(pageRepo, docService, txManager, seedCache, logger)

	log.Println("Seeding demo landing page...")
	result, err := saveService.SavePage(ctx, landingPage())
	if err != nil {
		log.Fatalf("Failed to save landing page: %v", err)
	}
	log.Printf("Saved landing page (id: %s, version: %d)", result.PageID, result.Version)

	published, err := pageService.Publish(ctx, "landing")
	if err != nil {
		log.Fatalf("Failed to publish landing page: %v", err)
	}
	log.Printf("Published landing page (id: %s, version: %d)", published.PageID, published.Version)

	log.Println("Seeding complete")
}

// landingPage is the demo submission: a welcome section backed by a named
// document, an activities collection and an upcoming event.
func landingPage() *contentSvc.SaveCommand {
	welcome := map[string]interface{}{
		"type": "doc",
		"content": []map[string]interface{}{
			{"type": "header", "attrs": map[string]interface{}{"level": 1}, "text": "Welcome"},
			{"type": "paragraph", "text": "Welcome pilgrims and visitors to our parish."},
		},
	}
	welcomeJSON, _ := json.Marshal(welcome)

	return &contentSvc.SaveCommand{
		Slug:             "landing",
		Title:            "Our Parish",
		DonateEnabled:    true,
		ActivitiesLayout: "grid",
		EventsHidePast:   true,
		Sections: []contentSvc.SectionInput{
			{Kind: "welcome", Pos: 0, ContentID: "welcome-intro"},
			{Kind: "activities", Pos: 1},
			{Kind: "events", Pos: 2},
		},
		Activities: []contentSvc.ItemInput{
			{Title: "Choir", Pos: 0, Description: "<p>Rehearsals every Thursday evening.</p>"},
			{Title: "Youth group", Pos: 1, Description: "<p>Meets on the first Saturday of the month.</p>"},
		},
		Events: []contentSvc.ItemInput{
			{
				Title:       "Harvest festival",
				Pos:         0,
				StartDate:   time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
				Description: "<p>All are welcome.</p>",
			},
		},
		Documents: map[string]contentSvc.DocumentInput{
			"welcome-intro": {Profile: richtext.ProfileFull, ContentJSON: welcomeJSON},
		},
	}
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			slug TEXT NOT NULL,
			document_id TEXT NOT NULL,
			profile TEXT NOT NULL DEFAULT 'full',
			content_json JSONB NOT NULL,
			content_html TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (slug, document_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Pages + ` (
			id UUID PRIMARY KEY,
			slug TEXT NOT NULL,
			version INTEGER NOT NULL,
			status TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			hero_image_key TEXT NOT NULL DEFAULT '',
			donate_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			activities_layout TEXT NOT NULL DEFAULT '',
			events_hide_past BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Sections + ` (
			id UUID PRIMARY KEY,
			page_id UUID NOT NULL REFERENCES ` + tables.Pages + `(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			pos INTEGER NOT NULL,
			content_html TEXT NOT NULL DEFAULT '',
			content_json TEXT NOT NULL DEFAULT '',
			content_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.ActivityItems + ` (
			id UUID PRIMARY KEY,
			page_id UUID NOT NULL REFERENCES ` + tables.Pages + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			pos INTEGER NOT NULL,
			description_id TEXT NOT NULL DEFAULT '',
			description_html TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.EventItems + ` (
			id UUID PRIMARY KEY,
			page_id UUID NOT NULL REFERENCES ` + tables.Pages + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			pos INTEGER NOT NULL,
			start_date DATE NOT NULL,
			description_id TEXT NOT NULL DEFAULT '',
			description_html TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `pages_slug_status ON ` + tables.Pages + `(slug, status)`,
		// Version uniqueness is scoped to preview rows: a publish copies the
		// preview under the same version number, so the two must coexist.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `pages_preview_version ON ` + tables.Pages + `(slug, version) WHERE status = 'preview'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `pages_published ON ` + tables.Pages + `(slug) WHERE status = 'published'`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sections_page_pos ON ` + tables.Sections + `(page_id, pos)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `activity_items_page_pos ON ` + tables.ActivityItems + `(page_id, pos)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `event_items_page_pos ON ` + tables.EventItems + `(page_id, pos)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops children before parents.
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{
		tables.Sections,
		tables.ActivityItems,
		tables.EventItems,
		tables.Pages,
		tables.Documents,
	} {
		if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS `+table+` CASCADE`); err != nil {
			return err
		}
	}
	return nil
}
