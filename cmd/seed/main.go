// Command seed prepares the database schema and loads demo data for
// local development.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"guidewell/internal/config"
	"guidewell/internal/domain/models"
	"guidewell/internal/repository/postgres"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	demoUser := flag.String("user", "00000000-0000-0000-0000-000000000001", "User ID to own the demo chat")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: never drop production tables from the seed tool
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

	if err := seedLibrary(ctx, repoConfig); err != nil {
		log.Fatalf("Failed to seed library: %v", err)
	}
	if err := seedDemoChat(ctx, repoConfig, *demoUser); err != nil {
		log.Fatalf("Failed to seed demo chat: %v", err)
	}

	log.Println("Seeding complete")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Chats + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL,
			title TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Results + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			chat_id UUID NOT NULL REFERENCES ` + tables.Chats + `(id) ON DELETE CASCADE,
			query TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error TEXT,
			model TEXT,
			attachment_name TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			parent_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'raw',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ,
			UNIQUE(parent_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Content + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			folder_id UUID NOT NULL REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'raw',
			reviewer TEXT,
			price TEXT,
			file_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(folder_id, title)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.ContentMessages + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			content_id UUID NOT NULL REFERENCES ` + tables.Content + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'raw',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Ratings + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			result_id UUID NOT NULL REFERENCES ` + tables.Results + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			vote TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(result_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Reports + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			result_id UUID NOT NULL REFERENCES ` + tables.Results + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			report TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chats_user ON ` + tables.Chats + `(user_id) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `results_chat ON ` + tables.Results + `(chat_id, created_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_root_unique ON ` + tables.Folders + `(name) WHERE parent_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `content_folder ON ` + tables.Content + `(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `content_messages_content ON ` + tables.ContentMessages + `(content_id, created_at)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	// Children first
	drops := []string{
		tables.Reports,
		tables.Ratings,
		tables.ContentMessages,
		tables.Content,
		tables.Folders,
		tables.Results,
		tables.Chats,
	}
	for _, table := range drops {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}

// seedLibrary loads a small curated library: two folders, nested topics,
// and message threads.
func seedLibrary(ctx context.Context, repoConfig *postgres.RepositoryConfig) error {
	folderRepo := postgres.NewFolderRepository(repoConfig)
	contentRepo := postgres.NewContentRepository(repoConfig)

	now := time.Now()

	gut := &models.Folder{
		ID:        uuid.NewString(),
		Name:      "Gut Health",
		Status:    models.StatusLive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := folderRepo.Create(ctx, gut); err != nil {
		return err
	}

	diet := &models.Folder{
		ID:        uuid.NewString(),
		ParentID:  &gut.ID,
		Name:      "Diet",
		Status:    models.StatusReadyForReview,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := folderRepo.Create(ctx, diet); err != nil {
		return err
	}

	sleep := &models.Folder{
		ID:        uuid.NewString(),
		Name:      "Sleep",
		Status:    models.StatusRaw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := folderRepo.Create(ctx, sleep); err != nil {
		return err
	}

	reviewer := "Dr. Alvarez"
	price := "free"

	overview := &models.Content{
		ID:        uuid.NewString(),
		FolderID:  gut.ID,
		Title:     "IBS Overview",
		Body:      "Irritable bowel syndrome is a common disorder of the gut-brain axis.",
		Status:    models.StatusLive,
		Reviewer:  &reviewer,
		Price:     &price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := contentRepo.Create(ctx, overview); err != nil {
		return err
	}

	fodmap := &models.Content{
		ID:        uuid.NewString(),
		FolderID:  diet.ID,
		Title:     "Low FODMAP Basics",
		Body:      "The low FODMAP diet restricts fermentable carbohydrates in three phases.",
		Status:    models.StatusReadyForReview,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := contentRepo.Create(ctx, fodmap); err != nil {
		return err
	}

	messages := []models.ContentMessage{
		{
			ID:        uuid.NewString(),
			ContentID: fodmap.ID,
			Title:     "Elimination phase",
			Body:      "Remove high-FODMAP foods for 2-6 weeks.",
			Status:    models.StatusReadyForReview,
			CreatedAt: now,
		},
		{
			ID:        uuid.NewString(),
			ContentID: fodmap.ID,
			Title:     "Reintroduction phase",
			Body:      "Reintroduce one FODMAP group at a time.",
			Status:    models.StatusRaw,
			CreatedAt: now.Add(time.Second),
		},
	}
	if err := contentRepo.CreateMessages(ctx, messages); err != nil {
		return err
	}

	log.Println("Library seeded: 3 folders, 2 content items")
	return nil
}

// seedDemoChat loads one chat with a completed exchange.
func seedDemoChat(ctx context.Context, repoConfig *postgres.RepositoryConfig, userID string) error {
	chatRepo := postgres.NewChatRepository(repoConfig)
	resultRepo := postgres.NewResultRepository(repoConfig)

	now := time.Now()

	chat := &models.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     "what is IBS?",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := chatRepo.CreateChat(ctx, chat); err != nil {
		return err
	}

	result := &models.Result{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		Query:     "what is IBS?",
		Status:    models.ResultStatusStreaming,
		CreatedAt: now,
	}
	if err := resultRepo.CreateResult(ctx, result); err != nil {
		return err
	}

	answer := "IBS is a condition affecting the large intestine, often managed with diet and stress reduction."
	if err := resultRepo.FinishResult(ctx, result.ID, answer, models.ResultStatusComplete, nil, "lorem-fast"); err != nil {
		return err
	}

	log.Printf("Demo chat seeded for user %s", userID)
	return nil
}
