// Package database persists the daemon's render history with Bun over
// sqlite.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/drummonds/pdfview/config"
	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// RenderRecord is one completed render, as stored in the renders table
type RenderRecord struct {
	bun.BaseModel `bun:"table:renders,alias:r"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ULID       string    `bun:"ulid,notnull,unique"`
	DocumentID string    `bun:"document_id,notnull"`
	PageNumber int       `bun:"page_number,notnull"`
	Format     string    `bun:"format,notnull"`
	Width      int       `bun:"width,notnull"`
	Height     int       `bun:"height,notnull"`
	DurationMS int64     `bun:"duration_ms,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// History records completed renders and serves them back for the stats
// endpoint
type History interface {
	Record(record *RenderRecord) error
	Recent(limit int) ([]RenderRecord, error)
	Close() error
}

// BunHistory implements History using Bun ORM over sqlite
type BunHistory struct {
	db *bun.DB
}

// NewHistory initializes the render-history database based on configuration
func NewHistory(serverConfig config.ServerConfig) (*BunHistory, error) {
	dbName := serverConfig.HistoryDbname
	if dbName == "" {
		dbName = "databases/renders.sqlite"
	}

	if dbName != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbName), os.ModePerm); err != nil {
			return nil, fmt.Errorf("unable to create folder for databases: %w", err)
		}
	}

	// eg "file:databases/renders.sqlite?cache=shared&mode=rwc"
	connectionString := fmt.Sprintf("file:%s?cache=shared&mode=rwc", dbName)
	sqlDB, err := sql.Open(sqliteshim.ShimName, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	// Option to turn on verbose logging just returns failures otherwise
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(serverConfig.HistoryVerbose)))

	if _, err := db.NewCreateTable().
		Model((*RenderRecord)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create renders table: %w", err)
	}

	Logger.Info("Connected to render history database", "name", dbName)
	return &BunHistory{db: db}, nil
}

// Close closes the database connection
func (h *BunHistory) Close() error {
	if h.db != nil {
		if err := h.db.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Record saves one completed render
func (h *BunHistory) Record(record *RenderRecord) error {
	if record.ULID == "" {
		record.ULID = ulid.Make().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := h.db.NewInsert().
		Model(record).
		Exec(context.Background())
	if err != nil {
		return fmt.Errorf("failed to save render record: %w", err)
	}
	return nil
}

// Recent returns the newest renders, most recent first
func (h *BunHistory) Recent(limit int) ([]RenderRecord, error) {
	var records []RenderRecord
	err := h.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Scan(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch render history: %w", err)
	}
	return records, nil
}
