package testutil

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cbsistema/cbsistema-backend/migrations"
	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// TestSchema is an isolated, fully migrated schema owned by one test.
type TestSchema struct {
	Name string
	DB   *database.DB
}

// SchemaManager creates and drops per-test schemas. Every schema carries
// the full migration set, so tests never see each other's rows or sequences.
type SchemaManager struct {
	admin   *sqlx.DB
	baseDSN string
	logger  *logger.Logger
	schemas []*TestSchema
	mu      sync.Mutex
}

// NewSchemaManager creates a manager using admin for DDL and baseDSN
// (a postgres:// URL) for per-schema connections.
func NewSchemaManager(admin *sqlx.DB, baseDSN string, log *logger.Logger) *SchemaManager {
	return &SchemaManager{
		admin:   admin,
		baseDSN: baseDSN,
		logger:  log,
	}
}

// Create makes a new schema named after prefix, applies the migrations, and
// returns a connection whose search_path points at it.
func (sm *SchemaManager) Create(ctx context.Context, prefix string) (*TestSchema, error) {
	slug := unsafeIdent.ReplaceAllString(strings.ToLower(prefix), "_")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	name := fmt.Sprintf("test_%s_%s", slug, uuid.New().String()[:8])

	if _, err := sm.admin.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA %s", name)); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	sep := "?"
	if strings.Contains(sm.baseDSN, "?") {
		sep = "&"
	}
	db, err := database.NewWithDSN(sm.baseDSN+sep+"search_path="+name, sm.logger)
	if err != nil {
		return nil, err
	}

	if _, err := migrations.Apply(ctx, db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema %s: %w", name, err)
	}

	s := &TestSchema{Name: name, DB: db}

	sm.mu.Lock()
	sm.schemas = append(sm.schemas, s)
	sm.mu.Unlock()

	return s, nil
}

// Drop closes the schema connection and removes the schema.
func (sm *SchemaManager) Drop(ctx context.Context, s *TestSchema) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s.DB.Close()
	if _, err := sm.admin.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", s.Name)); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	for i, tracked := range sm.schemas {
		if tracked == s {
			sm.schemas = append(sm.schemas[:i], sm.schemas[i+1:]...)
			break
		}
	}
	return nil
}

// Cleanup drops every schema this manager still tracks.
func (sm *SchemaManager) Cleanup(ctx context.Context) error {
	sm.mu.Lock()
	schemas := append([]*TestSchema(nil), sm.schemas...)
	sm.mu.Unlock()

	var lastErr error
	for _, s := range schemas {
		if err := sm.Drop(ctx, s); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
