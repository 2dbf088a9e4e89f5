package vectorstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tenderbharat/docvector/internal/core"
	"github.com/tenderbharat/docvector/internal/models"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// Store persists embedding records and the per-document completion flag on
// Postgres with pgvector.
type Store struct {
	db *sql.DB
}

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("vector database URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping vector db: %w", err)
	}

	if err := ensureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap vector db: %w", err)
	}

	return &Store{db: db}, nil
}

func ensureBootstrapped(ctx context.Context, db *sql.DB) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'vectorstore_meta'
		)`).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("meta table check failed: %w", err)
	}
	if exists {
		return nil
	}

	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}
	tx, err := db.BeginTx(ctxBoot, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctxBoot, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsDocumentComplete reports whether the completion flag was set for this
// document on a prior run.
func (s *Store) IsDocumentComplete(ctx context.Context, tenderID, documentName string) (bool, error) {
	const q = `
		SELECT complete FROM tender_documents
		WHERE tender_id = $1 AND document_name = $2
	`
	var complete bool
	err := s.db.QueryRowContext(ctx, q, tenderID, documentName).Scan(&complete)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("completion check %s/%s: %w", tenderID, documentName, err)
	}
	return complete, nil
}

// DeleteDocumentEmbeddings removes partial chunks left by an interrupted
// run. A retried document must never accumulate duplicates.
func (s *Store) DeleteDocumentEmbeddings(ctx context.Context, tenderID, documentName string) error {
	const q = `
		DELETE FROM tender_doc_chunks
		WHERE tender_id = $1 AND document_name = $2
	`
	if _, err := s.db.ExecContext(ctx, q, tenderID, documentName); err != nil {
		return fmt.Errorf("delete partial embeddings %s/%s: %w", tenderID, documentName, err)
	}
	return nil
}

// InsertEmbeddings inserts records in a single transaction.
func (s *Store) InsertEmbeddings(ctx context.Context, records []models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO tender_doc_chunks
			(id, tender_id, document_name, page, position, sub_position, kind, is_scanned, text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		vec := pgvector.NewVector(r.Embedding)

		if _, err := stmt.ExecContext(ctx,
			r.ID, r.TenderID, r.DocumentName, r.Page, r.Position, r.SubPosition,
			string(r.Kind), r.IsScanned, r.Text, vec,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert embedding %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// MarkDocumentComplete upserts the completion flag. Idempotent.
func (s *Store) MarkDocumentComplete(ctx context.Context, tenderID, documentName string) error {
	const q = `
		INSERT INTO tender_documents (tender_id, document_name, complete, updated_at)
		VALUES ($1, $2, TRUE, now())
		ON CONFLICT (tender_id, document_name)
		DO UPDATE SET complete = TRUE, updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, q, tenderID, documentName); err != nil {
		return fmt.Errorf("mark complete %s/%s: %w", tenderID, documentName, err)
	}
	return nil
}

var _ core.VectorStore = (*Store)(nil)
