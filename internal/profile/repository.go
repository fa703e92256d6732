package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no document exists for the requested id.
var ErrNotFound = errors.New("profile: document not found")

// Repository persists user documents in the hosted document store.
type Repository interface {
	Get(ctx context.Context, id string) (Document, error)
	Create(ctx context.Context, doc Document) error
	Merge(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
	// QueryWithPhotos returns every document whose profile sub-object has
	// hasPhotos true and a positive photoCount. Viewer exclusion is a
	// post-filter owned by the caller, not part of the query.
	QueryWithPhotos(ctx context.Context) ([]Document, error)
}

// PostgresRepository implements Repository using PostgreSQL, with the profile
// sub-object stored as JSONB.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed profile repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches one document by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Document, error) {
	row := r.db.QueryRow(ctx, `SELECT id, phone_number, name, created_at, last_login_at, profile
        FROM users WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// Create inserts a new document.
func (r *PostgresRepository) Create(ctx context.Context, doc Document) error {
	sub, err := marshalSub(doc.Profile)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, phone_number, name, created_at, last_login_at, profile)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.PhoneNumber, doc.Name, doc.CreatedAt.UTC(), doc.LastLoginAt.UTC(), sub)
	return err
}

// Merge applies the non-nil fields of patch without disturbing the rest.
func (r *PostgresRepository) Merge(ctx context.Context, id string, patch Patch) error {
	sub, err := marshalSub(patch.Profile)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
        name = COALESCE($2, name),
        last_login_at = COALESCE($3, last_login_at),
        profile = COALESCE($4, profile)
        WHERE id = $1`,
		id, patch.Name, patch.LastLoginAt, sub)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// QueryWithPhotos runs the listing predicate against the JSONB sub-object.
func (r *PostgresRepository) QueryWithPhotos(ctx context.Context) ([]Document, error) {
	rows, err := r.db.Query(ctx, `SELECT id, phone_number, name, created_at, last_login_at, profile
        FROM users
        WHERE (profile->>'hasPhotos')::boolean IS TRUE
          AND COALESCE((profile->>'photoCount')::int, 0) > 0`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc Document
		sub []byte
	)
	if err := row.Scan(&doc.ID, &doc.PhoneNumber, &doc.Name, &doc.CreatedAt, &doc.LastLoginAt, &sub); err != nil {
		return Document{}, err
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.LastLoginAt = doc.LastLoginAt.UTC()
	if len(sub) > 0 {
		var parsed Sub
		if err := json.Unmarshal(sub, &parsed); err != nil {
			return Document{}, fmt.Errorf("decode profile sub-object: %w", err)
		}
		doc.Profile = &parsed
	}
	return doc, nil
}

func marshalSub(sub *Sub) ([]byte, error) {
	if sub == nil {
		return nil, nil
	}
	return json.Marshal(sub)
}
