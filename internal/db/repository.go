package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
)

// Repository persists items and custom categories in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an initialized database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying database handle.
func (r *Repository) DB() *sql.DB {
	return r.db
}

const upsertItemSQL = `
	INSERT INTO items (
		id, kind, title, text, category, color_label, color_hex,
		display_order, source_platform, source_items_json, pending,
		fingerprint, text_chars, tokens_estimate, capture_seq, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		title = excluded.title,
		text = excluded.text,
		category = excluded.category,
		color_label = excluded.color_label,
		color_hex = excluded.color_hex,
		display_order = excluded.display_order,
		source_platform = excluded.source_platform,
		source_items_json = excluded.source_items_json,
		pending = excluded.pending,
		fingerprint = excluded.fingerprint,
		text_chars = excluded.text_chars,
		tokens_estimate = excluded.tokens_estimate,
		capture_seq = excluded.capture_seq,
		updated_at = excluded.updated_at
`

// Apply writes a changeset in one transaction. Either every row change is
// committed or none is.
func (r *Repository) Apply(ctx context.Context, cs *item.Changeset) error {
	if cs == nil || cs.Empty() {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range cs.Deletes {
		if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
			return errors.NewInternal(err)
		}
	}

	if len(cs.Upserts) > 0 {
		stmt, err := tx.PrepareContext(ctx, upsertItemSQL)
		if err != nil {
			return errors.NewInternal(err)
		}
		defer stmt.Close()

		for _, it := range cs.Upserts {
			if err := upsertItem(ctx, stmt, it); err != nil {
				return err
			}
		}
	}

	now := time.Now().Unix()
	for _, c := range cs.Categories {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO categories (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
			string(c), now,
		); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func upsertItem(ctx context.Context, stmt *sql.Stmt, it *item.Item) error {
	var sourceItems sql.NullString
	if len(it.SourceItems) > 0 {
		data, err := json.Marshal(it.SourceItems)
		if err != nil {
			return errors.NewInternal(err)
		}
		sourceItems = sql.NullString{String: string(data), Valid: true}
	}

	_, err := stmt.ExecContext(ctx,
		it.ID, string(it.Kind), it.Title, it.Text, string(it.Category),
		toNullString(nonEmpty(it.Color.Label)), toNullString(nonEmpty(it.Color.Hex)),
		it.Order, toNullString(it.SourcePlatform), sourceItems, boolToInt(it.Pending),
		it.Fingerprint, it.TextChars, it.TokensEstimate, it.CaptureSeq, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("upsert item %s: %w", it.ID, err))
	}
	return nil
}

// LoadAll returns every item ordered by creation (oldest first).
func (r *Repository) LoadAll(ctx context.Context) ([]*item.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, title, text, category, color_label, color_hex,
			display_order, source_platform, source_items_json, pending,
			fingerprint, text_chars, tokens_estimate, capture_seq, created_at, updated_at
		FROM items
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return items, nil
}

// LoadCategories returns custom categories in registration order.
func (r *Repository) LoadCategories(ctx context.Context) ([]item.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM categories ORDER BY created_at ASC, rowid ASC")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var cats []item.Category
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.NewInternal(err)
		}
		cats = append(cats, item.Category(name))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return cats, nil
}

func scanItem(rows *sql.Rows) (*item.Item, error) {
	var (
		it          item.Item
		kind        string
		category    string
		colorLabel  sql.NullString
		colorHex    sql.NullString
		platform    sql.NullString
		sourceItems sql.NullString
		pending     int
	)

	err := rows.Scan(
		&it.ID, &kind, &it.Title, &it.Text, &category, &colorLabel, &colorHex,
		&it.Order, &platform, &sourceItems, &pending,
		&it.Fingerprint, &it.TextChars, &it.TokensEstimate, &it.CaptureSeq, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	it.Kind = item.Kind(kind)
	it.Category = item.Category(category)
	it.Color = item.Color{Label: colorLabel.String, Hex: colorHex.String}
	it.SourcePlatform = fromNullString(platform)
	it.Pending = pending != 0

	if sourceItems.Valid && sourceItems.String != "" {
		if err := json.Unmarshal([]byte(sourceItems.String), &it.SourceItems); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("item %s: source_items_json: %w", it.ID, err))
		}
	}

	return &it, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
