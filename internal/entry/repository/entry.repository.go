package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"warta/internal/entry/model"
	"warta/pkg/logger"
)

const entryColumns = "id, title, slug, content, published, timestamp"

type EntryRepository struct {
	DB *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{DB: db}
}

// Create inserts the entry and fills in its assigned id.
// A slug collision maps to model.ErrDuplicateSlug.
func (r *EntryRepository) Create(e *model.Entry) error {
	err := r.DB.QueryRow(`INSERT INTO entries (title, slug, content, published, timestamp)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		e.Title, e.Slug, e.Content, e.Published, e.Timestamp).Scan(&e.ID)
	if isUniqueViolation(err) {
		return model.ErrDuplicateSlug
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to create entry %q: %v", e.Slug, err)
	}
	return err
}

// Update persists every field of an existing entry.
func (r *EntryRepository) Update(e *model.Entry) error {
	result, err := r.DB.Exec(`UPDATE entries SET title = $1, slug = $2, content = $3, published = $4, timestamp = $5
		WHERE id = $6`,
		e.Title, e.Slug, e.Content, e.Published, e.Timestamp, e.ID)
	if isUniqueViolation(err) {
		return model.ErrDuplicateSlug
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update entry %d: %v", e.ID, err)
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *EntryRepository) GetBySlug(slug string) (*model.Entry, error) {
	var e model.Entry
	err := r.DB.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE slug = $1`, slug).
		Scan(&e.ID, &e.Title, &e.Slug, &e.Content, &e.Published, &e.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get entry by slug %q: %v", slug, err)
		return nil, err
	}
	return &e, nil
}

// ListPublished returns published entries ordered by timestamp, newest first
// unless asc is set.
func (r *EntryRepository) ListPublished(asc bool) ([]model.Entry, error) {
	order := "DESC"
	if asc {
		order = "ASC"
	}
	rows, err := r.DB.Query(`SELECT ` + entryColumns + ` FROM entries WHERE published = TRUE ORDER BY timestamp ` + order)
	if err != nil {
		logger.Sugar.Errorf("Failed to list published entries: %v", err)
		return nil, err
	}
	return collectEntries(rows)
}

func (r *EntryRepository) ListDrafts() ([]model.Entry, error) {
	rows, err := r.DB.Query(`SELECT ` + entryColumns + ` FROM entries WHERE published = FALSE ORDER BY timestamp DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list draft entries: %v", err)
		return nil, err
	}
	return collectEntries(rows)
}

// GetPublishedByIDs fetches the published subset of the given ids, keyed by
// id so the caller can keep its own ordering (search results arrive in rank
// order).
func (r *EntryRepository) GetPublishedByIDs(ids []int64) (map[int64]model.Entry, error) {
	if len(ids) == 0 {
		return map[int64]model.Entry{}, nil
	}
	rows, err := r.DB.Query(`SELECT `+entryColumns+` FROM entries WHERE published = TRUE AND id = ANY($1)`, pq.Array(ids))
	if err != nil {
		logger.Sugar.Errorf("Failed to get entries by ids: %v", err)
		return nil, err
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	return byID, nil
}

// ListAll returns every entry, drafts included. Used by the reindex pass.
func (r *EntryRepository) ListAll() ([]model.Entry, error) {
	rows, err := r.DB.Query(`SELECT ` + entryColumns + ` FROM entries ORDER BY id`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list all entries: %v", err)
		return nil, err
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]model.Entry, error) {
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.Title, &e.Slug, &e.Content, &e.Published, &e.Timestamp); err != nil {
			logger.Sugar.Errorf("Failed to scan entry row: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// isUniqueViolation reports whether err is Postgres error 23505
// (unique_violation), raised by the unique index on the slug column.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
