package model

import "time"

// Entry is a stored blog entry. Slug and Timestamp are backfilled by the
// service on the first save, so an Entry handed to a caller always has both.
type Entry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchResult pairs an entry with its rank score. Lower score means more
// relevant, following the FTS convention of ordering ranks ascending.
type SearchResult struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

type CreateEntryRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

// SaveEntryRequest carries a full-field edit. Slug is a pointer so a caller
// can leave the slug alone (nil), replace it, or clear it to have it
// regenerated from the title.
type SaveEntryRequest struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Published bool    `json:"published"`
	Slug      *string `json:"slug,omitempty"`
}

type ReindexResponse struct {
	Reindexed int `json:"reindexed"`
}
