package service

import (
	"fmt"
	"strings"
	"time"

	"warta/internal/entry/model"
	"warta/internal/searchindex"
	"warta/pkg/logger"
	"warta/pkg/slug"
)

// searchLimit caps how many results a search returns. The index is asked
// for searchOverfetch times as many hits, since draft hits are dropped after
// ranking and would otherwise crowd published matches out of the window.
const (
	searchLimit     = 50
	searchOverfetch = 4
)

// Repository is the persistence surface the service needs. Implemented by
// repository.EntryRepository; tests substitute an in-memory version.
type Repository interface {
	Create(e *model.Entry) error
	Update(e *model.Entry) error
	GetBySlug(slug string) (*model.Entry, error)
	ListPublished(asc bool) ([]model.Entry, error)
	ListDrafts() ([]model.Entry, error)
	GetPublishedByIDs(ids []int64) (map[int64]model.Entry, error)
	ListAll() ([]model.Entry, error)
}

// Indexer is the text-match engine behind the search path. Match returns
// hits in relevance order (lower score first), so the ranking function stays
// an engine concern and other engines can be swapped in.
type Indexer interface {
	Sync(id int64, title, content string) error
	Match(query string, limit int) ([]searchindex.Hit, error)
	AllIDs() ([]int64, error)
}

type EntryService struct {
	Repo  Repository
	Index Indexer
	Now   func() time.Time
}

func NewEntryService(repo Repository, index Indexer) *EntryService {
	return &EntryService{Repo: repo, Index: index, Now: time.Now}
}

// Create persists a new entry and brings the search index up to date with
// it. Slug and timestamp are backfilled before the write, so the returned
// entry is always fully populated.
func (s *EntryService) Create(title, content string, published bool) (*model.Entry, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	e := &model.Entry{Title: title, Content: content, Published: published}
	s.backfill(e)

	if err := s.Repo.Create(e); err != nil {
		return nil, err
	}
	if err := s.syncIndex(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Save persists an edited entry through the same single write path as
// Create: backfill missing slug/timestamp, write the row, sync the index.
// If the index sync fails the row stays committed but Save reports the
// failure; see model.ErrIndexSync.
func (s *EntryService) Save(e *model.Entry) (*model.Entry, error) {
	if strings.TrimSpace(e.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	s.backfill(e)

	if err := s.Repo.Update(e); err != nil {
		return nil, err
	}
	if err := s.syncIndex(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EntryService) GetBySlug(slugStr string) (*model.Entry, error) {
	return s.Repo.GetBySlug(slugStr)
}

// ListPublished returns published entries ordered by timestamp.
func (s *EntryService) ListPublished(asc bool) ([]model.Entry, error) {
	return s.Repo.ListPublished(asc)
}

// ListDrafts returns unpublished entries. Gating this behind authorization
// is the caller's responsibility.
func (s *EntryService) ListDrafts() ([]model.Entry, error) {
	return s.Repo.ListDrafts()
}

// Search runs a ranked free-text query over published entries. The query is
// split on whitespace and empty tokens are dropped; a query with no tokens
// yields no results rather than all of them. Drafts never match, whoever is
// asking.
func (s *EntryService) Search(query string) ([]model.SearchResult, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return []model.SearchResult{}, nil
	}

	hits, err := s.Index.Match(strings.Join(words, " "), searchLimit*searchOverfetch)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	byID, err := s.Repo.GetPublishedByIDs(ids)
	if err != nil {
		return nil, err
	}

	// Keep the index's rank order; hits that hydrate to nothing are drafts
	// or index orphans and are silently dropped.
	results := make([]model.SearchResult, 0, len(hits))
	for _, hit := range hits {
		e, ok := byID[hit.ID]
		if !ok {
			continue
		}
		results = append(results, model.SearchResult{Entry: e, Score: hit.Score})
		if len(results) == searchLimit {
			break
		}
	}
	return results, nil
}

// Reindex re-syncs every entry into the search index. It is the recovery
// path for the divergence window left by a failed post-commit sync: the row
// and index writes are two separate commits, so a crash in between leaves
// the index stale until this runs. Returns how many entries were synced.
func (s *EntryService) Reindex() (int, error) {
	entries, err := s.Repo.ListAll()
	if err != nil {
		return 0, err
	}

	synced := 0
	for i := range entries {
		e := &entries[i]
		if err := s.Index.Sync(e.ID, e.Title, e.Content); err != nil {
			return synced, fmt.Errorf("%w: entry %d: %v", model.ErrIndexSync, e.ID, err)
		}
		synced++
	}

	if orphans := s.countOrphans(entries); orphans > 0 {
		logger.Sugar.Warnf("Search index has %d documents with no matching entry", orphans)
	}

	logger.Sugar.Infof("Reindexed %d entries", synced)
	return synced, nil
}

func (s *EntryService) backfill(e *model.Entry) {
	if e.Slug == "" {
		e.Slug = slug.Generate(e.Title)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.Now().UTC()
	}
}

func (s *EntryService) syncIndex(e *model.Entry) error {
	if err := s.Index.Sync(e.ID, e.Title, e.Content); err != nil {
		logger.Sugar.Errorf("Entry %d committed but index sync failed: %v", e.ID, err)
		return fmt.Errorf("%w: %v", model.ErrIndexSync, err)
	}
	return nil
}

// countOrphans counts index documents whose id matches no entry. Entries are
// never deleted, so orphans indicate a foreign index or manual tampering.
func (s *EntryService) countOrphans(entries []model.Entry) int {
	known := make(map[int64]bool, len(entries))
	for _, e := range entries {
		known[e.ID] = true
	}
	ids, err := s.Index.AllIDs()
	if err != nil {
		logger.Sugar.Errorf("Failed to list index ids during reindex: %v", err)
		return 0
	}
	orphans := 0
	for _, id := range ids {
		if !known[id] {
			orphans++
		}
	}
	return orphans
}
