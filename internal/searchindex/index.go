// Package searchindex maintains the full-text shadow of the entries table.
// Every entry has exactly one index document, keyed by the entry id, holding
// the title and content as of the entry's most recent save.
package searchindex

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"warta/pkg/logger"
)

// Hit is one ranked match. Score follows the rank convention of the SQL FTS
// engines: lower is more relevant, so callers sort ascending.
type Hit struct {
	ID    int64
	Score float64
}

// Index wraps a bleve index. Writes take the write lock; searches can run
// concurrently under the read lock.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

type indexedEntry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Open opens the index at path, creating it if it does not exist.
// An empty path opens an in-memory index (used by tests).
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(entryMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, entryMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", path, err)
	}
	return &Index{index: idx}, nil
}

func entryMapping() *mapping.IndexMappingImpl {
	entry := bleve.NewDocumentMapping()
	entry.AddFieldMappingsAt("title", bleve.NewTextFieldMapping())
	entry.AddFieldMappingsAt("content", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = entry
	return indexMapping
}

// Sync inserts or updates the index document for the given entry id.
// It is idempotent: re-syncing unchanged fields converges to the same state.
func (ix *Index) Sync(id int64, title, content string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return fmt.Errorf("index is closed")
	}

	doc := indexedEntry{Title: title, Content: content}
	if err := ix.index.Index(key(id), doc); err != nil {
		logger.Sugar.Errorf("Failed to sync entry %d into search index: %v", id, err)
		return fmt.Errorf("failed to index entry %d: %w", id, err)
	}
	return nil
}

// Match runs a free-text query over title and content and returns hits in
// relevance order. Every term must match, as with an FTS MATCH on the joined
// token string. Bleve scores are negated so that, as with SQL FTS rank
// columns, a lower score means a better match.
func (ix *Index) Match(queryStr string, limit int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if strings.TrimSpace(queryStr) == "" {
		return []Hit{}, nil
	}

	title := bleve.NewMatchQuery(queryStr)
	title.SetField("title")
	title.SetOperator(query.MatchQueryOperatorAnd)
	content := bleve.NewMatchQuery(queryStr)
	content.SetField("content")
	content.SetOperator(query.MatchQueryOperatorAnd)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(title, content))
	req.Size = limit

	result, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			logger.Sugar.Errorf("Skipping index hit with malformed id %q: %v", hit.ID, err)
			continue
		}
		hits = append(hits, Hit{ID: id, Score: -hit.Score})
	}
	return hits, nil
}

// AllIDs returns every entry id present in the index.
// Used for consistency checking against the entries table.
func (ix *Index) AllIDs() ([]int64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, fmt.Errorf("index is closed")
	}

	count, err := ix.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count index documents: %w", err)
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)

	result, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list index ids: %w", err)
	}

	ids := make([]int64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DocCount returns the number of documents in the index.
func (ix *Index) DocCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return 0, fmt.Errorf("index is closed")
	}
	return ix.index.DocCount()
}

// Close releases the underlying index. Further calls fail.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil
	}
	ix.closed = true
	return ix.index.Close()
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}
