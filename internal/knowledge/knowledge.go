// Package knowledge is a small retrieval index over reference notes a
// writer keeps next to their characters and worlds.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nidhogg/fived/internal/embedding"
	"github.com/nidhogg/fived/internal/linker"
	"github.com/nidhogg/fived/internal/vectorstore"
)

// Mode selects how Search scores chunks.
type Mode string

const (
	ModeKeyword Mode = "keyword"
	ModeVector  Mode = "vector"
)

// ParseMode accepts "keyword", "vector" or "" (keyword).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeKeyword:
		return ModeKeyword, nil
	case ModeVector:
		return ModeVector, nil
	}
	return "", fmt.Errorf("unknown search mode %q", s)
}

var (
	// ErrVectorUnavailable is returned by vector search when no embedder is configured.
	ErrVectorUnavailable = errors.New("vector search not configured")
	// ErrEmptyDocument is returned when a document has no text.
	ErrEmptyDocument = errors.New("document text is empty")
)

const DefaultChunkSize = 800

// VectorStore is implemented by vectorstore.Client and vectorstore.Memory.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dimension uint64) error
	Upsert(ctx context.Context, collection string, points []vectorstore.Point) error
	Search(ctx context.Context, collection string, vector []float32, topK uint64) ([]*vectorstore.SearchResult, error)
	Delete(ctx context.Context, collection string, ids []string) error
}

// Document is a piece of reference text, optionally tied to an entity.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	EntityID  string    `json:"entity_id,omitempty"`
	Text      string    `json:"text"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a searchable slice of a document.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Keywords   []string  `json:"keywords"`
	Vector     []float32 `json:"vector,omitempty"`
}

// Result is one search hit.
type Result struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	EntityID   string  `json:"entity_id,omitempty"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Options configures an Index. Embedder may be nil, in which case only
// keyword search works. Vectors defaults to an in-memory store.
type Options struct {
	ChunkSize  int
	Collection string
	Embedder   embedding.Provider
	Vectors    VectorStore
}

// Index holds documents and their chunks.
type Index struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	order  []string
	chunks map[string]*Chunk
	byDoc  map[string][]string

	chunkSize  int
	collection string
	embedder   embedding.Provider
	vectors    VectorStore
	ensured    bool
	logger     *zap.Logger
}

// NewIndex creates an empty index.
func NewIndex(opts Options, logger *zap.Logger) *Index {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Collection == "" {
		opts.Collection = "knowledge"
	}
	if opts.Embedder != nil && opts.Vectors == nil {
		opts.Vectors = vectorstore.NewMemory()
	}
	return &Index{
		docs:       make(map[string]*Document),
		chunks:     make(map[string]*Chunk),
		byDoc:      make(map[string][]string),
		chunkSize:  opts.ChunkSize,
		collection: opts.Collection,
		embedder:   opts.Embedder,
		vectors:    opts.Vectors,
		logger:     logger,
	}
}

// VectorEnabled reports whether ModeVector searches can run.
func (ix *Index) VectorEnabled() bool {
	return ix.embedder != nil
}

// Add chunks and indexes a document. Re-adding an existing ID replaces it.
func (ix *Index) Add(ctx context.Context, doc Document) (*Document, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, ErrEmptyDocument
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	pieces := Split(doc.Text, ix.chunkSize)
	chunks := make([]*Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, &Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Index:      i,
			Text:       p,
			Keywords:   linker.ExtractKeywords(doc.Title + " " + p),
		})
	}
	doc.Chunks = len(chunks)

	if ix.embedder != nil {
		if err := ix.embed(ctx, &doc, chunks); err != nil {
			return nil, err
		}
	}

	ix.mu.Lock()
	stale := ix.removeLocked(doc.ID)
	ix.docs[doc.ID] = &doc
	ix.order = append(ix.order, doc.ID)
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ix.chunks[c.ID] = c
		ids = append(ids, c.ID)
	}
	ix.byDoc[doc.ID] = ids
	ix.mu.Unlock()

	if len(stale) > 0 && ix.vectors != nil {
		if err := ix.vectors.Delete(ctx, ix.collection, stale); err != nil {
			ix.logger.Warn("delete stale vectors", zap.String("document", doc.ID), zap.Error(err))
		}
	}

	ix.logger.Info("document indexed",
		zap.String("id", doc.ID),
		zap.String("title", doc.Title),
		zap.Int("chunks", len(chunks)))
	out := doc
	return &out, nil
}

func (ix *Index) embed(ctx context.Context, doc *Document, chunks []*Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed document %s: got %d vectors for %d chunks", doc.ID, len(vectors), len(chunks))
	}
	for i, c := range chunks {
		c.Vector = vectors[i]
	}
	return ix.upsert(ctx, doc, chunks)
}

func (ix *Index) upsert(ctx context.Context, doc *Document, chunks []*Chunk) error {
	if err := ix.ensureCollection(ctx, chunks); err != nil {
		return err
	}
	points := make([]vectorstore.Point, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Vector) == 0 {
			continue
		}
		points = append(points, vectorstore.Point{
			ID:     c.ID,
			Vector: c.Vector,
			Payload: map[string]string{
				"document_id": doc.ID,
				"chunk":       strconv.Itoa(c.Index),
			},
		})
	}
	if err := ix.vectors.Upsert(ctx, ix.collection, points); err != nil {
		return fmt.Errorf("store vectors for %s: %w", doc.ID, err)
	}
	return nil
}

func (ix *Index) ensureCollection(ctx context.Context, chunks []*Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.ensured {
		return nil
	}
	dim := uint64(ix.embedder.Dimension())
	if dim == 0 && len(chunks) > 0 {
		dim = uint64(len(chunks[0].Vector))
	}
	if err := ix.vectors.EnsureCollection(ctx, ix.collection, dim); err != nil {
		return fmt.Errorf("init collection %s: %w", ix.collection, err)
	}
	ix.ensured = true
	return nil
}

// Delete removes a document and its chunks.
func (ix *Index) Delete(ctx context.Context, id string) bool {
	ix.mu.Lock()
	_, ok := ix.docs[id]
	stale := ix.removeLocked(id)
	ix.mu.Unlock()

	if len(stale) > 0 && ix.vectors != nil {
		if err := ix.vectors.Delete(ctx, ix.collection, stale); err != nil {
			ix.logger.Warn("delete vectors", zap.String("document", id), zap.Error(err))
		}
	}
	return ok
}

// removeLocked drops a document and returns the ids of its chunks.
func (ix *Index) removeLocked(id string) []string {
	if _, ok := ix.docs[id]; !ok {
		return nil
	}
	stale := ix.byDoc[id]
	for _, cid := range stale {
		delete(ix.chunks, cid)
	}
	delete(ix.byDoc, id)
	delete(ix.docs, id)
	for i, d := range ix.order {
		if d == id {
			ix.order = append(ix.order[:i], ix.order[i+1:]...)
			break
		}
	}
	return stale
}

// Documents lists indexed documents in insertion order.
func (ix *Index) Documents() []Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Document, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, *ix.docs[id])
	}
	return out
}

// Search returns up to topK chunks relevant to query, best first.
func (ix *Index) Search(ctx context.Context, query string, mode Mode, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	switch mode {
	case ModeKeyword, "":
		return ix.searchKeyword(query, topK), nil
	case ModeVector:
		return ix.searchVector(ctx, query, topK)
	}
	return nil, fmt.Errorf("unknown search mode %q", mode)
}

func (ix *Index) searchKeyword(query string, topK int) []Result {
	q := linker.ExtractKeywords(query)
	results := []Result{}
	if len(q) == 0 {
		return results
	}

	ix.mu.RLock()
	for _, docID := range ix.order {
		doc := ix.docs[docID]
		for _, cid := range ix.byDoc[docID] {
			c := ix.chunks[cid]
			score := linker.KeywordSimilarity(q, c.Keywords)
			if score <= 0 {
				continue
			}
			results = append(results, ix.result(doc, c, score))
		}
	}
	ix.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func (ix *Index) searchVector(ctx context.Context, query string, topK int) ([]Result, error) {
	if ix.embedder == nil {
		return nil, ErrVectorUnavailable
	}
	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return []Result{}, nil
	}

	hits, err := ix.vectors.Search(ctx, ix.collection, vectors[0], uint64(topK))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		c, ok := ix.chunks[h.ID]
		if !ok {
			continue
		}
		results = append(results, ix.result(ix.docs[c.DocumentID], c, float64(h.Score)))
	}
	return results, nil
}

func (ix *Index) result(doc *Document, c *Chunk, score float64) Result {
	return Result{
		ChunkID:    c.ID,
		DocumentID: doc.ID,
		Title:      doc.Title,
		EntityID:   doc.EntityID,
		Text:       c.Text,
		Score:      score,
	}
}

type snapshot struct {
	Documents []Document `json:"documents"`
	Chunks    []Chunk    `json:"chunks"`
}

// Save writes the index, vectors included, to path as JSON.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	snap := snapshot{Documents: make([]Document, 0, len(ix.order))}
	for _, id := range ix.order {
		snap.Documents = append(snap.Documents, *ix.docs[id])
		for _, cid := range ix.byDoc[id] {
			snap.Chunks = append(snap.Chunks, *ix.chunks[cid])
		}
	}
	ix.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write index %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write index %s: %w", path, err)
	}
	return nil
}

// Load replaces the index contents with the file at path. Stored vectors are
// pushed back into the vector store when one is configured.
func (ix *Index) Load(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read index %s: %w", path, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse index %s: %w", path, err)
	}

	docs := make(map[string]*Document, len(snap.Documents))
	order := make([]string, 0, len(snap.Documents))
	for i := range snap.Documents {
		d := snap.Documents[i]
		docs[d.ID] = &d
		order = append(order, d.ID)
	}
	chunks := make(map[string]*Chunk, len(snap.Chunks))
	byDoc := make(map[string][]string)
	for i := range snap.Chunks {
		c := snap.Chunks[i]
		if _, ok := docs[c.DocumentID]; !ok {
			continue
		}
		chunks[c.ID] = &c
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c.ID)
	}

	ix.mu.Lock()
	ix.docs, ix.order, ix.chunks, ix.byDoc = docs, order, chunks, byDoc
	ix.mu.Unlock()

	if ix.embedder != nil {
		for _, id := range order {
			var cs []*Chunk
			for _, cid := range byDoc[id] {
				cs = append(cs, chunks[cid])
			}
			if err := ix.upsert(ctx, docs[id], cs); err != nil {
				return err
			}
		}
	}
	ix.logger.Info("knowledge index loaded",
		zap.String("path", path),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)))
	return nil
}

// Split breaks text into chunks of at most size bytes on word boundaries.
// Paragraph breaks always end a chunk. A single word longer than size
// becomes its own chunk.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		var b strings.Builder
		for _, w := range strings.Fields(para) {
			if b.Len() > 0 && b.Len()+1+len(w) > size {
				out = append(out, b.String())
				b.Reset()
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w)
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return out
}
