// Package embedcache persists provider embeddings in SQLite so repeated
// texts never hit the embedding API twice. When sqlite-vec is available the
// cache doubles as a similarity index.
package embedcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/modelyard/modelyard/internal/adapter"
	"github.com/modelyard/modelyard/internal/db"
)

// Cache stores embeddings keyed by a hash of (provider, model, text).
type Cache struct {
	conn *sql.DB
}

// New creates a Cache backed by the given DB.
func New(database *db.DB) *Cache {
	return &Cache{conn: database.Conn()}
}

// Key computes the cache key for a text under a given provider and model.
func Key(provider, model, text string) string {
	h := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// Put stores an embedding. The vector index is updated best-effort: cache
// rows survive even when sqlite-vec is not loaded.
func (c *Cache) Put(provider, model, text string, embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}
	hash := Key(provider, model, text)
	blob := float32SliceToBlob(embedding)
	_, err := c.conn.Exec(
		`INSERT INTO embed_cache (hash, provider, model, text, dims, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET embedding = excluded.embedding, dims = excluded.dims`,
		hash, provider, model, text, len(embedding), blob,
	)
	if err != nil {
		return fmt.Errorf("embedcache: put: %w", err)
	}

	_, err = c.conn.Exec(
		`INSERT INTO vec_cache (hash, embedding) VALUES (?, ?)
		 ON CONFLICT(hash) DO UPDATE SET embedding = excluded.embedding`,
		hash, blob,
	)
	if err != nil {
		// sqlite-vec may not be loaded; the plain cache row is enough.
		return nil //nolint:nilerr
	}
	return nil
}

// Get returns the cached embedding for a text, if present.
func (c *Cache) Get(provider, model, text string) ([]float32, bool, error) {
	hash := Key(provider, model, text)
	var blob []byte
	err := c.conn.QueryRow(`SELECT embedding FROM embed_cache WHERE hash = ?`, hash).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("embedcache: get: %w", err)
	}
	return blobToFloat32Slice(blob), true, nil
}

// Count returns the number of cached embeddings.
func (c *Cache) Count() (int, error) {
	var n int
	if err := c.conn.QueryRow(`SELECT COUNT(*) FROM embed_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("embedcache: count: %w", err)
	}
	return n, nil
}

// Match is a single similarity search result.
type Match struct {
	Hash       string
	Text       string
	Similarity float64
}

// Nearest finds the top-k cached texts most similar to the query vector.
// Uses the sqlite-vec index when available and falls back to a linear scan
// of the cache otherwise.
func (c *Cache) Nearest(query []float32, topK int) ([]Match, error) {
	if len(query) == 0 || topK <= 0 {
		return nil, nil
	}

	blob := float32SliceToBlob(query)
	rows, err := c.conn.Query(
		`SELECT v.hash, e.text, v.distance
		 FROM vec_cache v JOIN embed_cache e ON e.hash = v.hash
		 WHERE v.embedding MATCH ? AND k = ?
		 ORDER BY v.distance`,
		blob, topK,
	)
	if err != nil {
		return c.nearestLinear(query, topK)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		var distance float64
		if err := rows.Scan(&m.Hash, &m.Text, &distance); err != nil {
			return nil, fmt.Errorf("embedcache: scan match: %w", err)
		}
		// sqlite-vec returns L2 distance; convert to a similarity in (0, 1].
		m.Similarity = 1.0 / (1.0 + distance)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *Cache) nearestLinear(query []float32, topK int) ([]Match, error) {
	rows, err := c.conn.Query(`SELECT hash, text, embedding FROM embed_cache`)
	if err != nil {
		return nil, fmt.Errorf("embedcache: linear scan: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		var blob []byte
		if err := rows.Scan(&m.Hash, &m.Text, &blob); err != nil {
			return nil, fmt.Errorf("embedcache: scan row: %w", err)
		}
		m.Similarity = Cosine(query, blobToFloat32Slice(blob))
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Insertion sort by similarity; the cache is small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Similarity > out[j-1].Similarity; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Prune deletes cached embeddings for a provider/model pair. An empty model
// deletes every entry for the provider.
func (c *Cache) Prune(provider, model string) (int, error) {
	var res sql.Result
	var err error
	if model == "" {
		res, err = c.conn.Exec(`DELETE FROM embed_cache WHERE provider = ?`, provider)
	} else {
		res, err = c.conn.Exec(`DELETE FROM embed_cache WHERE provider = ? AND model = ?`, provider, model)
	}
	if err != nil {
		return 0, fmt.Errorf("embedcache: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CachingEmbedder wraps an adapter.Embedder with cache lookups. Only texts
// missing from the cache are sent to the provider.
type CachingEmbedder struct {
	Inner    adapter.Embedder
	Cache    *Cache
	Provider string
	Model    string
}

// Embed returns one embedding per input text, serving hits from the cache
// and storing fresh results for the misses.
func (e *CachingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		vec, ok, err := e.Cache.Get(e.Provider, e.Model, text)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	fresh, err := e.Inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedcache: provider returned %d embeddings for %d texts", len(fresh), len(missing))
	}

	for i, vec := range fresh {
		out[missingIdx[i]] = vec
		if err := e.Cache.Put(e.Provider, e.Model, missing[i], vec); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Cosine computes the cosine similarity of two vectors. Returns 0 when the
// vectors differ in length or either has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ---- Helpers ----

// float32SliceToBlob serialises a float32 slice to a little-endian byte blob.
// This is the format expected by sqlite-vec's BLOB column input.
func float32SliceToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32Slice(b []byte) []float32 {
	result := make([]float32, len(b)/4)
	for i := range result {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		result[i] = math.Float32frombits(bits)
	}
	return result
}
