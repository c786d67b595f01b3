package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/inkwell-io/inkwell/server/internal/model"
)

// MemIndex is an in-process vector index with an optional JSON snapshot on
// disk. Exact brute-force cosine scan; fine for a personal journal's corpus
// sizes. All mutations are guarded by a single write lock, searches run
// concurrently under the read lock. Equal-score hits are broken by insertion
// sequence so a given snapshot ranks deterministically.
type MemIndex struct {
	mu     sync.RWMutex
	dim    int
	points map[string]*memPoint
	order  []*memPoint // insertion order, nil holes compacted on snapshot
	seq    uint64
	path   string // snapshot file; empty disables persistence
}

type memPoint struct {
	Point
	Seq uint64 `json:"seq"`
}

// NewMemIndex creates an index for vectors of the given dimension.
// path may be empty for a purely in-memory index.
func NewMemIndex(dim int, path string) *MemIndex {
	return &MemIndex{
		dim:    dim,
		points: make(map[string]*memPoint),
		path:   path,
	}
}

// Dimension returns the fixed vector dimension of the index.
func (m *MemIndex) Dimension() int { return m.dim }

func (m *MemIndex) checkVec(vec []float32) error {
	if len(vec) != m.dim {
		return fmt.Errorf("%w: vector has %d dims, index expects %d", model.ErrValidation, len(vec), m.dim)
	}
	return nil
}

func (m *MemIndex) Insert(_ context.Context, p Point) error {
	if err := m.checkVec(p.Vector); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.points[p.ID]; ok {
		return fmt.Errorf("%w: %s", model.ErrDuplicateID, p.ID)
	}
	m.insertLocked(p)
	return nil
}

func (m *MemIndex) Upsert(_ context.Context, p Point) error {
	if err := m.checkVec(p.Vector); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(p.ID)
	m.insertLocked(p)
	return nil
}

func (m *MemIndex) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id), nil
}

func (m *MemIndex) insertLocked(p Point) {
	m.seq++
	mp := &memPoint{Point: p, Seq: m.seq}
	m.points[p.ID] = mp
	m.order = append(m.order, mp)
}

func (m *MemIndex) removeLocked(id string) bool {
	mp, ok := m.points[id]
	if !ok {
		return false
	}
	delete(m.points, id)
	for i, p := range m.order {
		if p == mp {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *MemIndex) Search(_ context.Context, ownerID string, vec []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}
	if err := m.checkVec(vec); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.order))
	seqs := make(map[string]uint64, len(m.order))
	for _, p := range m.order {
		if ownerID != "" && p.OwnerID != ownerID {
			continue
		}
		hits = append(hits, Hit{
			ID:      p.ID,
			OwnerID: p.OwnerID,
			Score:   cosineSimilarity(vec, p.Vector),
			Payload: p.Payload,
		})
		seqs[p.ID] = p.Seq
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return seqs[hits[i].ID] < seqs[hits[j].ID]
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MemIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points), nil
}

// HealthPing reports nil; an in-process index is healthy while the process is.
func (m *MemIndex) HealthPing(_ context.Context) error { return nil }

// --- snapshot persistence ---

type snapshot struct {
	Dimension int        `json:"dimension"`
	Points    []memPoint `json:"points"`
	SavedAt   time.Time  `json:"savedAt"`
}

// Load replaces the index contents with the snapshot at the configured path.
// A missing file is not an error. A dimension mismatch returns an error so
// the caller can rebuild from the record store instead.
func (m *MemIndex) Load() error {
	if m.path == "" {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode index snapshot: %w", err)
	}
	if snap.Dimension != m.dim {
		return fmt.Errorf("index snapshot has dimension %d, want %d: rebuild required", snap.Dimension, m.dim)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = make(map[string]*memPoint, len(snap.Points))
	m.order = m.order[:0]
	m.seq = 0
	sort.Slice(snap.Points, func(i, j int) bool { return snap.Points[i].Seq < snap.Points[j].Seq })
	for i := range snap.Points {
		p := snap.Points[i]
		m.seq++
		p.Seq = m.seq
		m.points[p.ID] = &p
		m.order = append(m.order, &p)
	}
	return nil
}

// Flush writes the current contents to the snapshot path via atomic rename.
func (m *MemIndex) Flush() error {
	if m.path == "" {
		return nil
	}

	m.mu.RLock()
	snap := snapshot{Dimension: m.dim, SavedAt: time.Now().UTC()}
	snap.Points = make([]memPoint, 0, len(m.order))
	for _, p := range m.order {
		snap.Points = append(snap.Points, *p)
	}
	m.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal index snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	return os.Rename(tmp, m.path)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
