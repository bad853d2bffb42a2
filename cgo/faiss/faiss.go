//go:build faiss

package faiss

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gofaiss "github.com/blevesearch/go-faiss"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Available reports whether faiss support is compiled in.
const Available = true

// Ensure the types implement the interfaces.
var (
	_ driven.IndexBuilder = (*Builder)(nil)
	_ driven.VectorIndex  = (*Index)(nil)
)

// Builder creates faiss indexes.
type Builder struct{}

// NewBuilder creates a faiss index builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Name identifies the backend.
func (b *Builder) Name() string { return "faiss" }

// Build creates "Flat" or "IVF{nlist},Flat" with inner product metric,
// trains it when needed and adds every row of m.
func (b *Builder) Build(ctx context.Context, m domain.Matrix, plan domain.IndexPlan) (driven.VectorIndex, error) {
	if m.Rows <= 0 || m.Dim <= 0 {
		return nil, fmt.Errorf("%w: empty embedding matrix", domain.ErrInvalidInput)
	}

	description := "Flat"
	if plan.Kind == domain.IndexIVF {
		description = fmt.Sprintf("IVF%d,Flat", plan.NList)
	}

	idx, err := gofaiss.IndexFactory(m.Dim, description, gofaiss.MetricInnerProduct)
	if err != nil {
		return nil, fmt.Errorf("faiss: index factory %q: %w", description, err)
	}

	if !idx.IsTrained() {
		if err := ctx.Err(); err != nil {
			idx.Close()
			return nil, err
		}
		if err := idx.Train(m.Data); err != nil {
			idx.Close()
			return nil, fmt.Errorf("faiss: train: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		idx.Close()
		return nil, err
	}
	if err := idx.Add(m.Data); err != nil {
		idx.Close()
		return nil, fmt.Errorf("faiss: add: %w", err)
	}

	if plan.Kind == domain.IndexIVF {
		if err := setNProbe(idx, plan.NProbe); err != nil {
			idx.Close()
			return nil, err
		}
	}

	return &Index{idx: idx, kind: plan.Kind}, nil
}

// Load reads an index written with Index.Save.
func (b *Builder) Load(path string) (driven.VectorIndex, error) {
	idx, err := gofaiss.ReadIndex(path, gofaiss.IOFlagReadOnly)
	if err != nil {
		return nil, fmt.Errorf("faiss: read %s: %w", path, err)
	}
	kind := domain.IndexFlat
	if idx.IsIVFIndex() {
		kind = domain.IndexIVF
	}
	return &Index{idx: idx, kind: kind}, nil
}

func setNProbe(idx *gofaiss.IndexImpl, nprobe int) error {
	ps, err := gofaiss.NewParameterSpace()
	if err != nil {
		return fmt.Errorf("faiss: parameter space: %w", err)
	}
	defer ps.Delete()

	if err := ps.SetIndexParameter(idx, "nprobe", float64(nprobe)); err != nil {
		return fmt.Errorf("faiss: set nprobe: %w", err)
	}
	return nil
}

// Index wraps a faiss index.
type Index struct {
	mu   sync.RWMutex
	idx  *gofaiss.IndexImpl
	kind domain.IndexKind
}

// Kind returns the index topology.
func (x *Index) Kind() domain.IndexKind { return x.kind }

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.idx == nil {
		return 0
	}
	return int(x.idx.Ntotal())
}

// Dim returns the vector dimension.
func (x *Index) Dim() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.idx == nil {
		return 0
	}
	return x.idx.D()
}

// Search finds the k most similar vectors. Missing results (label -1)
// are dropped.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.idx == nil {
		return nil, errors.New("faiss: index closed")
	}
	if len(query) != x.idx.D() || k <= 0 {
		return nil, fmt.Errorf("%w: query dimension %d, k %d", domain.ErrInvalidInput, len(query), k)
	}

	scores, labels, err := x.idx.Search(query, int64(k))
	if err != nil {
		return nil, fmt.Errorf("faiss: search: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(labels))
	for i, label := range labels {
		if label < 0 {
			continue
		}
		hits = append(hits, driven.VectorHit{Position: int(label), Similarity: float64(scores[i])})
	}
	return hits, nil
}

// Save writes the index to path.
func (x *Index) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.idx == nil {
		return errors.New("faiss: index closed")
	}
	return gofaiss.WriteIndex(x.idx, path)
}

// Close releases the native index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.idx != nil {
		x.idx.Close()
		x.idx = nil
	}
	return nil
}
