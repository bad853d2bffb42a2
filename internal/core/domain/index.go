package domain

import "strconv"

// IndexKind is the topology of a similarity index.
type IndexKind string

// Index kinds.
const (
	// IndexFlat is an exact brute-force inner product index.
	IndexFlat IndexKind = "flat"

	// IndexIVF is an inverted-file index over trained cluster centroids.
	IndexIVF IndexKind = "ivf"
)

// String returns the string representation.
func (k IndexKind) String() string {
	return string(k)
}

// IndexPlan is the index topology chosen for a corpus.
type IndexPlan struct {
	Kind IndexKind

	// NList is the number of IVF clusters; zero for flat.
	NList int

	// NProbe is the number of clusters searched per query; zero for flat.
	NProbe int
}

// Description returns a short human-readable form.
func (p IndexPlan) Description() string {
	if p.Kind == IndexIVF {
		return "IVF (nlist=" + strconv.Itoa(p.NList) + ", nprobe=" + strconv.Itoa(p.NProbe) + ")"
	}
	return "Flat (exact inner product)"
}
