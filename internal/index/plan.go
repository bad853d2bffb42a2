package index

import (
	"math"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// Plan defaults.
const (
	DefaultFlatThreshold = 5000
	DefaultNProbe        = 32
	MinNList             = 32
	MaxNList             = 512
)

// NList returns the IVF cluster count for n vectors:
// round(sqrt(n)) clamped to [MinNList, MaxNList].
func NList(n int) int {
	nlist := int(math.Round(math.Sqrt(float64(n))))
	if nlist < MinNList {
		return MinNList
	}
	if nlist > MaxNList {
		return MaxNList
	}
	return nlist
}

// Plan chooses the index topology for n vectors. Non-positive arguments
// take the defaults. A corpus too small to train nlist clusters stays flat.
func Plan(n, flatThreshold, nprobe int) domain.IndexPlan {
	if flatThreshold <= 0 {
		flatThreshold = DefaultFlatThreshold
	}
	if nprobe <= 0 {
		nprobe = DefaultNProbe
	}
	if n < flatThreshold {
		return domain.IndexPlan{Kind: domain.IndexFlat}
	}

	nlist := NList(n)
	if n < nlist {
		return domain.IndexPlan{Kind: domain.IndexFlat}
	}
	if nprobe > nlist {
		nprobe = nlist
	}
	return domain.IndexPlan{Kind: domain.IndexIVF, NList: nlist, NProbe: nprobe}
}
