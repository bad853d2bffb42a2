// Package faiss builds passage indexes with the faiss library.
// It implements driven.IndexBuilder and driven.VectorIndex.
//
// Build requires:
//   - libfaiss_c installed where the linker can find it
//   - the faiss build tag (go build -tags faiss)
//
// Without the tag every operation returns domain.ErrNotImplemented and
// Available reports false.
package faiss
