// Package index builds and serialises the passage similarity index.
//
// Small corpora get an exact FlatIndex. Past a size threshold an IVFIndex
// partitions the unit vectors into k-means clusters and searches only the
// nprobe clusters nearest the query. Both are immutable once built and
// share one on-disk format (see Save and Load).
package index
