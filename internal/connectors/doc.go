// Package connectors holds the document sources for a build.
//
// Only the local filesystem connector exists: a corpus is a directory of
// books and papers.
package connectors
