package domain

// RawDocument represents a file discovered by a connector.
// It is the connector's output before normalisation. Content is not loaded
// eagerly: scanned formats are handed to external tools by path.
type RawDocument struct {
	// URI is the file path of the document.
	URI string

	// Format is the detected document format.
	Format Format

	// Size is the file size in bytes.
	Size int64

	// Metadata contains connector-specific key-value pairs.
	Metadata map[string]any
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns a short name for the change type.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange represents a change event from a connector.
// Used by watch mode to trigger rebuilds.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document.
	Document RawDocument
}
