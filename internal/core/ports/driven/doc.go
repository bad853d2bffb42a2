// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a build to run:
//
//   - Connector: Discovers documents in the input directory
//   - Normaliser: Extracts text and metadata from one document format
//   - NormaliserRegistry: Selects the appropriate normaliser
//   - PostProcessor: Splits document text into passages
//   - EmbeddingService: Generates unit-normalised sentence and passage vectors
//   - CheckpointStore: Passage, metadata and entity list persistence
//   - EmbeddingStore: Embedding matrix persistence
//   - IndexBuilder: Similarity index construction and loading
//   - ConfigStore: Application configuration
//
// # Scanned Format Interfaces
//
// Used by the OCR fallback cascade for PDF and DjVu documents:
//
//   - ToolLocator: Resolves external executables
//   - CommandRunner: Runs external executables under a timeout
//   - OCREngine: Recognises text on a rendered page image
//
// # Optional Interfaces
//
// These can be nil - the build degrades gracefully:
//
//   - KeywordIndex: Full-text passage index built next to the vector index
//   - RunStore: Build run history
//   - Lemmatizer: Without it, entity extraction is skipped
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
