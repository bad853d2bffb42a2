// Package cascade extracts text from scanned documents (PDF, DjVu) by
// walking an explicit state machine of extraction strategies:
//
//	NativeAttempt ──ok──────────────────────────────► Done
//	     │ fail
//	     ├─(DjVu)─► ConversionAttempt ──ok──────────► Done
//	     │                 │ fail
//	     └─(PDF)──────────►└──► PerPageOCR ─────────► Done
//
// NativeAttempt accepts the whole-document text layer when it clears a
// length, composition and word-count bar. ConversionAttempt converts a
// DjVu document to a scratch PDF and reads that page by page.
// PerPageOCR classifies each page's text layer and recognises the pages
// that need it, up to a per-document page limit.
//
// Missing tools and timeouts fail only the state that hit them. A run
// whose every state fails returns empty text and a skip outcome.
package cascade
