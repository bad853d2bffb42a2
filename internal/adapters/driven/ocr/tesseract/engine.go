package tesseract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// DefaultMinConfidence is the word confidence floor (0..1).
const DefaultMinConfidence = 0.28

// word is one recognised word with its layout position.
type word struct {
	Text       string
	Confidence float64
	Block      int
	Par        int
	Line       int
}

// recognizer is the model handle behind an Engine.
type recognizer interface {
	Words(img []byte, dpi int) ([]word, error)
	Close() error
}

// Engine recognises page images. The underlying model is loaded on first
// use and kept for the life of the Engine; the language set and
// accelerator flag are fixed at construction.
type Engine struct {
	languages     []string
	accelerator   bool
	minConfidence float64
	open          func(languages []string) (recognizer, error)

	once    sync.Once
	rec     recognizer
	initErr error
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinConfidence sets the word confidence floor (0..1).
func WithMinConfidence(c float64) Option {
	return func(e *Engine) {
		e.minConfidence = c
	}
}

// WithAccelerator records a hardware acceleration request.
func WithAccelerator(on bool) Option {
	return func(e *Engine) {
		e.accelerator = on
	}
}

// New creates an engine for the given two-letter language codes.
// The model is not loaded until the first Recognize call.
func New(languages []string, opts ...Option) *Engine {
	e := &Engine{
		languages:     TesseractLanguages(languages),
		minConfidence: DefaultMinConfidence,
		open:          openRecognizer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Languages returns the tesseract language codes in use.
func (e *Engine) Languages() []string {
	return e.languages
}

func (e *Engine) init() {
	e.once.Do(func() {
		if e.accelerator {
			logger.Info("ocr: tesseract runs on CPU, accelerator request ignored")
		}
		logger.Debug("ocr: loading tesseract (%s)", strings.Join(e.languages, "+"))
		e.rec, e.initErr = e.open(e.languages)
		if e.initErr != nil {
			logger.Warn("ocr: engine unavailable: %v", e.initErr)
		}
	})
}

// Available loads the engine and reports whether it can recognise.
func (e *Engine) Available() error {
	e.init()
	return e.initErr
}

// Recognize returns the words of img at or above the confidence floor,
// one output line per recognised line. Failures yield "".
func (e *Engine) Recognize(ctx context.Context, img domain.PageImage) (text string) {
	if ctx.Err() != nil || len(img.Data) == 0 {
		return ""
	}
	e.init()
	if e.initErr != nil {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("ocr: page %d: engine panic: %v", img.Page, r)
			text = ""
		}
	}()

	words, err := e.rec.Words(img.Data, img.DPI)
	if err != nil {
		logger.Warn("ocr: page %d: %v", img.Page, err)
		return ""
	}
	return joinWords(words, e.minConfidence)
}

// Close releases the model.
func (e *Engine) Close() error {
	if e.rec == nil {
		return nil
	}
	if err := e.rec.Close(); err != nil {
		return fmt.Errorf("close tesseract: %w", err)
	}
	return nil
}

// joinWords keeps words with confidence >= floor, separating words on the
// same line by a space and lines by a newline.
func joinWords(words []word, floor float64) string {
	var b strings.Builder
	type lineKey struct{ block, par, line int }
	var prev lineKey
	first := true
	for _, w := range words {
		t := strings.TrimSpace(w.Text)
		if t == "" || w.Confidence < floor {
			continue
		}
		key := lineKey{w.Block, w.Par, w.Line}
		switch {
		case first:
			first = false
		case key != prev:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		prev = key
		b.WriteString(t)
	}
	return b.String()
}

// TesseractLanguages maps two-letter codes to tesseract traineddata names.
// Unknown codes pass through unchanged.
func TesseractLanguages(codes []string) []string {
	names := map[string]string{
		"ru": "rus",
		"en": "eng",
		"uk": "ukr",
		"de": "deu",
		"fr": "fra",
		"la": "lat",
	}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if n, ok := names[c]; ok {
			c = n
		}
		out = append(out, c)
	}
	return out
}

// NoopEngine recognises nothing. Used when OCR is disabled.
type NoopEngine struct{}

// Ensure NoopEngine implements the interface.
var _ driven.OCREngine = NoopEngine{}

// Recognize always returns "".
func (NoopEngine) Recognize(context.Context, domain.PageImage) string { return "" }

// Close does nothing.
func (NoopEngine) Close() error { return nil }
