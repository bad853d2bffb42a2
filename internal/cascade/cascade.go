package cascade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
	"github.com/pronin-ni/rag-plants/internal/scratch"
	"github.com/pronin-ni/rag-plants/internal/textlayer"
)

// PageMarker prefixes every page of cascade output.
const PageMarker = "--- Страница %d ---"

// Output floors.
const (
	// MinPageOutput is the character count a scrubbed page needs to be kept.
	MinPageOutput = 50

	// MinConvertedOutput is the character count a converted document needs
	// for the conversion to count as a success.
	MinConvertedOutput = 100
)

// Profile holds per-format thresholds.
type Profile struct {
	// Native is the bar for whole-document native text.
	Native textlayer.Thresholds

	// PageRatio is the classifier ratio floor for single pages.
	PageRatio float64
}

// Config configures a Cascade.
type Config struct {
	// OCR enables page recognition and DjVu conversion.
	OCR bool

	// PageLimit caps recognised pages per document; zero means no cap.
	PageLimit int

	// DPI is the page render resolution.
	DPI int

	// ScratchDir holds converted documents; empty means os.TempDir().
	ScratchDir string

	// Profiles maps a document format to its thresholds.
	Profiles map[domain.Format]Profile
}

// DefaultConfig returns a config built from application settings.
func DefaultConfig(s domain.OCRSettings) Config {
	return Config{
		OCR:       s.Enabled,
		PageLimit: s.PageLimit,
		DPI:       s.DPI(),
		Profiles: map[domain.Format]Profile{
			domain.FormatPDF:  {Native: textlayer.PDFNative, PageRatio: s.PDFMinTextRatio},
			domain.FormatDjVu: {Native: textlayer.DjVuNative, PageRatio: s.DjVuMinTextRatio},
		},
	}
}

// Cascade runs the extraction state machine. It holds no per-document
// state and can be reused across documents.
type Cascade struct {
	engine driven.OCREngine
	cfg    Config
}

// New creates a cascade. engine must be non-nil; pass a no-op engine when
// recognition is disabled.
func New(engine driven.OCREngine, cfg Config) *Cascade {
	return &Cascade{engine: engine, cfg: cfg}
}

// PageStats counts how pages of a document were handled.
type PageStats struct {
	Total      int
	Native     int
	Recognized int
	Fallback   int
	Capped     int
	Dropped    int
}

// Result is the output of a cascade run.
type Result struct {
	// Text is the extracted text; empty means no usable text.
	Text string

	// Outcome classifies the run.
	Outcome domain.Outcome

	// Trace lists every transition taken.
	Trace []Transition

	// Pages counts page handling in the accepted branch.
	Pages PageStats

	// Partial is set when the OCR page limit was reached while pages
	// still needed recognition.
	Partial bool
}

// run is the per-document state of one cascade execution.
type run struct {
	c       *Cascade
	src     Source
	profile Profile

	text     string
	native   bool
	stats    PageStats
	ocrUsed  int
	partial  bool
	trace    []Transition
	lastFail error
}

// Run extracts text from src. It never returns an error: failures are
// transitions, and total failure is an empty Text with a skip outcome.
func (c *Cascade) Run(ctx context.Context, src Source) Result {
	r := c.newRun(src)

	state := StateNativeAttempt
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			r.transition(state, StateDone, err)
			break
		}
		next, err := r.step(ctx, state)
		r.transition(state, next, err)
		state = next
	}

	return r.result()
}

func (c *Cascade) newRun(src Source) *run {
	profile, ok := c.cfg.Profiles[src.Format()]
	if !ok {
		profile = Profile{Native: textlayer.PDFNative, PageRatio: 0.10}
	}
	return &run{c: c, src: src, profile: profile}
}

func (r *run) transition(from, to State, err error) {
	reason := "accepted"
	if err != nil {
		reason = err.Error()
		r.lastFail = err
	}
	t := Transition{From: from, To: to, Reason: reason}
	r.trace = append(r.trace, t)
	logger.Debug("cascade: %s", t)
}

func (r *run) step(ctx context.Context, s State) (State, error) {
	switch s {
	case StateNativeAttempt:
		return r.nativeAttempt(ctx)
	case StateConversionAttempt:
		return r.conversionAttempt(ctx)
	case StatePerPageOCR:
		return r.perPageOCR(ctx)
	default:
		return StateDone, fmt.Errorf("unknown state %d", s)
	}
}

// afterNative is the state that follows a failed native attempt.
func (r *run) afterNative() State {
	if _, ok := r.src.(Converter); ok {
		return StateConversionAttempt
	}
	return StatePerPageOCR
}

// nativeAttempt accepts the whole-document text layer if it clears the
// format's native bar.
func (r *run) nativeAttempt(ctx context.Context) (State, error) {
	raw, err := r.src.NativeText(ctx)
	if err != nil {
		return r.afterNative(), fmt.Errorf("native extraction: %w", err)
	}

	ok, st := textlayer.Acceptable(textlayer.Scrub(raw), r.profile.Native)
	if !ok {
		return r.afterNative(), fmt.Errorf("%w: native layer chars=%d ratio=%.2f words=%d",
			domain.ErrInsufficientText, st.Total, st.Ratio, st.Tokens)
	}

	r.text = assembleNative(raw)
	r.native = true
	return StateDone, nil
}

// conversionAttempt converts the document to a scratch PDF and reads it
// page by page. The scratch file is removed however the attempt ends.
func (r *run) conversionAttempt(ctx context.Context) (State, error) {
	conv, ok := r.src.(Converter)
	if !ok {
		return StatePerPageOCR, errors.New("format has no converter")
	}
	if !r.c.cfg.OCR {
		return StatePerPageOCR, errors.New("ocr disabled, conversion skipped")
	}

	var pages []string
	var stats PageStats
	err := scratch.With(r.c.cfg.ScratchDir, "ragplants-*.pdf", func(path string) error {
		converted, err := conv.ConvertPDF(ctx, path)
		if err != nil {
			return err
		}
		pages, stats, err = r.readPages(ctx, converted)
		if err != nil {
			return err
		}
		if n := textlayer.CharCount(strings.Join(pages, "\n\n")); n <= MinConvertedOutput {
			return fmt.Errorf("%w: converted document produced %d chars", domain.ErrInsufficientText, n)
		}
		return nil
	})
	if err != nil {
		return StatePerPageOCR, fmt.Errorf("conversion: %w", err)
	}

	r.text = strings.Join(pages, "\n\n")
	r.stats = stats
	return StateDone, nil
}

// perPageOCR reads the original document page by page.
func (r *run) perPageOCR(ctx context.Context) (State, error) {
	pages, stats, err := r.readPages(ctx, r.src)
	r.stats = stats
	if err != nil {
		return StateDone, fmt.Errorf("per-page: %w", err)
	}
	if len(pages) == 0 {
		return StateDone, fmt.Errorf("%w: no page produced usable text", domain.ErrInsufficientText)
	}
	r.text = strings.Join(pages, "\n\n")
	return StateDone, nil
}

// readPages classifies every page of src, recognises pages that need it,
// and returns the marked, scrubbed pages that clear MinPageOutput.
func (r *run) readPages(ctx context.Context, src Source) ([]string, PageStats, error) {
	var stats PageStats

	n, err := src.PageCount(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("page count: %w", err)
	}
	stats.Total = n

	out := make([]string, 0, n)
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return out, stats, err
		}

		text := r.pageText(ctx, src, page, &stats)
		text = textlayer.Scrub(text)
		if textlayer.CharCount(text) < MinPageOutput {
			stats.Dropped++
			continue
		}
		out = append(out, fmt.Sprintf(PageMarker, page)+"\n"+text)
	}

	logger.Debug("cascade: %d pages: native=%d ocr=%d fallback=%d capped=%d dropped=%d",
		stats.Total, stats.Native, stats.Recognized, stats.Fallback, stats.Capped, stats.Dropped)
	return out, stats, nil
}

// pageText returns the best text for one page.
func (r *run) pageText(ctx context.Context, src Source, page int, stats *PageStats) string {
	native, err := src.PageText(ctx, page)
	if err != nil {
		logger.Debug("cascade: page %d text layer: %v", page, err)
		native = ""
	}

	v := textlayer.Classify(native, r.profile.PageRatio)
	logger.Debug("cascade: page %d %s", page, v)
	if v.Native() {
		stats.Native++
		return native
	}
	if !r.c.cfg.OCR {
		return native
	}

	if limit := r.c.cfg.PageLimit; limit > 0 && r.ocrUsed >= limit {
		if !r.partial {
			logger.Warn("cascade: OCR page limit (%d) reached at page %d, using text layer for the rest", limit, page)
		}
		r.partial = true
		stats.Capped++
		return native
	}

	recognized := ""
	img, err := src.RenderPage(ctx, page, r.c.cfg.DPI)
	if err != nil {
		logger.Debug("cascade: page %d render: %v", page, err)
	} else {
		recognized = r.c.engine.Recognize(ctx, img)
	}

	if strings.TrimSpace(recognized) != "" {
		r.ocrUsed++
		stats.Recognized++
		return recognized
	}

	stats.Fallback++
	if strings.TrimSpace(native) != "" {
		r.ocrUsed++
	}
	return native
}

func (r *run) result() Result {
	res := Result{
		Text:    r.text,
		Trace:   r.trace,
		Pages:   r.stats,
		Partial: r.partial,
	}

	switch {
	case strings.TrimSpace(r.text) == "":
		res.Text = ""
		reason := "no usable text"
		if r.lastFail != nil {
			reason += ": " + r.lastFail.Error()
		}
		res.Outcome = domain.Skip(reason)
	case r.native:
		res.Outcome = domain.Success("native text layer")
	case r.partial:
		res.Outcome = domain.Degraded(fmt.Sprintf("ocr page limit reached, %d pages recognised", r.stats.Recognized))
	default:
		res.Outcome = domain.Degraded(fmt.Sprintf("%d of %d pages recognised", r.stats.Recognized, r.stats.Total))
	}
	return res
}

// assembleNative formats an accepted text layer. Multi-page layers get
// page markers; pages below MinPageOutput are dropped.
func assembleNative(raw string) string {
	pages := strings.Split(raw, "\f")
	if len(pages) == 1 {
		return textlayer.Scrub(raw)
	}
	out := make([]string, 0, len(pages))
	for i, p := range pages {
		p = textlayer.Scrub(p)
		if textlayer.CharCount(p) < MinPageOutput {
			continue
		}
		out = append(out, fmt.Sprintf(PageMarker, i+1)+"\n"+p)
	}
	return strings.Join(out, "\n\n")
}
