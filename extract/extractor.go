package extract

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sentinel SKUs. A description carrying one of them has no usable
// business identifier.
const (
	SKUUnknown = "UNKNOWN"
	SKUEmpty   = "EMPTY"
	SKUError   = "ERROR"
)

// Placeholder summaries paired with the sentinel SKUs.
const (
	SummaryMissing = "Без опису"
	SummaryEmpty   = "Порожньо"
	SummaryError   = "Помилка"
)

// Description is the normalized content of one description document.
type Description struct {
	Summary        string
	Details        []string
	Covering       *string
	HasGlass       bool
	GlassLabel     *string
	HasOrientation bool
	SKU            string
}

// HasUsableSKU reports whether SKU is a real identifier.
func (d Description) HasUsableSKU() bool {
	switch d.SKU {
	case SKUUnknown, SKUEmpty, SKUError, "":
		return false
	}
	return true
}

// Parsed reports whether a document was found and read.
func (d Description) Parsed() bool {
	return d.SKU != SKUUnknown && d.SKU != SKUError
}

// Policy holds the extraction choices that varied between catalog revisions.
type Policy struct {
	// SKUFirstToken takes only the first whitespace-delimited token of the
	// first line as SKU instead of the whole line.
	SKUFirstToken bool
	// CoveringFallback uses the second line as covering when no line
	// matches a covering keyword.
	CoveringFallback bool
	// SummaryWindow is how many leading lines are considered for the summary.
	SummaryWindow int
	// SummaryParts is how many surviving lines are joined.
	SummaryParts int
	// SummarySeparator joins the summary parts.
	SummarySeparator string
}

func DefaultPolicy() Policy {
	return Policy{
		SummaryWindow:    3,
		SummaryParts:     2,
		SummarySeparator: " • ",
	}
}

// Extractor turns description documents into Descriptions.
type Extractor struct {
	reader DocumentReader
	vocab  Vocabulary
	policy Policy
}

func New(reader DocumentReader, vocab Vocabulary, policy Policy) *Extractor {
	if reader == nil {
		reader = Unavailable{}
	}
	if policy.SummaryWindow <= 0 {
		policy.SummaryWindow = 3
	}
	if policy.SummaryParts <= 0 {
		policy.SummaryParts = 2
	}
	if policy.SummarySeparator == "" {
		policy.SummarySeparator = " • "
	}
	return &Extractor{
		reader: reader,
		vocab:  lowerVocabulary(vocab),
		policy: policy,
	}
}

// Extract never fails: missing, unreadable and empty documents produce a
// sentinel Description.
func (e *Extractor) Extract(path string) Description {
	if path == "" {
		return sentinel(SummaryMissing, SKUUnknown)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sentinel(SummaryMissing, SKUUnknown)
		}
		return sentinel(SummaryError, SKUError)
	}

	raw, err := e.reader.ReadLines(path)
	if err != nil {
		if errors.Is(err, ErrReaderUnavailable) {
			return sentinel(SummaryMissing, SKUUnknown)
		}
		return sentinel(SummaryError, SKUError)
	}

	lines := cleanLines(raw)
	if len(lines) == 0 {
		return sentinel(SummaryEmpty, SKUEmpty)
	}
	return e.classify(lines)
}

// Lines classifies already-read paragraphs. Blank entries are dropped.
func (e *Extractor) Lines(raw []string) Description {
	lines := cleanLines(raw)
	if len(lines) == 0 {
		return sentinel(SummaryEmpty, SKUEmpty)
	}
	return e.classify(lines)
}

func (e *Extractor) classify(lines []string) Description {
	lower := make([]string, len(lines))
	for i, l := range lines {
		lower[i] = strings.ToLower(l)
	}
	fullText := strings.Join(lower, " ")

	d := Description{
		Details: lines,
		SKU:     e.sku(lines[0]),
	}

	coveringIdx := -1
	for i, l := range lower {
		if containsAny(l, e.vocab.Covering) {
			coveringIdx = i
			break
		}
	}
	if coveringIdx < 0 && e.policy.CoveringFallback && len(lines) > 1 {
		coveringIdx = 1
	}
	if coveringIdx >= 0 {
		d.Covering = ptr(lines[coveringIdx])
	}

	glassIdx := -1
	for i, l := range lower {
		if containsAny(l, e.vocab.Glass) {
			glassIdx = i
			break
		}
	}
	switch {
	case glassIdx >= 0 && !containsWord(lower[glassIdx], e.vocab.GlassNegation):
		d.HasGlass = true
		d.GlassLabel = ptr(lines[glassIdx])
	case glassIdx < 0 && containsAny(fullText, e.vocab.Blind):
		d.HasGlass = false
	}

	d.HasOrientation = containsAny(fullText, e.vocab.Orientation)
	d.Summary = e.summary(lines, lower, coveringIdx)
	return d
}

func (e *Extractor) sku(first string) string {
	s := strings.Join(strings.Fields(first), " ")
	if e.policy.SKUFirstToken {
		if f := strings.Fields(s); len(f) > 0 {
			s = f[0]
		}
	}
	s = strings.TrimRight(s, ".,;:!?…")
	s = strings.TrimSpace(s)
	if s == "" {
		return SKUEmpty
	}
	return s
}

func (e *Extractor) summary(lines, lower []string, coveringIdx int) string {
	window := min(e.policy.SummaryWindow, len(lines))
	parts := make([]string, 0, e.policy.SummaryParts)
	for i := 0; i < window; i++ {
		if i == coveringIdx {
			continue
		}
		if containsAny(lower[i], e.vocab.SummaryStop) {
			continue
		}
		if e.vocab.Dimensions != nil && e.vocab.Dimensions.MatchString(lower[i]) {
			continue
		}
		parts = append(parts, lines[i])
		if len(parts) >= e.policy.SummaryParts {
			break
		}
	}
	return strings.Join(parts, e.policy.SummarySeparator)
}

func sentinel(summary, sku string) Description {
	return Description{
		Summary: summary,
		Details: []string{},
		SKU:     sku,
	}
}

func cleanLines(raw []string) []string {
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(norm.NFC.String(l))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// containsWord matches keywords (possibly several words long) on word
// boundaries, so "без" does not match "безпечне".
func containsWord(s string, keywords []string) bool {
	haystack := " " + strings.Join(words(s), " ") + " "
	for _, kw := range keywords {
		w := words(kw)
		if len(w) == 0 {
			continue
		}
		if strings.Contains(haystack, " "+strings.Join(w, " ")+" ") {
			return true
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '’'
	})
}

func lowerVocabulary(v Vocabulary) Vocabulary {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(norm.NFC.String(strings.TrimSpace(s))); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return Vocabulary{
		Covering:      lower(v.Covering),
		Glass:         lower(v.Glass),
		GlassNegation: lower(v.GlassNegation),
		Blind:         lower(v.Blind),
		Orientation:   lower(v.Orientation),
		SummaryStop:   lower(v.SummaryStop),
		Dimensions:    v.Dimensions,
	}
}

func ptr(s string) *string {
	return &s
}
