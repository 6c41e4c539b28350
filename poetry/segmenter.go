package poetry

import (
	"strings"
	"unicode"
)

// Named paragraph styles used by the poem document.
const (
	StyleHeading = "HEADING_4"
	StyleBody    = "NORMAL_TEXT"
)

// Element is one structural unit of an imported document. Only paragraphs carry content;
// tables, section breaks and the like have a nil Paragraph and are skipped.
type Element struct {
	Paragraph *Paragraph
}

// Paragraph is a styled paragraph made of text runs.
type Paragraph struct {
	Style string
	Runs  []string
}

// Text joins the trimmed, non-empty runs with single spaces.
func (p Paragraph) Text() string {
	parts := make([]string, 0, len(p.Runs))
	for _, r := range p.Runs {
		if r = strings.TrimSpace(r); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// SegmentOptions controls Segment. Zero values select StyleHeading, StyleBody and
// NewLanguageDetector.
type SegmentOptions struct {
	HeadingStyle string
	BodyStyle    string
	Detector     LanguageDetector
}

func (o *SegmentOptions) defaults() {
	if o.HeadingStyle == "" {
		o.HeadingStyle = StyleHeading
	}
	if o.BodyStyle == "" {
		o.BodyStyle = StyleBody
	}
	if o.Detector == nil {
		o.Detector = NewLanguageDetector()
	}
}

// SegmentState is the position of the segmenter within the current poem.
type SegmentState int

const (
	// StateIdle: no heading seen yet.
	StateIdle SegmentState = iota
	// StateAwaitingDate: a heading was seen; the next body line starts with the date.
	StateAwaitingDate
	// StateCollectingBody: body lines accumulate until the next heading or end of input.
	StateCollectingBody
)

func (s SegmentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingDate:
		return "awaiting_date"
	case StateCollectingBody:
		return "collecting_body"
	default:
		return "unknown"
	}
}

// Segment walks the document elements in order and emits one PoemRecord per heading
// that is followed by body content.
//
// A heading starts a poem; the first body line after it carries the date token and,
// optionally, the first line of the poem. Headings with no body are dropped, body lines
// before the first heading are ignored, and output order is input order.
func Segment(elements []Element, opts SegmentOptions) []PoemRecord {
	opts.defaults()
	sg := segmenter{opts: opts}
	for _, el := range elements {
		if el.Paragraph == nil {
			continue
		}
		line := el.Paragraph.Text()
		if line == "" {
			continue
		}
		sg.step(el.Paragraph.Style, line)
	}
	sg.flush()
	return sg.out
}

type segmenter struct {
	opts    SegmentOptions
	state   SegmentState
	current PoemRecord
	lines   []string
	out     []PoemRecord
}

// step applies one non-empty styled line to the state machine.
func (s *segmenter) step(style, line string) {
	if style == s.opts.HeadingStyle {
		s.flush()
		s.current = PoemRecord{Title: line, Slug: NormalizeTitle(line)}
		s.lines = s.lines[:0]
		s.state = StateAwaitingDate
		return
	}
	if style != s.opts.BodyStyle {
		return
	}

	switch s.state {
	case StateAwaitingDate:
		date, rest := splitFirstField(line)
		s.current.Date = date
		if rest != "" {
			s.lines = append(s.lines, rest)
		}
		s.state = StateCollectingBody
	case StateCollectingBody:
		s.lines = append(s.lines, strings.TrimSpace(line))
	}
}

// flush emits the current poem if it has body lines.
func (s *segmenter) flush() {
	if s.state == StateIdle || len(s.lines) == 0 {
		return
	}
	p := s.current
	p.Body = collapseWhitespace(strings.Join(s.lines, " "))
	p.Language = detectLanguage(s.opts.Detector, p.Body)
	s.out = append(s.out, p)
	s.lines = nil
}

// splitFirstField splits on the first whitespace run.
func splitFirstField(line string) (first, rest string) {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// collapseWhitespace replaces every whitespace run (vertical tabs included) with one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
