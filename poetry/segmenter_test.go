package poetry

import (
	"testing"
)

func segment(elements ...Element) []PoemRecord {
	return Segment(elements, SegmentOptions{Detector: fixedLanguage("en")})
}

func TestSegment_HeadingAtEndIsDropped(t *testing.T) {
	t.Parallel()

	got := segment(heading("Lonely Title"))
	if len(got) != 0 {
		t.Fatalf("got=%+v want none", got)
	}
}

func TestSegment_BodyBeforeFirstHeadingIgnored(t *testing.T) {
	t.Parallel()

	got := segment(body("2023-01-01 preface"), body("more preface"))
	if len(got) != 0 {
		t.Fatalf("got=%+v want none", got)
	}

	got = segment(body("stray line"), heading("A"), body("2023-01-01 hello"))
	if len(got) != 1 || got[0].Body != "hello" {
		t.Fatalf("got=%+v", got)
	}
}

func TestSegment_TwoHeadingsSecondEmpty(t *testing.T) {
	t.Parallel()

	got := segment(
		heading("A"),
		body("2023-05-06"),
		body("hello"),
		body("world"),
		heading("B"),
	)
	if len(got) != 1 {
		t.Fatalf("len=%d want 1: %+v", len(got), got)
	}
	p := got[0]
	if p.Title != "A" || p.Slug != "a" || p.Date != "2023-05-06" || p.Body != "hello world" || p.Language != "en" {
		t.Fatalf("record=%+v", p)
	}
}

func TestSegment_DateLineCarriesFirstBodyLine(t *testing.T) {
	t.Parallel()

	got := segment(
		heading("Blue Hour"),
		body("2023-01-02 \t the light goes"),
		body("  and stays  "),
	)
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Date != "2023-01-02" || got[0].Body != "the light goes and stays" {
		t.Fatalf("record=%+v", got[0])
	}
}

func TestSegment_DateOnlyThenHeadingIsDropped(t *testing.T) {
	t.Parallel()

	got := segment(heading("A"), body("2023-01-01"), heading("B"), body("2023-01-02 b"))
	if len(got) != 1 || got[0].Title != "B" {
		t.Fatalf("got=%+v", got)
	}
}

func TestSegment_WhitespaceCollapse(t *testing.T) {
	t.Parallel()

	got := segment(
		heading("V"),
		body("d1"),
		body("one\vtwo", "", "  three"),
		body("four\n\nfive"),
	)
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Body != "one two three four five" {
		t.Fatalf("Body=%q", got[0].Body)
	}
}

func TestSegment_SkipsEmptyStylelessAndNonParagraphs(t *testing.T) {
	t.Parallel()

	got := segment(
		Element{},
		heading("A"),
		Element{Paragraph: &Paragraph{Style: StyleBody, Runs: []string{"   ", "\n"}}},
		Element{Paragraph: &Paragraph{Runs: []string{"no style"}}},
		Element{Paragraph: &Paragraph{Style: "TITLE", Runs: []string{"other style"}}},
		body("2023-01-01 real"),
		Element{},
	)
	if len(got) != 1 || got[0].Date != "2023-01-01" || got[0].Body != "real" {
		t.Fatalf("got=%+v", got)
	}
}

func TestSegment_PreservesOrderAndDetectsLanguage(t *testing.T) {
	t.Parallel()

	detector := LanguageDetectorFunc(func(text string) string {
		if text == "bonjour" {
			return "fr"
		}
		return ""
	})
	got := Segment([]Element{
		heading("Zeta"), body("d1 bonjour"),
		heading("Alpha"), body("d2 ..."),
	}, SegmentOptions{Detector: detector})
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Title != "Zeta" || got[1].Title != "Alpha" {
		t.Fatalf("order=%q,%q", got[0].Title, got[1].Title)
	}
	if got[0].Language != "fr" || got[1].Language != LanguageUnknown {
		t.Fatalf("languages=%q,%q", got[0].Language, got[1].Language)
	}
}

func TestSegment_CustomStyles(t *testing.T) {
	t.Parallel()

	got := Segment([]Element{
		{Paragraph: &Paragraph{Style: "HEADING_2", Runs: []string{"Custom"}}},
		{Paragraph: &Paragraph{Style: "BODY", Runs: []string{"d", "line"}}},
	}, SegmentOptions{HeadingStyle: "HEADING_2", BodyStyle: "BODY", Detector: fixedLanguage("en")})
	if len(got) != 1 || got[0].Date != "d" || got[0].Body != "line" {
		t.Fatalf("got=%+v", got)
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	t.Parallel()

	if got := segment(); len(got) != 0 {
		t.Fatalf("got=%+v", got)
	}
}

func TestParagraphText(t *testing.T) {
	t.Parallel()

	p := Paragraph{Runs: []string{" Hello", "", "world \n"}}
	if got := p.Text(); got != "Hello world" {
		t.Fatalf("Text=%q", got)
	}
}

func TestSegmentStateString(t *testing.T) {
	t.Parallel()

	for state, want := range map[SegmentState]string{
		StateIdle:           "idle",
		StateAwaitingDate:   "awaiting_date",
		StateCollectingBody: "collecting_body",
		SegmentState(42):    "unknown",
	} {
		if got := state.String(); got != want {
			t.Fatalf("%d.String()=%q want %q", state, got, want)
		}
	}
}
