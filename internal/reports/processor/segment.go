package processor

import "regexp"

// Segment describes a named section of a report: where it starts and which
// anchors end it. The first terminator after the start is authoritative even
// when later anchors exist.
type Segment struct {
	Name  string
	Start *regexp.Regexp
	// IncludeStart keeps the start anchor text inside the returned slice.
	IncludeStart bool
	End          []*regexp.Regexp
	// RequireEnd makes Find fail when no terminator follows the start.
	// Otherwise the segment runs to the end of the text.
	RequireEnd bool
}

// Find returns the slice of text covered by the segment
func (s Segment) Find(text string) (string, bool) {
	loc := s.Start.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	from := loc[1]
	if s.IncludeStart {
		from = loc[0]
	}

	// terminators are searched after the whole start anchor so that the
	// anchor itself can never close its own segment
	rest := text[loc[1]:]
	end := -1
	for _, re := range s.End {
		if m := re.FindStringIndex(rest); m != nil && (end < 0 || m[0] < end) {
			end = m[0]
		}
	}

	if end < 0 {
		if s.RequireEnd {
			return "", false
		}
		return text[from:], true
	}
	return text[from : loc[1]+end], true
}

// Sections shared by both report families.
var (
	// Policy1Segment covers the block for policy number 1 up to the next
	// numbered policy marker. "Policy #10" does not open it.
	Policy1Segment = Segment{
		Name:         "policy1",
		Start:        regexp.MustCompile(`Policy #1(?:\D|$)`),
		IncludeStart: true,
		End:          []*regexp.Regexp{regexp.MustCompile(`Policy\s*#\d+`)},
	}

	// PolicyListingSegment is the "Policies" heading listing every term.
	PolicyListingSegment = Segment{
		Name:  "policies",
		Start: regexp.MustCompile(`(?i)Policies\s*\n`),
		End: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Claims`),
			regexp.MustCompile(`(?i)Page \d+ of \d+`),
		},
	}

	// ClaimsSegment runs from the "Claims" heading to "Previous Inquiries".
	ClaimsSegment = Segment{
		Name:       "claims",
		Start:      regexp.MustCompile(`(?i)Claims\s*\n`),
		End:        []*regexp.Regexp{regexp.MustCompile(`(?i)Previous Inquiries`)},
		RequireEnd: true,
	}

	// ClaimsToEndSegment is used when the claims block is not followed by
	// an inquiries section.
	ClaimsToEndSegment = Segment{
		Name:  "claims",
		Start: regexp.MustCompile(`(?i)Claims\s*\n`),
	}

	// ConvictionsSegment is the MVR table introduced by the
	// "DATE CONVICTIONS, DISCHARGES AND OTHER ACTIONS" header line.
	ConvictionsSegment = Segment{
		Name:  "convictions",
		Start: regexp.MustCompile(`(?i)DATE\s+CONVICTIONS[^\n]*\n`),
		End: []*regexp.Regexp{
			regexp.MustCompile(`\*{3,}`),
			regexp.MustCompile(`(?i)END OF REPORT`),
			regexp.MustCompile(`(?i)Licence Number`),
			regexp.MustCompile(`(?m)^$`),
		},
	}
)

// FirstSegment returns the first of segs that matches text
func FirstSegment(text string, segs ...Segment) (string, bool) {
	for _, s := range segs {
		if out, ok := s.Find(text); ok {
			return out, true
		}
	}
	return "", false
}
