package processor

import "time"

// CanonicalDateLayout is the single encoding every date field is emitted in
const CanonicalDateLayout = "01/02/2006"

// dateLayouts is tried in order. Month-first wins over day-first for
// ambiguous input such as 03/02/2020.
var dateLayouts = []string{
	"1/2/2006", "1-2-2006",
	"1/2/06", "1-2-06",
	"2/1/2006", "2-1-2006",
	"2006-1-2", "2006/1/2",
}

// NormalizeDate reformats s as MM/DD/YYYY using the first layout that parses
// it. Input matching no layout is returned unchanged.
func NormalizeDate(s string) string {
	if out, ok := canonicalDate(s); ok {
		return out
	}
	return s
}

// canonicalDate is NormalizeDate with an explicit success flag, so callers can
// leave a field absent instead of storing an unparsed fragment.
func canonicalDate(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalDateLayout), true
		}
	}
	return "", false
}
