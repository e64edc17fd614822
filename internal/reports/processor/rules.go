package processor

import (
	"regexp"
	"strings"
)

// Scope selects which text a probe searches
type Scope int

const (
	// ScopeWindow searches the local window (a claim, a policy block).
	ScopeWindow Scope = iota
	// ScopeDocument searches the full report text.
	ScopeDocument
)

// Probe is one matcher strategy of a Rule
type Probe struct {
	Pattern *regexp.Regexp
	// Group is the capture group holding the value; 0 means the whole match.
	Group int
	Scope Scope
	// Clean post-processes the captured value. A probe whose cleaned value is
	// empty counts as a miss and the next probe is tried.
	Clean func(string) string
}

// Rule is an ordered list of probes; the first probe yielding a value wins
type Rule []Probe

// Find runs the probes in order against window or document text
func (r Rule) Find(window, document string) (string, bool) {
	for _, p := range r {
		text := window
		if p.Scope == ScopeDocument {
			text = document
		}

		m := p.Pattern.FindStringSubmatch(text)
		if m == nil || p.Group >= len(m) {
			continue
		}

		v := strings.TrimSpace(m[p.Group])
		if p.Clean != nil {
			v = p.Clean(v)
		}
		if v != "" {
			return v, true
		}
	}
	return "", false
}

// FindIn is Find for rules whose probes all search the same text
func (r Rule) FindIn(text string) (string, bool) {
	return r.Find(text, text)
}

// probe is shorthand for a document-scoped probe on capture group 1
func probe(pattern string) Probe {
	return Probe{Pattern: regexp.MustCompile(pattern), Group: 1, Scope: ScopeDocument}
}

// rule builds a document-scoped Rule from patterns, each capturing group 1
func rule(patterns ...string) Rule {
	r := make(Rule, 0, len(patterns))
	for _, p := range patterns {
		r = append(r, probe(p))
	}
	return r
}

// withClean returns a copy of r whose probes all apply fn
func (r Rule) withClean(fn func(string) string) Rule {
	out := make(Rule, len(r))
	for i, p := range r {
		p.Clean = fn
		out[i] = p
	}
	return out
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	commaSep      = strings.NewReplacer(",", "")
)

func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func stripThousands(s string) string {
	return strings.TrimSpace(commaSep.Replace(s))
}

func stripSpaces(s string) string {
	return whitespaceRun.ReplaceAllString(s, "")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
