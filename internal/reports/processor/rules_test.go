package processor

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRule_FindOrder(t *testing.T) {
	r := Rule{
		{Pattern: regexp.MustCompile(`Licence Number:\s*(\S+)`), Group: 1, Scope: ScopeWindow},
		{Pattern: regexp.MustCompile(`DLN:\s*(\S+)`), Group: 1, Scope: ScopeDocument},
	}

	got, ok := r.Find("Licence Number: W1", "DLN: D1\nLicence Number: W2")
	assert.True(t, ok)
	assert.Equal(t, "W1", got, "window probe is tried first")

	got, ok = r.Find("nothing here", "DLN: D1")
	assert.True(t, ok)
	assert.Equal(t, "D1", got, "falls back to document scope")

	_, ok = r.Find("nothing", "still nothing")
	assert.False(t, ok)
}

func TestRule_CleanMissFallsThrough(t *testing.T) {
	r := rule(`Conditions:\s*([^\n]+)`, `Restrictions:\s*([^\n]+)`).withClean(func(s string) string {
		if s == "*/N" {
			return ""
		}
		return s
	})

	got, ok := r.FindIn("Conditions: */N\nRestrictions: corrective lenses")
	assert.True(t, ok)
	assert.Equal(t, "corrective lenses", got)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "2019 HONDA - CIVIC", collapseSpaces("  2019   HONDA\n- CIVIC "))
	assert.Equal(t, "7794.00", stripThousands("7,794.00"))
	assert.Equal(t, "first", firstLine(" first \nsecond"))
	assert.True(t, strings.HasPrefix(firstLine("only"), "only"))
}
