package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
)

const convictionText = `[A-Za-z\s\-\(\)0-9\.&/]`

var (
	convictionCount = regexp.MustCompile(`(?i)\**\s*Number\s+of\s+Convictions:\s*(\d+)\s*\**`)
	nextHeading     = regexp.MustCompile(`(?m)^\*+|^[A-Z*]{3,}|(?i:END OF REPORT)`)

	fineNote    = regexp.MustCompile(`(?i)\s*Fine:\s*\$?[\d,.]+\s*`)
	penaltyNote = regexp.MustCompile(`(?i)\s*Penalty.*$`)

	shortDate       = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})[ \t]*\n`)
	shortDateAtLine = regexp.MustCompile(`\n\d{1,2}/\d{1,2}/\d{4}|\n---|\n\*`)
	convictionBody  = regexp.MustCompile(`^` + convictionText + `+$`)
)

var convictionPlaceholders = map[string]bool{"-": true, "*": true, "N": true, "None": true, "NONE": true}

// convictionPattern is one line shape; it yields raw (date, description) pairs
type convictionPattern func(section string) [][2]string

// convictionPatterns are tried in order until the printed count is reached
var convictionPatterns = []convictionPattern{
	// DISOBEY LEGAL SIGN
	// OFFENCE DATE 2024/12/28
	descriptionThenDate(regexp.MustCompile(`(?im)(` + convictionText + `+?)\s*\n\s*OFFENCE\s+DATE\s+(\d{1,2}/\d{1,2}/\d{4}|\d{4}/\d{1,2}/\d{1,2})`)),
	// 01/15/2023 SPEEDING 20 KM OVER Fine: $280
	dateThenDescription(regexp.MustCompile(`(?im)(\d{1,2}/\d{1,2}/\d{4})\s+(` + convictionText + `+?)(?:\s+Fine:\s*\$?[\d,.]+|\s+Penalty.*)?(?:\n|$)`)),
	// 01/15/2023 - SPEEDING
	dateThenDescription(regexp.MustCompile(`(?im)(\d{1,2}/\d{1,2}/\d{4})\s*-\s*(` + convictionText + `+?)(?:\n|$)`)),
	// 1. 01/15/2023 SPEEDING
	dateThenDescription(regexp.MustCompile(`(?im)^\s*\d+\.\s+(\d{1,2}/\d{1,2}/\d{4})\s+(` + convictionText + `+?)$`)),
	dateBlocks,
}

func descriptionThenDate(re *regexp.Regexp) convictionPattern {
	return func(section string) [][2]string {
		var out [][2]string
		for _, m := range re.FindAllStringSubmatch(section, -1) {
			// the description class spans newlines; keep the line right above the date
			lines := strings.Split(strings.TrimSpace(m[1]), "\n")
			out = append(out, [2]string{m[2], lines[len(lines)-1]})
		}
		return out
	}
}

func dateThenDescription(re *regexp.Regexp) convictionPattern {
	return func(section string) [][2]string {
		var out [][2]string
		for _, m := range re.FindAllStringSubmatch(section, -1) {
			out = append(out, [2]string{m[1], m[2]})
		}
		return out
	}
}

// dateBlocks handles a date on its own line followed by a description that
// runs until the next date line, a "---" rule, a "*" line or the end.
func dateBlocks(section string) [][2]string {
	var out [][2]string
	for _, loc := range shortDate.FindAllStringSubmatchIndex(section, -1) {
		rest := section[loc[1]:]
		if end := shortDateAtLine.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		desc := strings.TrimSpace(rest)
		if desc == "" || !convictionBody.MatchString(desc) {
			continue
		}
		out = append(out, [2]string{section[loc[2]:loc[3]], desc})
	}
	return out
}

// ConvictionsResult is the convictions extractor output
type ConvictionsResult struct {
	Count       int
	Convictions []domain.Conviction
	Warnings    []string
}

// ExtractConvictions reads the printed convictions count and, when it is
// positive, collects up to that many distinct convictions. Fewer records than
// the count is accepted and reported as a warning.
func ExtractConvictions(document string) ConvictionsResult {
	var res ConvictionsResult

	loc := convictionCount.FindStringSubmatchIndex(document)
	if loc == nil {
		return res
	}
	res.Count, _ = strconv.Atoi(document[loc[2]:loc[3]])
	if res.Count == 0 {
		return res
	}

	section, ok := ConvictionsSegment.Find(document)
	if !ok {
		section = document[loc[1]:]
		if next := nextHeading.FindStringIndex(section); next != nil {
			section = section[:next[0]]
		}
	}

	seen := make(map[domain.Conviction]bool)
	for _, pattern := range convictionPatterns {
		for _, pair := range pattern(section) {
			c, ok := newConviction(pair[0], pair[1])
			if !ok || seen[c] {
				continue
			}
			seen[c] = true
			res.Convictions = append(res.Convictions, c)
		}
		if len(res.Convictions) >= res.Count {
			break
		}
	}

	if len(res.Convictions) < res.Count {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"convictions: report lists %d, extracted %d", res.Count, len(res.Convictions)))
	}
	return res
}

func newConviction(rawDate, rawDesc string) (domain.Conviction, bool) {
	date, ok := canonicalDate(strings.TrimSpace(rawDate))
	if !ok {
		return domain.Conviction{}, false
	}

	desc := collapseSpaces(rawDesc)
	desc = fineNote.ReplaceAllString(desc, "")
	desc = penaltyNote.ReplaceAllString(desc, "")
	desc = strings.Trim(desc, " -")
	if len(desc) <= 2 || convictionPlaceholders[desc] {
		return domain.Conviction{}, false
	}
	return domain.Conviction{Date: date, Description: desc}, true
}
