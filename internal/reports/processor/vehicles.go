package processor

import (
	"regexp"
	"strings"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
)

var (
	vehicleMarker = regexp.MustCompile(`(?i)Vehicle\s*#(\d+):\s*`)
	vinToken      = regexp.MustCompile(`[A-HJ-NPR-Z0-9]{17}\b`)

	// Some vendors reuse "Vehicle #N:" to assign drivers to roles.
	roleLabel = regexp.MustCompile(`(?i)^(Principal Operator|Named Insured|Self|Spouse|Relationship|Owner)`)
	// Descriptions that are really the tail of a driver or address line.
	notADescription = regexp.MustCompile(`(?i)^(Principal Operator|Named Insured|Self|Spouse|DLN|Ontario|Relationship)`)

	// 2019 HONDA - CIVIC LX - 2HGFC2F59KH123456
	vinSameLine = regexp.MustCompile(`(\d{4}\s+[A-Za-z]+(?:\s*-\s*[^\-\n]+)?)\s*-\s*([A-HJ-NPR-Z0-9]{17})\b`)
	// 2019 HONDA - CIVIC LX
	// 2HGFC2F59KH123456
	vinNextLine = regexp.MustCompile(`(\d{4}\s+[A-Za-z]+(?:\s*-\s*[^\-\n]+)?)\s*\n\s*([A-HJ-NPR-Z0-9]{17})\b`)
)

const minDescriptionLen = 4

// vehicleLayout pulls a description and VIN out of one vehicle block
type vehicleLayout func(block string) (desc, vin string, ok bool)

// vehicleLayouts are tried in order until one yields a usable description
var vehicleLayouts = []vehicleLayout{
	layoutPattern(vinSameLine),
	layoutPattern(vinNextLine),
	layoutInline,
	layoutBeforeVIN,
}

func layoutPattern(re *regexp.Regexp) vehicleLayout {
	return func(block string) (string, string, bool) {
		m := re.FindStringSubmatch(block)
		if m == nil {
			return "", "", false
		}
		return m[1], m[2], true
	}
}

// layoutInline looks for a VIN embedded in one of the first three lines and
// takes the text in front of it.
func layoutInline(block string) (string, string, bool) {
	seen := 0
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if seen++; seen > 3 {
			break
		}
		if loc := vinToken.FindStringIndex(line); loc != nil {
			return line[:loc[0]], line[loc[0]:loc[1]], true
		}
	}
	return "", "", false
}

// layoutBeforeVIN takes the first line of whatever precedes the VIN.
func layoutBeforeVIN(block string) (string, string, bool) {
	loc := vinToken.FindStringIndex(block)
	if loc == nil {
		return "", "", false
	}
	return firstLine(strings.TrimSpace(block[:loc[0]])), block[loc[0]:loc[1]], true
}

func cleanDescription(s string) string {
	return strings.TrimSpace(strings.TrimRight(collapseSpaces(s), " -/:"))
}

// ExtractVehicles lists the vehicles in a Policy #1 segment, in order.
// Blocks without a VIN and role-label blocks are skipped.
func ExtractVehicles(segment string) []domain.Vehicle {
	markers := vehicleMarker.FindAllStringSubmatchIndex(segment, -1)

	var vehicles []domain.Vehicle
	for i, m := range markers {
		end := len(segment)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		number := segment[m[2]:m[3]]
		block := segment[m[1]:end]

		if !vinToken.MatchString(block) || roleLabel.MatchString(strings.TrimSpace(block)) {
			continue
		}

		for _, layout := range vehicleLayouts {
			desc, vin, ok := layout(block)
			if !ok {
				continue
			}
			desc = cleanDescription(desc)
			if len(desc) < minDescriptionLen || notADescription.MatchString(desc) {
				continue
			}
			vehicles = append(vehicles, domain.Vehicle{
				VehicleNumber: number,
				VIN:           vin,
				YearMakeModel: desc,
			})
			break
		}
	}
	return vehicles
}
