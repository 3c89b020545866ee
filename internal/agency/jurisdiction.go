package agency

import "strings"

// Jurisdiction is a normalised state name: lowercase, spaces as underscores.
type Jurisdiction string

const (
	California   Jurisdiction = "california"
	Colorado     Jurisdiction = "colorado"
	Kentucky     Jurisdiction = "kentucky"
	Nebraska     Jurisdiction = "nebraska"
	NewMexico    Jurisdiction = "new_mexico"
	NorthDakota  Jurisdiction = "north_dakota"
	Ohio         Jurisdiction = "ohio"
	Pennsylvania Jurisdiction = "pennsylvania"
	Tennessee    Jurisdiction = "tennessee"
	Texas        Jurisdiction = "texas"
	WestVirginia Jurisdiction = "west_virginia"
)

// Jurisdictions is the closed set of jurisdictions with at least one agency.
var Jurisdictions = []Jurisdiction{
	California, Colorado, Kentucky, Nebraska, NewMexico, NorthDakota,
	Ohio, Pennsylvania, Tennessee, Texas, WestVirginia,
}

// Normalize converts a state display name into its lookup key.
func Normalize(state string) Jurisdiction {
	fields := strings.Fields(strings.ToLower(state))
	return Jurisdiction(strings.Join(fields, "_"))
}

// ParseJurisdiction reports whether the state is one of the known jurisdictions.
func ParseJurisdiction(state string) (Jurisdiction, bool) {
	j := Normalize(state)
	for _, known := range Jurisdictions {
		if j == known {
			return j, true
		}
	}
	return j, false
}

func (j Jurisdiction) String() string {
	return string(j)
}
