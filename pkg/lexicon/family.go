package lexicon

// Family is one keyword family of the lexicon.
type Family string

const (
	FamilyItem     Family = "item"
	FamilyColor    Family = "color"
	FamilyPrice    Family = "price"
	FamilyOccasion Family = "occasion"
	FamilySeason   Family = "season"
	FamilyQuality  Family = "quality"
	FamilyOutfit   Family = "outfit"
)

// Families lists every family in evaluation order.
var Families = []Family{
	FamilyItem,
	FamilyColor,
	FamilyPrice,
	FamilyOccasion,
	FamilySeason,
	FamilyQuality,
	FamilyOutfit,
}

// closedValues holds the fixed enumerations. Item and color are open sets.
var closedValues = map[Family][]string{
	FamilyPrice:    {"very_low", "low", "medium", "high", "very_high"},
	FamilyOccasion: {"wedding", "work", "party", "casual", "sports", "formal", "beach", "home", "school"},
	FamilySeason:   {"summer", "winter", "spring", "autumn"},
	FamilyQuality:  {"excellent", "very_good", "good", "acceptable"},
	FamilyOutfit:   {"complete"},
}

// ClosedValues returns the allowed values of a closed family, or nil for an
// open family.
func ClosedValues(f Family) []string {
	vals := closedValues[f]
	if vals == nil {
		return nil
	}
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

func validFamily(name string) (Family, bool) {
	for _, f := range Families {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

func allowedValue(f Family, value string) bool {
	vals, closed := closedValues[f]
	if !closed {
		return true
	}
	return contains(vals, value)
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
