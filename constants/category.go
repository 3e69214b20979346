package constants

// Category is an expense category label from the fixed taxonomy.
type Category string

const (
	MealsAndDining        Category = "Meals & Dining"
	Travel                Category = "Travel"
	OfficeSupplies        Category = "Office Supplies"
	Equipment             Category = "Equipment"
	SoftwareSubscriptions Category = "Software & Subscriptions"
	Utilities             Category = "Utilities"
	Marketing             Category = "Marketing"
	ProfessionalServices  Category = "Professional Services"
	Transportation        Category = "Transportation"
	Other                 Category = "Other"
)

// Categories is the fixed, ordered taxonomy. "Other" is the terminal
// catch-all and must stay last. The scan prompt names these labels
// verbatim, so the model is constrained to the same set.
var Categories = []Category{
	MealsAndDining,
	Travel,
	OfficeSupplies,
	Equipment,
	SoftwareSubscriptions,
	Utilities,
	Marketing,
	ProfessionalServices,
	Transportation,
	Other,
}

// AsStringSlice returns the taxonomy labels in order.
func AsStringSlice() []string {
	result := make([]string, len(Categories))
	for i, cat := range Categories {
		result[i] = string(cat)
	}
	return result
}

// Normalize maps extracted category text onto the taxonomy. Matching is
// exact and case-sensitive; anything else falls back to Other. No fuzzy
// matching: the prompt already constrains the model to these labels.
func Normalize(input string) Category {
	for _, cat := range Categories {
		if input == string(cat) {
			return cat
		}
	}
	return Other
}

// IsValid reports whether input is exactly one of the taxonomy labels.
func IsValid(input string) bool {
	for _, cat := range Categories {
		if input == string(cat) {
			return true
		}
	}
	return false
}
