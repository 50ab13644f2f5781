package entities

// Category is the sales moment an insight addresses
type Category string

const (
	CategoryBuyingSignal Category = "BUYING_SIGNAL"
	CategoryPrice        Category = "PRICE"
	CategoryObjection    Category = "OBJECTION"
	CategoryHowItWorks   Category = "HOW_IT_WORKS"
	CategoryNextStep     Category = "NEXT_STEP"
	CategoryRisk         Category = "RISK"
	// CategoryOther is used by the contextual channel, never by keyword rules.
	CategoryOther Category = "OTHER"
)

// Categories lists every known category, keyword categories first
var Categories = []Category{
	CategoryBuyingSignal,
	CategoryPrice,
	CategoryObjection,
	CategoryHowItWorks,
	CategoryNextStep,
	CategoryRisk,
	CategoryOther,
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
