package models

// VariationType describes the risk/tone posture of a generated draft
type VariationType string

const (
	VariationConservative VariationType = "conservative"
	VariationBalanced     VariationType = "balanced"
	VariationBold         VariationType = "bold"
)

// AllVariations lists every variation type in generation order
var AllVariations = []VariationType{VariationConservative, VariationBalanced, VariationBold}

// PersistedVariation is the variation stored as the generated post of record
const PersistedVariation = VariationBalanced

// IsValid reports whether v is one of the known variation types
func (v VariationType) IsValid() bool {
	switch v {
	case VariationConservative, VariationBalanced, VariationBold:
		return true
	}
	return false
}

// ToneInstruction returns the prompt instruction for the variation
func (v VariationType) ToneInstruction() string {
	switch v {
	case VariationConservative:
		return "Play it safe. Professional, measured, less controversial. Focus on solid insights without bold claims."
	case VariationBalanced:
		return "Middle ground. Professional but personable. Some personality while maintaining credibility."
	case VariationBold:
		return "Take risks. Strong opinions, contrarian takes, bold statements. Be memorable and provocative (but not offensive)."
	}
	return ""
}

// Variations holds one generated text per variation type
type Variations struct {
	Conservative string `json:"conservative"`
	Balanced     string `json:"balanced"`
	Bold         string `json:"bold"`
}

// Get returns the text for the given variation
func (v Variations) Get(t VariationType) string {
	switch t {
	case VariationConservative:
		return v.Conservative
	case VariationBalanced:
		return v.Balanced
	case VariationBold:
		return v.Bold
	}
	return ""
}

// Set stores text for the given variation
func (v *Variations) Set(t VariationType, text string) {
	switch t {
	case VariationConservative:
		v.Conservative = text
	case VariationBalanced:
		v.Balanced = text
	case VariationBold:
		v.Bold = text
	}
}
