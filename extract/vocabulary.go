package extract

import "regexp"

// Vocabulary holds the keyword tables the extractor classifies lines with.
// Every entry is matched against lowercased text.
type Vocabulary struct {
	// Covering names surface-finish materials.
	Covering []string
	// Glass marks a line describing glazing.
	Glass []string
	// GlassNegation cancels Glass when it appears on the glass line.
	// Entries are matched on word boundaries.
	GlassNegation []string
	// Blind marks a solid leaf anywhere in the text.
	Blind []string
	// Orientation marks a left/right hinge choice.
	Orientation []string
	// SummaryStop excludes lines from the summary.
	SummaryStop []string
	// Dimensions excludes size lines such as "2000х800" from the summary.
	// Nil disables the check.
	Dimensions *regexp.Regexp
}

var dimensionPattern = regexp.MustCompile(`\d+\s*[xх×*]\s*\d+`)

// UkrainianVocabulary is the production table used for the storefront.
func UkrainianVocabulary() Vocabulary {
	return Vocabulary{
		Covering: []string{
			"пвх", "шпон", "ламінат", "горіх", "дуб", "ясен",
			"вільха", "сосна", "бук", "покриття",
		},
		Glass:         []string{"скло", "скління", "засклена", "склопакет"},
		GlassNegation: []string{"без", "не має", "немає", "відсутнє", "глуха"},
		Blind:         []string{"глуха"},
		Orientation:   []string{"праве", "ліве", "правий", "лівий", "права", "ліва"},
		SummaryStop: []string{
			"пвх", "шпон", "ламінат", "дуб", "скла", "скло",
			"праве", "ліве", "правий", "лівий",
		},
		Dimensions: dimensionPattern,
	}
}
