package domain

import "strings"

// IncidentType is the fine-grained funnel classification stored on metrics.
// The values are the group indices of the metric taxonomy and are part of
// the stored data format; do not reorder.
type IncidentType int

const (
	TypeRunOver IncidentType = iota
	TypeMotorcycleFall
	TypeCollision
	TypeSpill
	TypeBreakdown
	TypeFallenTree
	TypeRoadblock
	TypeExposedWiring
	TypeBridgeLift
	TypeLooseAnimal
)

// Emoji codes rendered by the map front end. The raw strings are Unicode
// codepoints in the exact casing the front end expects.
const (
	EmojiCollision  = "26a0"
	EmojiSpill      = "1F4a7"
	EmojiBreakdown  = "1f527"
	EmojiTree       = "1f333"
	EmojiRoadblock  = "1f6A7"
	EmojiWiring     = "26a1"
	EmojiBridgeLift = "26f4"
	EmojiHorse      = "1f40e"
)

// group is one entry of an ordered keyword taxonomy. Position in the table
// is the classification priority: the first group with any keyword present
// in the text wins, regardless of where the keywords appear.
type group[C comparable] struct {
	label string
	code  C
	words []string
}

// emojiTable maps report text to the emoji shown on the map.
var emojiTable = []group[string]{
	{"collision", EmojiCollision, []string{"acidente", "colisão", "atropelamento", "capotado", "moto"}},
	{"spill", EmojiSpill, []string{"derramado", "derramamento"}},
	{"breakdown", EmojiBreakdown, []string{"pane"}},
	{"fallen tree", EmojiTree, []string{"árvore", "galho"}},
	{"roadblock", EmojiRoadblock, []string{"bloqueio", "obra"}},
	{"exposed wiring", EmojiWiring, []string{"fios", "fiação"}},
	{"bridge lift", EmojiBridgeLift, []string{"içamento"}},
	{"loose horse", EmojiHorse, []string{"caval"}},
}

// metricTable is the finer taxonomy used for funnel metrics. It splits
// run-overs and motorcycle falls out of the generic collision group.
var metricTable = []group[IncidentType]{
	{"run-over", TypeRunOver, []string{"atropelamento"}},
	{"motorcycle fall", TypeMotorcycleFall, []string{"queda de moto"}},
	{"collision", TypeCollision, []string{"acidente", "colisão", "capotado"}},
	{"spill", TypeSpill, []string{"derramado", "derramamento"}},
	{"breakdown", TypeBreakdown, []string{"pane"}},
	{"fallen tree", TypeFallenTree, []string{"árvore", "galho"}},
	{"roadblock", TypeRoadblock, []string{"bloqueio"}},
	{"exposed wiring", TypeExposedWiring, []string{"fios", "fiação"}},
	{"bridge lift", TypeBridgeLift, []string{"içamento"}},
	{"loose horse", TypeLooseAnimal, []string{"caval"}},
}

// classify returns the code of the first group in table with a keyword
// present in text, or fallback when nothing matches. Matching is
// case-insensitive substring containment.
func classify[C comparable](text string, table []group[C], fallback C) C {
	lower := strings.ToLower(text)
	for _, g := range table {
		for _, w := range g.words {
			if strings.Contains(lower, w) {
				return g.code
			}
		}
	}
	return fallback
}

// EmojiCode classifies report text into the emoji code persisted on the
// incident. Unmatched text falls back to the generic collision emoji.
func EmojiCode(text string) string {
	return classify(text, emojiTable, EmojiCollision)
}

// MetricType classifies report text into the funnel metric type. Unmatched
// text falls back to the generic collision group.
func MetricType(text string) IncidentType {
	return classify(text, metricTable, TypeCollision)
}
