// Package language detects which supported language a piece of text is
// written in. Detection is heuristic: Ghanaian languages are recognised
// by characters and common words that do not occur in English, and
// anything inconclusive defaults to English.
package language

import "strings"

// Supported maps language codes to display names.
var Supported = map[string]string{
	"en":  "English",
	"tw":  "Twi (Akan)",
	"ga":  "Ga",
	"ee":  "Ewe",
	"dag": "Dagbani",
}

// profile describes the fingerprint of one language: characters unique
// to its orthography and high-frequency words.
type profile struct {
	code  string
	chars []string
	words map[string]struct{}
}

var profiles = []profile{
	{
		code:  "tw",
		chars: []string{"ɔ", "ɛ", "ŋ"},
		words: wordSet(
			"yɛ", "wo", "na", "ne", "adɛn", "sɛn", "dɛn",
			"mepaakyɛw", "medaase", "ɛyɛ", "deɛ", "kasa",
			"afuom", "kuayɛ", "mfuo", "nnɔbae", "aburo", "aburoo",
			"bankye", "bayerɛ", "nkruma", "mako", "nsuo",
		),
	},
	{
		code:  "ga",
		chars: []string{"ɛ", "ɔ", "ŋ"},
		words: wordSet(
			"ni", "tsɛ", "kɛ", "mli", "shwɛ", "ɔyɛ",
			"kome", "nitsumɔ", "oyiwala", "afɛmɔ", "yao",
		),
	},
	{
		code:  "ee",
		chars: []string{"ɖ", "ʋ", "ɛ", "ɔ", "ŋ"},
		words: wordSet(
			"nye", "wò", "ɖe", "ŋu", "ɖi", "mía", "esia",
			"akpɔ", "ɖo", "agble", "nuku",
		),
	},
	{
		code:  "dag",
		chars: []string{"ɣ", "ŋ"},
		words: wordSet(
			"ka", "daa", "paa", "kum", "nam", "buɣu", "puu", "bindirigu",
		),
	},
}

// detection thresholds: below minConfidence we fall back to English.
const (
	minConfidence = 0.2
	maxConfidence = 0.95
)

// Detect returns the most likely language code for text and a
// confidence in [0,1]. Short or inconclusive input detects as English.
func Detect(text string) (string, float64) {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 3 {
		return "en", 0.5
	}

	lower := strings.ToLower(trimmed)
	tokens := strings.Fields(lower)

	best := "en"
	bestScore := 0.0
	for _, p := range profiles {
		score := p.score(lower, tokens)
		if score > bestScore {
			best = p.code
			bestScore = score
		}
	}

	if bestScore < minConfidence {
		return "en", 0.5
	}
	if bestScore > maxConfidence {
		bestScore = maxConfidence
	}
	return best, bestScore
}

// Name returns the display name for a language code, or "Unknown".
func Name(code string) string {
	if name, ok := Supported[code]; ok {
		return name
	}
	return "Unknown"
}

// score counts fingerprint hits, weighting orthographic characters
// twice as heavily as word matches, normalised by token count.
func (p profile) score(lower string, tokens []string) float64 {
	hits := 0.0
	for _, ch := range p.chars {
		hits += 2 * float64(strings.Count(lower, ch))
	}
	for _, tok := range tokens {
		if _, ok := p.words[tok]; ok {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return hits / float64(len(tokens)+1)
}

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
