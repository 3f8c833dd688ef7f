package domain

import (
	"regexp"
	"strings"
)

// sourcePrefixLen is the fixed-length tag the source account prepends to
// every post body before the actual incident description.
const sourcePrefixLen = 8

// Fixed landmark phrases emitted for reports that name a crossing instead of
// a street address. The phrases are already in the form the geocoder expects.
const (
	bridgeLandmark = "ponte do guaíba"
	tunnelLandmark = "túnel da conceição"
)

var (
	// streetTokenRe locates street-type abbreviations. Longer tokens come
	// first so "trav" is not shadowed by "av".
	streetTokenRe = regexp.MustCompile(`\b(rua|estr|trav|beco|av|r\.)`)

	// numberRe locates bare building numbers: a digit run preceded by a comma
	// or space, optionally padded by spaces or newlines.
	numberRe = regexp.MustCompile(`(,| )[0-9]+[ \n]*`)

	// viaductRe captures a viaduct mention up to the first comma or period.
	// The trailing punctuation is required: an unterminated mention is not
	// considered a complete address.
	viaductRe = regexp.MustCompile(`\b(viadut[^,.]*)[,.]`)
)

// bridgeWords are the keywords identifying the river crossing.
var bridgeWords = []string{"vão móvel", "ponte", "guaíba"}

// streetBoundaries terminate a street name. A digit run also terminates one
// (handled separately); a period does not, because the street-type
// abbreviations themselves carry periods ("av.", "r.").
var streetBoundaries = []string{",", "\n", " no sentido", " próximo"}

// ExtractAddresses parses a report body into zero or more candidate street
// addresses in the form "<number> <street>", or a single fixed landmark
// phrase. It is deterministic and never fails: malformed or ambiguous input
// yields an empty result.
func ExtractAddresses(text string) []string {
	t := normalize(text)

	if addrs := structuredAddresses(t); len(addrs) > 0 {
		return addrs
	}

	// Landmark fallbacks, in strict priority order.
	for _, w := range bridgeWords {
		if strings.Contains(t, w) {
			return []string{bridgeLandmark}
		}
	}
	if strings.Contains(t, "túnel") {
		return []string{tunnelLandmark}
	}
	if m := viaductRe.FindAllStringSubmatch(t, -1); len(m) == 1 {
		// More than one viaduct mention is ambiguous and deliberately
		// discarded rather than guessed.
		return []string{strings.TrimSpace(m[0][1])}
	}

	return nil
}

// normalize lower-cases the body, drops the source prefix, and strips the
// trailing URL the platform appends.
func normalize(text string) string {
	t := strings.ToLower(text)
	if r := []rune(t); len(r) > sourcePrefixLen {
		t = string(r[sourcePrefixLen:])
	} else {
		t = ""
	}
	return urlTailRe.ReplaceAllString(t, "")
}

// structuredAddresses pairs each street mention with the first number
// occurring strictly after it. Mentions containing an intersection marker
// (" x ") are skipped: an intersection has no single resolvable address.
func structuredAddresses(t string) []string {
	mentions := streetMentions(t)
	numbers := numberRe.FindAllStringIndex(t, -1)
	if len(mentions) == 0 || len(numbers) == 0 {
		return nil
	}

	var addrs []string
	for _, m := range mentions {
		mention := t[m[0]:m[1]]
		if strings.Contains(mention, " x ") {
			continue
		}
		// The number match begins at its separator, which may coincide with
		// the character that terminated the mention.
		for _, n := range numbers {
			if n[0] < m[1]-1 {
				continue
			}
			num := strings.TrimSpace(strings.TrimLeft(t[n[0]:n[1]], ", "))
			addrs = append(addrs, num+" "+strings.TrimSpace(mention))
			break
		}
	}
	return addrs
}

// streetMentions returns [start, end) index pairs of street mentions: a
// street-type token extended to the next boundary. Tokens inside an already
// consumed mention are skipped.
func streetMentions(t string) [][2]int {
	tokens := streetTokenRe.FindAllStringIndex(t, -1)
	mentions := make([][2]int, 0, len(tokens))
	prevEnd := -1
	for _, tok := range tokens {
		if tok[0] < prevEnd {
			continue
		}
		end := boundaryAfter(t, tok[1])
		if end == tok[1] {
			continue
		}
		mentions = append(mentions, [2]int{tok[0], end})
		prevEnd = end
	}
	return mentions
}

// boundaryAfter returns the index at or after pos where a street name ends:
// the first boundary phrase or digit, or the end of the text.
func boundaryAfter(t string, pos int) int {
	rest := t[pos:]
	end := len(rest)
	for _, b := range streetBoundaries {
		if i := strings.Index(rest, b); i >= 0 && i < end {
			end = i
		}
	}
	if i := strings.IndexAny(rest, "0123456789"); i >= 0 && i < end {
		end = i
	}
	return pos + end
}
