// Package label names clusters from the identifiers of their members. The
// score of a term is its in-cluster frequency minus the count expected from
// the corpus-wide distribution, so terms common everywhere never win.
package label

import (
	"sort"
	"strings"
	"unicode"
)

// Generic identifier fragments that should rarely headline a label. They
// are down-weighted, not excluded, so a cluster genuinely about "data" can
// still earn the term.
var denyList = map[string]struct{}{
	"get": {}, "set": {}, "data": {}, "new": {},
}

const denyWeight = 0.5

// Member is one symbol's contribution to its cluster label.
type Member struct {
	SymbolID   string
	Name       string
	Text       string // chunk text, optional
	Centrality float64
}

// ClusterInput is one cluster to label.
type ClusterInput struct {
	ID      int
	Members []Member
}

// Labels names every cluster. Clusters with too few distinctive tokens
// fall back to the name of their most central member.
func Labels(clusters []ClusterInput) map[int]string {
	tokens := make(map[int][]string, len(clusters))
	corpus := make(map[string]int)
	corpusTotal := 0
	for _, c := range clusters {
		var ts []string
		for _, m := range c.Members {
			ts = append(ts, Tokenize(m.Name)...)
			ts = append(ts, Tokenize(m.Text)...)
		}
		tokens[c.ID] = ts
		for _, t := range ts {
			corpus[t]++
		}
		corpusTotal += len(ts)
	}

	out := make(map[int]string, len(clusters))
	for _, c := range clusters {
		out[c.ID] = labelOne(tokens[c.ID], corpus, corpusTotal, c.Members)
	}
	return out
}

func labelOne(tokens []string, corpus map[string]int, corpusTotal int, members []Member) string {
	if len(tokens) < 3 {
		return fallbackName(members)
	}

	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	ratio := float64(len(tokens)) / float64(corpusTotal)
	type scored struct {
		term  string
		score float64
	}
	var terms []scored
	for term, count := range tf {
		expected := float64(corpus[term]) * ratio
		score := float64(count) - expected
		if _, deny := denyList[term]; deny {
			score *= denyWeight
		}
		if score > 0 {
			terms = append(terms, scored{term, score})
		}
	}
	if len(terms) == 0 {
		return fallbackName(members)
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].score != terms[j].score {
			return terms[i].score > terms[j].score
		}
		return terms[i].term < terms[j].term
	})
	if len(terms) == 1 {
		return terms[0].term
	}
	return terms[0].term + " " + terms[1].term
}

// fallbackName picks the most central member's name, lowest symbol id on
// ties. Empty clusters should not occur but yield "cluster".
func fallbackName(members []Member) string {
	if len(members) == 0 {
		return "cluster"
	}
	best := members[0]
	for _, m := range members[1:] {
		if m.Centrality > best.Centrality ||
			(m.Centrality == best.Centrality && m.SymbolID < best.SymbolID) {
			best = m
		}
	}
	return best.Name
}

// Tokenize splits identifier-style text into lowercase terms: breaks on
// non-alphanumeric runes and case boundaries, then drops tokens shorter
// than three characters or made only of digits. An acronym run ends before
// its last upper rune, so HTTPServer splits into http and server.
func Tokenize(s string) []string {
	var out []string
	var buf []rune
	flush := func() {
		if len(buf) == 0 {
			return
		}
		t := strings.ToLower(string(buf))
		buf = buf[:0]
		if len(t) < 3 || allDigits(t) {
			return
		}
		out = append(out, t)
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			buf = append(buf, r)
		case unicode.IsUpper(r) && len(buf) > 0 && unicode.IsUpper(runes[i-1]) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush()
			buf = append(buf, r)
		default:
			buf = append(buf, r)
		}
	}
	flush()
	return out
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
