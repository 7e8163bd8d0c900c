package common

import (
	"strings"
)

// ---------------------------------------------------------------------------
// PhraseSet
// ---------------------------------------------------------------------------

// PhraseSet matches multi-word phrases against token streams. Phrases are
// registered through the same tokenizer that produced the stream, so a
// phrase like "divide and conquer" matches its stopword-filtered document
// form. Matching is greedy longest-first: at each position the longest
// registered phrase wins and its tokens are consumed.
type PhraseSet struct {
	phrases map[string]string // normalized key -> registered surface form
	maxLen  int
}

// NewPhraseSet registers every term under its tokenized key. Terms whose
// tokenization is empty are dropped; when two terms normalize to the same
// key the first registration wins.
func NewPhraseSet(terms []string, tokenize func(string) []string) *PhraseSet {
	ps := &PhraseSet{
		phrases: make(map[string]string, len(terms)),
	}
	if tokenize == nil {
		return ps
	}
	for _, term := range terms {
		toks := tokenize(term)
		if len(toks) == 0 {
			continue
		}
		key := strings.Join(toks, " ")
		if _, exists := ps.phrases[key]; exists {
			continue
		}
		ps.phrases[key] = term
		if len(toks) > ps.maxLen {
			ps.maxLen = len(toks)
		}
	}
	return ps
}

// Scan walks the token stream left to right. Each position tries the longest
// possible phrase first; on a hit the registered surface form is appended to
// matched and the phrase's tokens are consumed. Unconsumed tokens are
// returned in rest, in order.
func (ps *PhraseSet) Scan(tokens []string) (matched []string, rest []string) {
	if ps == nil || len(ps.phrases) == 0 {
		return nil, tokens
	}

	i := 0
	for i < len(tokens) {
		n := ps.maxLen
		if rem := len(tokens) - i; n > rem {
			n = rem
		}
		hit := false
		for ; n >= 1; n-- {
			key := strings.Join(tokens[i:i+n], " ")
			if term, ok := ps.phrases[key]; ok {
				matched = append(matched, term)
				i += n
				hit = true
				break
			}
		}
		if !hit {
			rest = append(rest, tokens[i])
			i++
		}
	}
	return matched, rest
}

// Contains reports whether the tokenized form of the given token sequence is
// a registered phrase.
func (ps *PhraseSet) Contains(tokens ...string) bool {
	if ps == nil || len(tokens) == 0 {
		return false
	}
	_, ok := ps.phrases[strings.Join(tokens, " ")]
	return ok
}

// Size returns the number of registered phrases.
func (ps *PhraseSet) Size() int {
	if ps == nil {
		return 0
	}
	return len(ps.phrases)
}

// MaxPhraseLength returns the token count of the longest registered phrase.
func (ps *PhraseSet) MaxPhraseLength() int {
	if ps == nil {
		return 0
	}
	return ps.maxLen
}
