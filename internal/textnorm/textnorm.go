// Package textnorm turns free text into normalized terms.
package textnorm

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/weekcloud/internal/wordlist"
)

// DefaultMinTokenLength matches the two-character token pattern of classic cloud generators.
const DefaultMinTokenLength = 2

// ErrUnknownLanguage is returned when no stopword set exists for a language.
var ErrUnknownLanguage = errors.New("unknown stopword language")

// Options configures a Normalizer.
type Options struct {
	Language        string
	MinTokenLength  int
	CustomStopwords []string
	StopwordsFile   string
}

// DefaultOptions returns English stopwords and the default token length.
func DefaultOptions() Options {
	return Options{Language: "en", MinTokenLength: DefaultMinTokenLength}
}

// Normalizer lowercases, strips punctuation, tokenizes and filters text.
// It is immutable after construction and safe for concurrent use.
type Normalizer struct {
	minLen    int
	stopwords map[string]struct{}
}

// New builds a Normalizer from options.
func New(opts Options) (*Normalizer, error) {
	base, ok := wordlist.Stopwords(opts.Language)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownLanguage, opts.Language, strings.Join(wordlist.Languages(), ", "))
	}
	words := append(base, opts.CustomStopwords...)
	if opts.StopwordsFile != "" {
		extra, err := wordlist.LoadWords(opts.StopwordsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load stopwords file: %w", err)
		}
		words = append(words, extra...)
	}
	if opts.MinTokenLength < 0 {
		return nil, fmt.Errorf("min token length must be >= 0")
	}

	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		// Stopwords go through the same cleaning as text so "don't" matches "dont".
		for _, tok := range strings.Fields(clean(w)) {
			stop[tok] = struct{}{}
		}
	}
	return &Normalizer{minLen: opts.MinTokenLength, stopwords: stop}, nil
}

// Normalize returns the terms of text in order of appearance.
func (n *Normalizer) Normalize(text string) []string {
	fields := strings.Fields(clean(text))
	if len(fields) == 0 {
		return nil
	}
	out := fields[:0]
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) < n.minLen {
			continue
		}
		if _, ok := n.stopwords[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// IsStopword reports whether term is filtered as a stopword.
func (n *Normalizer) IsStopword(term string) bool {
	_, ok := n.stopwords[term]
	return ok
}

// Fingerprint identifies the normalization rules, for cache keys.
func (n *Normalizer) Fingerprint() string {
	words := make([]string, 0, len(n.stopwords))
	for w := range n.stopwords {
		words = append(words, w)
	}
	sort.Strings(words)
	h := fnv.New64a()
	for _, w := range words {
		_, _ = h.Write([]byte(w))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("min%d-%016x", n.minLen, h.Sum64())
}

// clean lowercases s and deletes every rune that is not a letter, digit or space.
func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return b.String()
}
