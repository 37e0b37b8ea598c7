package normalizer

import (
	"unicode"
)

// RareThreshold is the number of occurrences from which a word is common.
const RareThreshold = 5

type Category int

const (
	Uncommon Category = iota
	ProperNoun
	Capitalized
	Punctuation
)

var substitutes = map[Category]string{
	Uncommon:    "_UNCOMMON_",
	ProperNoun:  "_PROPER_NOUN_",
	Capitalized: "_CAPITALIZED_",
	Punctuation: "_PUNCTUATION_",
}

var names = map[Category]string{
	Uncommon:    "UNCOMMON",
	ProperNoun:  "PROPER_NOUN",
	Capitalized: "CAPITALIZED",
	Punctuation: "PUNCTUATION",
}

func (c Category) String() string {
	return names[c]
}

// Substitute is the word standing for every rare word of the category.
func (c Category) Substitute() string {
	return substitutes[c]
}

func IsSubstitute(word string) bool {
	for _, s := range substitutes {
		if s == word {
			return true
		}
	}
	return false
}

// FrequencyTable gives the training frequency of a word, 0 when unseen.
type FrequencyTable interface {
	WordCount(word string) int
}

type Normalizer struct {
	frequencies FrequencyTable
	threshold   int
}

func New(frequencies FrequencyTable, threshold int) Normalizer {
	if threshold <= 0 {
		threshold = RareThreshold
	}
	return Normalizer{
		frequencies: frequencies,
		threshold:   threshold,
	}
}

func (n Normalizer) Threshold() int {
	return n.threshold
}

// Classify returns the category of a rare word. ok is false for common words.
func (n Normalizer) Classify(word string) (Category, bool) {
	return classify(word, n.frequencies.WordCount(word), n.threshold)
}

// Normalize returns the word to look up in the emission counts. Substitutes are
// returned unchanged, so grouping an already grouped corpus is a no-op.
func (n Normalizer) Normalize(word string) string {
	if IsSubstitute(word) {
		return word
	}
	category, ok := n.Classify(word)
	if !ok {
		return word
	}
	return category.Substitute()
}

// Classify applies the default threshold.
func Classify(word string, frequency int) (Category, bool) {
	return classify(word, frequency, RareThreshold)
}

func classify(word string, frequency int, threshold int) (Category, bool) {
	if frequency >= threshold {
		return 0, false
	}
	return Shape(word), true
}

// Shape picks the category of a word from its characters; the first match wins.
func Shape(word string) Category {
	switch {
	case isAllCaps(word):
		return Capitalized
	case isTitle(word):
		return ProperNoun
	case isPunctuation(word):
		return Punctuation
	default:
		return Uncommon
	}
}

func isAllCaps(word string) bool {
	if len(word) == 0 {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) || !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isTitle(word string) bool {
	if len(word) == 0 {
		return false
	}
	for i, r := range []rune(word) {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func isPunctuation(word string) bool {
	if len(word) == 0 {
		return false
	}
	for _, r := range word {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
