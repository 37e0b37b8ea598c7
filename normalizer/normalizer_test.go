package normalizer

import (
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

type frequencies map[string]int

func (f frequencies) WordCount(word string) int {
	return f[word]
}

func TestShape(t *testing.T) {
	testCases := []struct {
		word     string
		expected Category
	}{
		{"EU", Capitalized},
		{"A", Capitalized},
		{"ÉTÉ", Capitalized},
		{"Madrid", ProperNoun},
		{"Élodie", ProperNoun},
		{".", Punctuation},
		{"1996-08-22", Punctuation},
		{"$", Punctuation},
		{"McDonald", Uncommon},
		{"rejects", Uncommon},
		{"B-52", Uncommon},
		{"", Uncommon},
	}
	for _, tc := range testCases {
		t.Run(tc.word, func(t *testing.T) {
			require.Equal(t, tc.expected, Shape(tc.word))
		})
	}
}

func TestNormalize(t *testing.T) {
	n := New(frequencies{"Madrid": 1, "the": 12, "Paris": 5}, 5)

	require.Equal(t, "the", n.Normalize("the"))
	require.Equal(t, "Paris", n.Normalize("Paris"))
	require.Equal(t, "_PROPER_NOUN_", n.Normalize("Madrid"))
	require.Equal(t, "_PROPER_NOUN_", n.Normalize("Lisbon"))
	require.Equal(t, "_CAPITALIZED_", n.Normalize("NATO"))
	require.Equal(t, "_PUNCTUATION_", n.Normalize("--"))
	require.Equal(t, "_UNCOMMON_", n.Normalize("zeitgeist"))

	_, rare := n.Classify("the")
	require.False(t, rare)
	category, rare := n.Classify("Madrid")
	require.True(t, rare)
	require.Equal(t, ProperNoun, category)
	require.Equal(t, "PROPER_NOUN", category.String())
}

func TestNormalizerDefaults(t *testing.T) {
	require.Equal(t, RareThreshold, New(frequencies{}, 0).Threshold())
	require.Equal(t, 2, New(frequencies{}, 2).Threshold())

	_, rare := Classify("word", RareThreshold)
	require.False(t, rare)
	category, rare := Classify("word", RareThreshold-1)
	require.True(t, rare)
	require.Equal(t, Uncommon, category)
}

func TestCategoriesAreExclusive(t *testing.T) {
	words := []string{"EU", "Madrid", ".", "1996", "rejects", "McDonald", "X", "x", "ÀB", "?!", "NaN"}
	n := New(frequencies{}, RareThreshold)

	for _, word := range words {
		first, _ := n.Classify(word)
		for i := 0; i < 3; i++ {
			again, _ := n.Classify(word)
			require.Equal(t, first, again, word)
		}

		matches := 0
		for _, predicate := range []func(string) bool{isAllCaps, isTitle, isPunctuation} {
			if predicate(word) {
				matches++
			}
		}
		// single capital letters are both all-caps and title-case; the first rule wins
		if len([]rune(word)) > 1 {
			require.LessOrEqual(t, matches, 1, word)
		}
	}
}

func TestIsSubstitute(t *testing.T) {
	for _, c := range []Category{Uncommon, ProperNoun, Capitalized, Punctuation} {
		require.True(t, IsSubstitute(c.Substitute()))
	}
	require.False(t, IsSubstitute("Madrid"))

	n := New(frequencies{}, RareThreshold)
	for _, c := range []Category{Uncommon, ProperNoun, Capitalized, Punctuation} {
		require.Equal(t, c.Substitute(), n.Normalize(c.Substitute()))
	}
}

func TestRewriteGroupedCorpus(t *testing.T) {
	grouped := "_PROPER_NOUN_ I-LOC\n_CAPITALIZED_ I-ORG\n_PUNCTUATION_ O\n\n"
	n := New(frequencies{}, RareThreshold)

	var out strings.Builder
	replaced, err := n.RewriteCorpus(strings.NewReader(grouped), &out)
	require.NoError(t, err)
	require.Zero(t, replaced)
	require.Equal(t, grouped, out.String())
}

func TestRewriteCorpus(t *testing.T) {
	corpus := "Real B-ORG\nMadrid I-ORG\n. O\n\nthe O\nthe O\n"
	n := New(frequencies{"the": 2, ".": 1}, 2)

	var out strings.Builder
	replaced, err := n.RewriteCorpus(strings.NewReader(corpus), &out)
	require.NoError(t, err)
	require.Equal(t, 3, replaced)
	require.Equal(t, "_PROPER_NOUN_ B-ORG\n_PROPER_NOUN_ I-ORG\n_PUNCTUATION_ O\n\nthe O\nthe O\n", out.String())

	_, err = n.RewriteCorpus(strings.NewReader("Real\n"), &out)
	require.Error(t, err)
}
