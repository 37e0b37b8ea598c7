package hmm

import (
	"text2phenotype.com/ner/corpus"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/utils"
	"errors"
	"fmt"
	"io"
	"sort"
)

const DefaultOrder = 3

var (
	ErrInvalidOrder    = errors.New("hmm: n-gram order must be 2 or more")
	ErrAlreadyTrained  = errors.New("hmm: model is already trained")
	ErrWrongNGramOrder = errors.New("hmm: n-gram has wrong cardinality")
)

type NGramCount struct {
	Tags  []string
	Count int
}

func (c *NGramCount) matches(tags []string) bool {
	if len(c.Tags) != len(tags) {
		return false
	}
	for i := range tags {
		if c.Tags[i] != tags[i] {
			return false
		}
	}
	return true
}

type EmissionCount struct {
	Word  string
	Tag   string
	Count int
}

// hashKey buckets count entries. Entries sharing a bucket are told apart by their
// stored tags and words, so a collision never merges two counts.
var hashKey = utils.HashStrings

// Model holds n-gram tag counts and (word, tag) emission counts of a tagged corpus.
// It is filled by exactly one Train or LoadCounts call and is read-only afterwards,
// so a trained model can be shared between goroutines.
type Model struct {
	order     int
	ngrams    []map[uint64][]*NGramCount
	emissions map[uint64][]*EmissionCount
	words     map[string]int
	states    map[string]bool
	trained   bool
}

func NewModel(order int) (*Model, error) {
	if order < 2 {
		return nil, ErrInvalidOrder
	}
	m := &Model{
		order:     order,
		ngrams:    make([]map[uint64][]*NGramCount, order),
		emissions: make(map[uint64][]*EmissionCount),
		words:     make(map[string]int),
		states:    make(map[string]bool),
	}
	for i := range m.ngrams {
		m.ngrams[i] = make(map[uint64][]*NGramCount)
	}
	return m, nil
}

// Train counts every n-gram of the tagged corpus read from r.
func (m *Model) Train(r io.Reader) error {
	if m.trained {
		return ErrAlreadyTrained
	}
	m.trained = true

	hmmLogger := logger.NewLogger("HMM trainer")
	scanner := corpus.NewNGramScanner(r, m.order)
	for scanner.Scan() {
		if err := m.add(scanner.NGram()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}

	hmmLogger.Info().
		Int("sentences", scanner.Sentences()).
		Int("states", len(m.states)).
		Int("vocabulary", len(m.words)).
		Msg("Finished counting n-grams")
	return nil
}

func (m *Model) add(ngram types.NGram) error {
	if len(ngram) != m.order {
		return fmt.Errorf("%w: expected %d, got %d", ErrWrongNGramOrder, m.order, len(ngram))
	}
	tags := ngram.Tags()
	for k := 2; k <= m.order; k++ {
		m.increment(tags[len(tags)-k:], 1)
	}

	last := ngram.Last()
	if !last.IsSentinel() {
		m.increment(tags[len(tags)-1:], 1)
		m.addEmission(*last.Word, last.Tag, 1)
	}

	// the first window of a sentence anchors the all-start context
	penultimate := ngram[len(ngram)-2]
	if penultimate.IsSentinel() && penultimate.Tag == types.SentenceStart {
		m.increment(startContext(m.order), 1)
	}
	return nil
}

func (m *Model) increment(tags []string, count int) {
	table := m.ngrams[len(tags)-1]
	key := hashKey(tags...)
	entry := m.ngramEntry(tags)
	if entry == nil {
		entry = &NGramCount{Tags: append([]string(nil), tags...)}
		table[key] = append(table[key], entry)
	}
	entry.Count += count
}

func (m *Model) ngramEntry(tags []string) *NGramCount {
	for _, entry := range m.ngrams[len(tags)-1][hashKey(tags...)] {
		if entry.matches(tags) {
			return entry
		}
	}
	return nil
}

func (m *Model) addEmission(word string, tag string, count int) {
	key := hashKey(word, tag)
	entry := m.emissionEntry(word, tag)
	if entry == nil {
		entry = &EmissionCount{Word: word, Tag: tag}
		m.emissions[key] = append(m.emissions[key], entry)
	}
	entry.Count += count
	m.words[word] += count
	m.states[tag] = true
}

func startContext(order int) []string {
	context := make([]string, order-1)
	for i := range context {
		context[i] = types.SentenceStart
	}
	return context
}

func (m *Model) Order() int {
	return m.order
}

// NGramCount returns the count of the tag tuple, 0 when it was never seen.
func (m *Model) NGramCount(tags ...string) int {
	if len(tags) == 0 || len(tags) > m.order {
		return 0
	}
	if entry := m.ngramEntry(tags); entry != nil {
		return entry.Count
	}
	return 0
}

func (m *Model) EmissionCount(word string, tag string) int {
	if entry := m.emissionEntry(word, tag); entry != nil {
		return entry.Count
	}
	return 0
}

func (m *Model) emissionEntry(word string, tag string) *EmissionCount {
	for _, entry := range m.emissions[hashKey(word, tag)] {
		if entry.Word == word && entry.Tag == tag {
			return entry
		}
	}
	return nil
}

// WordCount is the total number of emissions of word, 0 for unseen words.
func (m *Model) WordCount(word string) int {
	return m.words[word]
}

func (m *Model) VocabularySize() int {
	return len(m.words)
}

// Sentences is the number of sentences the model was trained on.
func (m *Model) Sentences() int {
	return m.NGramCount(startContext(m.order)...)
}

// States returns the observed tags in lexicographic order.
func (m *Model) States() []string {
	states := make([]string, 0, len(m.states))
	for state := range m.states {
		states = append(states, state)
	}
	sort.Strings(states)
	return states
}

// EmissionProbability is count(word, tag) / count(tag). The start sentinel word has
// probability 1 and a tag without observations gives 0.
func (m *Model) EmissionProbability(word string, tag string) float64 {
	if word == types.SentenceStart {
		return 1.0
	}
	tagCount := m.NGramCount(tag)
	if tagCount == 0 {
		return 0.0
	}
	return float64(m.EmissionCount(word, tag)) / float64(tagCount)
}

// TransitionLikelihood is the maximum likelihood estimate of the last tag given the
// preceding ones: count(t1..tk) / count(t1..tk-1).
func (m *Model) TransitionLikelihood(tags ...string) float64 {
	if len(tags) < 2 {
		return 0.0
	}
	count := m.NGramCount(tags...)
	if count == 0 {
		return 0.0
	}
	context := m.NGramCount(tags[:len(tags)-1]...)
	if context == 0 {
		return 0.0
	}
	return float64(count) / float64(context)
}

func (m *Model) TrigramLikelihood(a string, b string, c string) float64 {
	return m.TransitionLikelihood(a, b, c)
}
