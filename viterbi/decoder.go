package viterbi

import (
	"text2phenotype.com/ner/hmm"
	"text2phenotype.com/ner/normalizer"
	"text2phenotype.com/ner/types"
	"errors"
	"math"
)

var (
	ErrUntrainedModel   = errors.New("viterbi: model has no tags")
	ErrUnsupportedOrder = errors.New("viterbi: only trigram models can be decoded")
)

// state 0 is the start sentinel, 1..len(tags) the model tags, the last one is STOP
const startState = 0

var startOnly = []int{startState}

type TaggedToken struct {
	Word    string
	Tag     string
	LogProb float64
}

type Result struct {
	Tokens []TaggedToken
	// Final is the best (u, v) pair before the end sentinel.
	Final [2]string
	// LogProb is the log-probability of the sentence ending in Final.
	LogProb float64
}

type Option func(d *Decoder)

// WithBacktrace makes the decoder follow back-pointers and return the best whole
// path instead of the best tag of each position.
func WithBacktrace() Option {
	return func(d *Decoder) {
		d.backtrace = true
	}
}

func WithRareThreshold(threshold int) Option {
	return func(d *Decoder) {
		d.threshold = threshold
	}
}

// Decoder tags sentences with a trigram model. It never mutates its state after
// NewDecoder, so one decoder can serve many goroutines.
type Decoder struct {
	model      *hmm.Model
	normalizer normalizer.Normalizer
	threshold  int
	backtrace  bool
	// state names: "*", the sorted model tags, "STOP"
	names     []string
	tagStates []int
	// transitions[w][u][v] = q(v | w, u)
	transitions [][][]float64
}

func NewDecoder(model *hmm.Model, opts ...Option) (*Decoder, error) {
	if model.Order() != 3 {
		return nil, ErrUnsupportedOrder
	}
	states := model.States()
	if len(states) == 0 {
		return nil, ErrUntrainedModel
	}

	d := &Decoder{
		model:     model,
		threshold: normalizer.RareThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.normalizer = normalizer.New(model, d.threshold)

	d.names = make([]string, 0, len(states)+2)
	d.names = append(d.names, types.SentenceStart)
	d.names = append(d.names, states...)
	d.names = append(d.names, types.SentenceEnd)

	for s := 1; s <= len(states); s++ {
		d.tagStates = append(d.tagStates, s)
	}

	size := len(d.names)
	d.transitions = make([][][]float64, size)
	for w := 0; w < size; w++ {
		d.transitions[w] = make([][]float64, size)
		for u := 0; u < size; u++ {
			d.transitions[w][u] = make([]float64, size)
			for v := 0; v < size; v++ {
				d.transitions[w][u][v] = model.TrigramLikelihood(d.names[w], d.names[u], d.names[v])
			}
		}
	}
	return d, nil
}

// Tags returns a copy of the model tags in decoding order.
func (d *Decoder) Tags() []string {
	return append([]string(nil), d.names[1:len(d.names)-1]...)
}

func (d *Decoder) endState() int {
	return len(d.names) - 1
}

// candidates returns the states allowed at position k (1-based); positions before the
// sentence only allow the start sentinel.
func (d *Decoder) candidates(k int) []int {
	if k <= 0 {
		return startOnly
	}
	return d.tagStates
}

// LookupWord is the word used for emission lookups: the word itself when common,
// its category substitute when unseen or rare.
func (d *Decoder) LookupWord(word string) string {
	return d.normalizer.Normalize(word)
}

func (d *Decoder) newTable() [][]float64 {
	table := make([][]float64, len(d.names))
	for i := range table {
		table[i] = make([]float64, len(d.names))
	}
	return table
}

func newPointers(size int) [][]int {
	pointers := make([][]int, size)
	for i := range pointers {
		pointers[i] = make([]int, size)
	}
	return pointers
}

// Decode computes the tags of words. Ties are broken by state order: the start
// sentinel first, then tags in lexicographic order; the first maximum wins.
func (d *Decoder) Decode(words []string) Result {
	n := len(words)
	result := Result{Tokens: make([]TaggedToken, 0, n)}
	if n == 0 {
		return result
	}

	pi := make([][][]float64, n+1)
	pi[0] = d.newTable()
	pi[0][startState][startState] = 1.0
	var pointers [][][]int
	if d.backtrace {
		pointers = make([][][]int, n+1)
	}

	emissions := make([]float64, len(d.names))
	for k := 1; k <= n; k++ {
		lookup := d.LookupWord(words[k-1])
		for _, v := range d.candidates(k) {
			emissions[v] = d.model.EmissionProbability(lookup, d.names[v])
		}

		pi[k] = d.newTable()
		if d.backtrace {
			pointers[k] = newPointers(len(d.names))
		}
		for _, u := range d.candidates(k - 1) {
			for _, v := range d.candidates(k) {
				best, bestW := -1.0, startState
				for _, w := range d.candidates(k - 2) {
					p := pi[k-1][w][u] * d.transitions[w][u][v] * emissions[v]
					if p > best {
						best, bestW = p, w
					}
				}
				pi[k][u][v] = best
				if d.backtrace {
					pointers[k][u][v] = bestW
				}
			}
		}

		if !d.backtrace {
			_, v, prob := d.argmax(pi[k], k)
			result.Tokens = append(result.Tokens, TaggedToken{
				Word:    words[k-1],
				Tag:     d.names[v],
				LogProb: logProb(prob),
			})
		}
	}

	bestU, bestV, best := startState, startState, -1.0
	for _, u := range d.candidates(n - 1) {
		for _, v := range d.candidates(n) {
			p := pi[n][u][v] * d.transitions[u][v][d.endState()]
			if p > best {
				bestU, bestV, best = u, v, p
			}
		}
	}
	result.Final = [2]string{d.names[bestU], d.names[bestV]}
	result.LogProb = logProb(best)

	if d.backtrace {
		result.Tokens = d.follow(words, pi, pointers, bestU, bestV)
	}
	return result
}

func (d *Decoder) argmax(table [][]float64, k int) (int, int, float64) {
	bestU, bestV, best := startState, startState, -1.0
	for _, u := range d.candidates(k - 1) {
		for _, v := range d.candidates(k) {
			if table[u][v] > best {
				bestU, bestV, best = u, v, table[u][v]
			}
		}
	}
	return bestU, bestV, best
}

func (d *Decoder) follow(words []string, pi [][][]float64, pointers [][][]int, u int, v int) []TaggedToken {
	n := len(words)
	path := make([]int, n+1)
	path[n] = v
	if n > 1 {
		path[n-1] = u
	}
	for k := n - 2; k >= 1; k-- {
		path[k] = pointers[k+2][path[k+1]][path[k+2]]
	}

	tokens := make([]TaggedToken, n)
	for k := 1; k <= n; k++ {
		prev := startState
		if k > 1 {
			prev = path[k-1]
		}
		tokens[k-1] = TaggedToken{
			Word:    words[k-1],
			Tag:     d.names[path[k]],
			LogProb: logProb(pi[k][prev][path[k]]),
		}
	}
	return tokens
}

// logProb keeps the tagger output convention: a zero probability is written as 0.
func logProb(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return math.Log(p)
}
