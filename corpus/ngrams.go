package corpus

import (
	"text2phenotype.com/ner/types"
	"io"
)

// NGrams pads sent with n-1 start sentinels and one end sentinel and returns every
// window of size n, that is len(sent)+1 windows.
func NGrams(sent types.Sentence, n int) []types.NGram {
	padded := make([]types.Token, 0, len(sent.Tokens)+n)
	for i := 0; i < n-1; i++ {
		padded = append(padded, types.StartToken())
	}
	padded = append(padded, sent.Tokens...)
	padded = append(padded, types.EndToken())

	ngrams := make([]types.NGram, 0, len(padded)-n+1)
	for i := 0; i+n <= len(padded); i++ {
		ngrams = append(ngrams, types.NGram(padded[i:i+n]))
	}
	return ngrams
}

// NGramScanner streams the n-grams of every sentence of a tagged corpus.
type NGramScanner struct {
	sentences *SentenceScanner
	n         int
	pending   []types.NGram
	current   types.NGram
}

func NewNGramScanner(r io.Reader, n int) *NGramScanner {
	return &NGramScanner{
		sentences: NewSentenceScanner(r, Tagged),
		n:         n,
	}
}

func (s *NGramScanner) Scan() bool {
	for len(s.pending) == 0 {
		if !s.sentences.Scan() {
			return false
		}
		s.pending = NGrams(s.sentences.Sentence(), s.n)
	}
	s.current = s.pending[0]
	s.pending = s.pending[1:]
	return true
}

func (s *NGramScanner) NGram() types.NGram {
	return s.current
}

func (s *NGramScanner) Sentences() int {
	return s.sentences.Count()
}

func (s *NGramScanner) Err() error {
	return s.sentences.Err()
}
