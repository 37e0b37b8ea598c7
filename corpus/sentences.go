package corpus

import (
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/types"
	"github.com/rs/zerolog"
	"io"
)

// SentenceScanner groups the tokens of a TokenScanner into sentences.
// It makes a single forward pass over its reader.
type SentenceScanner struct {
	tokens   *TokenScanner
	sentence types.Sentence
	count    int
	done     bool
	logger   zerolog.Logger
}

func NewSentenceScanner(r io.Reader, format Format) *SentenceScanner {
	return &SentenceScanner{
		tokens: NewTokenScanner(r, format),
		logger: logger.NewLogger("SentenceScanner"),
	}
}

func (s *SentenceScanner) Scan() bool {
	if s.done {
		return false
	}

	var current []types.Token
	for s.tokens.Scan() {
		if s.tokens.Boundary() {
			if len(current) > 0 {
				return s.emit(current)
			}
			continue
		}
		current = append(current, s.tokens.Token())
	}

	s.done = true
	if s.tokens.Err() != nil {
		return false
	}
	if len(current) > 0 {
		return s.emit(current)
	}
	if s.count == 0 {
		s.logger.Warn().Msg("Got empty input stream")
	}
	return false
}

func (s *SentenceScanner) emit(tokens []types.Token) bool {
	s.sentence = types.Sentence{Index: s.count, Tokens: tokens}
	s.count++
	return true
}

func (s *SentenceScanner) Sentence() types.Sentence {
	return s.sentence
}

// Count is the number of sentences produced so far.
func (s *SentenceScanner) Count() int {
	return s.count
}

func (s *SentenceScanner) Err() error {
	return s.tokens.Err()
}
