package corpus

import (
	"text2phenotype.com/ner/types"
	"bufio"
	"fmt"
	"io"
	"strings"
)

type Format int

const (
	// Tagged lines are "word tag".
	Tagged Format = iota
	// Untagged lines hold a single word.
	Untagged
	// Scored lines are "word tag logprob", the tagger output.
	Scored
)

const maxLineSize = 1024 * 1024

type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// TokenScanner reads one token per line. A blank line is reported as a boundary.
type TokenScanner struct {
	scanner  *bufio.Scanner
	format   Format
	line     int
	token    types.Token
	boundary bool
	err      error
}

func NewTokenScanner(r io.Reader, format Format) *TokenScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &TokenScanner{
		scanner: scanner,
		format:  format,
	}
}

func (s *TokenScanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if !s.scanner.Scan() {
		s.err = s.scanner.Err()
		return false
	}
	s.line++

	text := strings.TrimSpace(s.scanner.Text())
	if len(text) == 0 {
		s.token = types.Token{}
		s.boundary = true
		return true
	}

	token, err := parseLine(text, s.format)
	if err != nil {
		s.err = &ParseError{Line: s.line, Text: text, Msg: err.Error()}
		return false
	}
	s.token = token
	s.boundary = false
	return true
}

// Token is the token read by the last Scan. Its Word is nil on a boundary.
func (s *TokenScanner) Token() types.Token {
	return s.token
}

func (s *TokenScanner) Boundary() bool {
	return s.boundary
}

func (s *TokenScanner) Line() int {
	return s.line
}

func (s *TokenScanner) Err() error {
	return s.err
}

func parseLine(text string, format Format) (types.Token, error) {
	if format == Untagged {
		return types.NewToken(text, ""), nil
	}

	fields := strings.Fields(text)
	tagField := len(fields) - 1
	minFields := 2
	if format == Scored {
		tagField = len(fields) - 2
		minFields = 3
	}
	if len(fields) < minFields {
		return types.Token{}, fmt.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}

	word := strings.Join(fields[:tagField], " ")
	return types.NewToken(word, fields[tagField]), nil
}
