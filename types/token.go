package types

import "strings"

const (
	SentenceStart = "*"
	SentenceEnd   = "STOP"
)

// Token is a word with its tag. Word is nil only for sentence sentinels.
type Token struct {
	Word *string
	Tag  string
}

func NewToken(word string, tag string) Token {
	return Token{Word: &word, Tag: tag}
}

func StartToken() Token {
	return Token{Tag: SentenceStart}
}

func EndToken() Token {
	return Token{Tag: SentenceEnd}
}

func (token Token) IsSentinel() bool {
	return token.Word == nil
}

func (token Token) GetWord() string {
	if token.Word == nil {
		return ""
	}
	return *token.Word
}

func (token Token) String() string {
	if token.Word == nil {
		return token.Tag
	}
	if len(token.Tag) == 0 {
		return *token.Word
	}
	return *token.Word + " " + token.Tag
}

// NGram is a fixed size window of tokens.
type NGram []Token

func (ngram NGram) Tags() []string {
	tags := make([]string, len(ngram))
	for i, token := range ngram {
		tags[i] = token.Tag
	}
	return tags
}

func (ngram NGram) Last() Token {
	return ngram[len(ngram)-1]
}

func (ngram NGram) String() string {
	parts := make([]string, len(ngram))
	for i, token := range ngram {
		parts[i] = token.String()
	}
	return strings.Join(parts, " | ")
}
