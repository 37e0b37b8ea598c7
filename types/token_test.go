package types

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestToken(t *testing.T) {
	word := NewToken("Paris", "I-LOC")
	require.False(t, word.IsSentinel())
	require.Equal(t, "Paris", word.GetWord())
	require.Equal(t, "Paris I-LOC", word.String())
	require.Equal(t, "Paris", NewToken("Paris", "").String())

	start, end := StartToken(), EndToken()
	require.True(t, start.IsSentinel())
	require.Equal(t, "", start.GetWord())
	require.Equal(t, SentenceStart, start.String())
	require.Equal(t, SentenceEnd, end.String())
}

func TestSentence(t *testing.T) {
	sent := Sentence{Tokens: []Token{NewToken("Peter", "I-PER"), NewToken("runs", "O")}}
	require.Equal(t, 2, sent.Len())
	require.Equal(t, []string{"Peter", "runs"}, sent.Words())
	require.Equal(t, []string{"I-PER", "O"}, sent.Tags())
	require.Equal(t, []string{SentenceStart, "I-PER", SentenceEnd}, NGram{StartToken(), NewToken("Peter", "I-PER"), EndToken()}.Tags())
}
