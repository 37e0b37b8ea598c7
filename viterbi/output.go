package viterbi

import (
	"bufio"
	"io"
	"strconv"
)

// WriteResult writes one "word tag logprob" line per token and a blank line.
func WriteResult(w io.Writer, result Result) error {
	bw := bufio.NewWriter(w)
	for _, token := range result.Tokens {
		bw.WriteString(token.Word)
		bw.WriteByte(' ')
		bw.WriteString(token.Tag)
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(token.LogProb, 'g', -1, 64))
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	return bw.Flush()
}
