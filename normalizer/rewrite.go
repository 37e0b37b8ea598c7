package normalizer

import (
	"text2phenotype.com/ner/corpus"
	"bufio"
	"fmt"
	"io"
)

// RewriteCorpus copies a tagged corpus from in to out, replacing each rare word by the
// substitute of its category. Tags and sentence boundaries are kept, so counting the
// output folds rare words into their category counts. It returns the number of
// replaced tokens.
func (n Normalizer) RewriteCorpus(in io.Reader, out io.Writer) (int, error) {
	scanner := corpus.NewTokenScanner(in, corpus.Tagged)
	bw := bufio.NewWriter(out)
	replaced := 0

	for scanner.Scan() {
		if scanner.Boundary() {
			if _, err := bw.WriteString("\n"); err != nil {
				return replaced, err
			}
			continue
		}
		token := scanner.Token()
		word := token.GetWord()
		lookup := n.Normalize(word)
		if lookup != word {
			replaced++
		}
		if _, err := fmt.Fprintf(bw, "%s %s\n", lookup, token.Tag); err != nil {
			return replaced, err
		}
	}
	if err := scanner.Err(); err != nil {
		return replaced, fmt.Errorf("failed to read corpus: %w", err)
	}
	return replaced, bw.Flush()
}
