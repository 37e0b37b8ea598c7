package pipeline

import (
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/viterbi"
	"sync"
)

type TaggedSentence struct {
	Index  int
	Result viterbi.Result
}

type Tagger func(in <-chan types.Sentence) <-chan TaggedSentence

// NewHMMTagger decodes every sentence in its own goroutine. The decoder is read-only,
// so the goroutines share it.
func NewHMMTagger(decoder *viterbi.Decoder) Tagger {
	return func(in <-chan types.Sentence) <-chan TaggedSentence {
		out := make(chan TaggedSentence)
		go func() {
			defer close(out)
			var wg sync.WaitGroup
			for sent := range in {

				wg.Add(1)
				go func(sent types.Sentence) {
					defer wg.Done()
					out <- TaggedSentence{
						Index:  sent.Index,
						Result: decoder.Decode(sent.Words()),
					}
				}(sent)

			}

			wg.Wait()
		}()
		return out
	}
}
