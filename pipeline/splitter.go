package pipeline

import (
	"text2phenotype.com/ner/corpus"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/types"
	"strings"
	"sync"
)

// NewSentenceDetector splits untagged text, one token per line, into sentences at blank lines.
func NewSentenceDetector() func(in <-chan string) <-chan types.Sentence {
	taggerLogger := logger.NewLogger("Sentence detector")

	return func(in <-chan string) <-chan types.Sentence {
		out := make(chan types.Sentence)
		go func() {
			defer close(out)
			offset := 0
			for text := range in {
				scanner := corpus.NewSentenceScanner(strings.NewReader(text), corpus.Untagged)
				for scanner.Scan() {
					sent := scanner.Sentence()
					sent.Index += offset
					out <- sent
				}
				if err := scanner.Err(); err != nil {
					taggerLogger.Err(err).Msg("Failed to split text into sentences")
				}
				offset += scanner.Count()
			}
		}()
		return out
	}
}

func NewSentenceChannelSplitter(n int) func(in <-chan types.Sentence) []chan types.Sentence {

	return func(in <-chan types.Sentence) []chan types.Sentence {
		outs := make([]chan types.Sentence, n)
		for i := 0; i < n; i++ {
			outs[i] = make(chan types.Sentence)
		}

		go func() {
			defer closeAllChannels(outs)
			var wg sync.WaitGroup

			for sent := range in {
				wg.Add(1)
				go func(sent types.Sentence) {
					defer wg.Done()
					for _, out := range outs {
						out <- sent
					}
				}(sent)
			}

			wg.Wait()
		}()
		return outs
	}
}

func closeAllChannels(outs []chan types.Sentence) {
	for _, out := range outs {
		close(out)
	}
}
