package pipeline

import (
	"text2phenotype.com/ner/viterbi"
	"sort"
	"strings"
)

type Result struct {
	ConfigName string
	Data       interface{}
}

type TaggingResponse struct {
	Tid       string         `json:"tid"`
	Output    string         `json:"output"`
	Sentences []SentenceInfo `json:"sentences"`
}

type SentenceInfo struct {
	Tokens  int       `json:"tokens"`
	Final   [2]string `json:"final_tags"`
	LogProb float64   `json:"log_prob"`
}

// NewTaggingResult restores the sentence order and renders the tagger output format.
func NewTaggingResult() func(in <-chan TaggedSentence, configName string, request Request) <-chan Result {
	return func(in <-chan TaggedSentence, configName string, request Request) <-chan Result {
		out := make(chan Result)
		go func() {
			defer close(out)
			var tagged []TaggedSentence
			for sent := range in {
				tagged = append(tagged, sent)
			}
			sort.Slice(tagged, func(i, j int) bool {
				return tagged[i].Index < tagged[j].Index
			})

			response := TaggingResponse{
				Tid:       request.Tid,
				Sentences: make([]SentenceInfo, len(tagged)),
			}
			var sb strings.Builder
			for i, sent := range tagged {
				// writes to a strings.Builder do not fail
				_ = viterbi.WriteResult(&sb, sent.Result)
				response.Sentences[i] = SentenceInfo{
					Tokens:  len(sent.Result.Tokens),
					Final:   sent.Result.Final,
					LogProb: sent.Result.LogProb,
				}
			}
			response.Output = sb.String()

			out <- Result{ConfigName: configName, Data: response}
		}()
		return out
	}
}
