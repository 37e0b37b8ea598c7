package pipeline

import (
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/viterbi"
	"encoding/json"
)

type Pipeline func(request Request) <-chan string

type TaggingParams struct {
	Configurations []types.Configuration `json:"configurations"`
}

// NewTaggingPipeline loads one decoder per configuration and tags every request with
// all of them. The response maps configuration names to their results.
func NewTaggingPipeline(params TaggingParams, storage Storage) (Pipeline, error) {
	nerLogger := logger.NewLogger("Tagging pipeline")
	errLogger := nerLogger.With().Caller().Logger()
	nerLogger.Info().
		Interface("params", params).
		Msg("Starting tagging pipeline (see parameters in 'params' field)")

	// configurations with the same settings share one decoder
	loaded := make(map[uint64]*viterbi.Decoder)
	decoders := make([]*viterbi.Decoder, len(params.Configurations))
	for i, cfg := range params.Configurations {
		if decoder, ok := loaded[cfg.GetHashCode()]; ok {
			decoders[i] = decoder
			continue
		}
		decoder, err := LoadDecoder(cfg, storage)
		if err != nil {
			errLogger.Err(err).
				Str("config_name", cfg.Name).
				Str("counts_file", cfg.CountsFile).
				Msg("Failed to load decoder")
			return nil, err
		}
		loaded[cfg.GetHashCode()] = decoder
		decoders[i] = decoder
	}

	sentenceDetector := NewSentenceDetector()
	splitter := NewSentenceChannelSplitter(len(params.Configurations))
	taggingResult := NewTaggingResult()

	return func(request Request) <-chan string {
		responseChan := make(chan string)
		pplnLog := nerLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started tagging pipeline")

		go func() {
			var in = make(chan string)

			split := splitter(sentenceDetector(in))

			resultChannel := make(chan Result)
			defer close(resultChannel)

			for i, cfg := range params.Configurations {
				tagged := NewHMMTagger(decoders[i])(split[i])
				connect(taggingResult(tagged, cfg.Name, request), resultChannel)
			}

			in <- request.Text
			close(in)
			response := make(map[string]interface{})

			for i := 0; i < len(params.Configurations); i++ {
				res := <-resultChannel
				pplnLog.Info().
					Str("config_name", res.ConfigName).
					Msg("Finished pipeline for configuration")
				response[res.ConfigName] = res.Data
			}

			buf, err := json.Marshal(response)
			if err != nil {
				pplnLog.Err(err).Caller().Msg("Failed to marshall response")
			}
			pplnLog.Info().Msg("Finished tagging pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}, nil
}

func connect(from <-chan Result, to chan<- Result) {
	go func() {
		for v := range from {
			to <- v
		}
	}()
}
