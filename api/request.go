package api

import (
	"text2phenotype.com/ner/pipeline"
	"io/ioutil"
	"net/http"
)

const (
	// TidHeader carries the caller's transaction id into the pipeline logs.
	TidHeader  = "X-Transaction-Id"
	defaultTid = "api"
)

type Request struct {
	Pipeline pipeline.Pipeline
}

// ProcessData tags the posted text, one token per line and sentences separated by blank
// lines, with every loaded configuration.
func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != http.MethodPost {
		logger.Error().Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	tid := r.Header.Get(TidHeader)
	if len(tid) == 0 {
		tid = defaultTid
	}
	request := pipeline.Request{
		Tid:  tid,
		Text: string(msg),
	}
	logger.Info().Str("tid", request.Tid).Int("bytes", len(msg)).Msg("Starting pipeline for request from API")
	resp, ok := <-req.Pipeline(request)
	if !ok {
		logger.Error().Int("status", http.StatusInternalServerError).Msg("Pipeline returned no response")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(resp))
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}
