package api

import (
	"text2phenotype.com/ner/pipeline"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func echoPipeline(calls *[]pipeline.Request) pipeline.Pipeline {
	return func(request pipeline.Request) <-chan string {
		*calls = append(*calls, request)
		ch := make(chan string, 1)
		ch <- `{"conll":{"output":"` + strings.TrimSpace(request.Text) + `"}}`
		close(ch)
		return ch
	}
}

func TestProcessData(t *testing.T) {
	t.Run("Tags posted text", func(t *testing.T) {
		var calls []pipeline.Request
		req := &Request{Pipeline: echoPipeline(&calls)}

		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("Paris\n"))
		r.Header.Set(TidHeader, "tid-42")
		w := httptest.NewRecorder()
		req.ProcessData(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		require.JSONEq(t, `{"conll":{"output":"Paris"}}`, w.Body.String())
		require.Len(t, calls, 1)
		require.Equal(t, "tid-42", calls[0].Tid)
	})

	t.Run("Default transaction id", func(t *testing.T) {
		var calls []pipeline.Request
		req := &Request{Pipeline: echoPipeline(&calls)}

		w := httptest.NewRecorder()
		req.ProcessData(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")))

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, calls, 1)
		require.Equal(t, defaultTid, calls[0].Tid)
	})

	t.Run("Only POST", func(t *testing.T) {
		var calls []pipeline.Request
		req := &Request{Pipeline: echoPipeline(&calls)}

		w := httptest.NewRecorder()
		req.ProcessData(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
		require.Empty(t, calls)
	})

	t.Run("Closed pipeline", func(t *testing.T) {
		req := &Request{Pipeline: func(request pipeline.Request) <-chan string {
			ch := make(chan string)
			close(ch)
			return ch
		}}

		w := httptest.NewRecorder()
		req.ProcessData(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a\n")))

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
