package pipeline

import (
	"text2phenotype.com/ner/hmm"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/normalizer"
	"bytes"
	"io"
)

// TrainModel counts a tagged corpus, folds words seen fewer than threshold times into
// their category substitutes and counts the rewritten corpus again. The corpus is
// buffered since it is read twice.
func TrainModel(corpus io.Reader, order int, threshold int) (*hmm.Model, error) {
	trainLogger := logger.NewLogger("Training")

	var buf bytes.Buffer
	raw, err := hmm.NewModel(order)
	if err != nil {
		return nil, err
	}
	if err := raw.Train(io.TeeReader(corpus, &buf)); err != nil {
		return nil, err
	}

	model, err := hmm.NewModel(order)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	replaced := make(chan int, 1)
	go func() {
		n, err := normalizer.New(raw, threshold).RewriteCorpus(&buf, pw)
		replaced <- n
		pw.CloseWithError(err)
	}()

	if err := model.Train(pr); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}

	trainLogger.Info().
		Int("replaced_tokens", <-replaced).
		Int("threshold", threshold).
		Int("vocabulary", model.VocabularySize()).
		Msg("Finished training")
	return model, nil
}
