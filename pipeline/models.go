package pipeline

import (
	"text2phenotype.com/ner/hmm"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/viterbi"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Storage downloads objects by key. The s3client package implements it.
type Storage interface {
	Download(key string) ([]byte, error)
}

// LoadModel reads the counts file of cfg from the local disk or, for s3:// locations,
// from storage.
func LoadModel(cfg types.Configuration, storage Storage) (*hmm.Model, error) {
	var r io.Reader
	if cfg.IsRemote() {
		if storage == nil {
			return nil, fmt.Errorf("configuration %q needs object storage for %s", cfg.Name, cfg.CountsFile)
		}
		buf, err := storage.Download(cfg.StorageKey())
		if err != nil {
			return nil, fmt.Errorf("failed to download counts file %s: %w", cfg.CountsFile, err)
		}
		r = bytes.NewReader(buf)
	} else {
		f, err := os.Open(cfg.CountsFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	model, err := hmm.LoadCounts(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load counts file %s: %w", cfg.CountsFile, err)
	}
	return model, nil
}

func DecoderOptions(cfg types.Configuration) []viterbi.Option {
	var opts []viterbi.Option
	if cfg.RareThreshold > 0 {
		opts = append(opts, viterbi.WithRareThreshold(cfg.RareThreshold))
	}
	if cfg.Backtrace() {
		opts = append(opts, viterbi.WithBacktrace())
	}
	return opts
}

func LoadDecoder(cfg types.Configuration, storage Storage) (*viterbi.Decoder, error) {
	model, err := LoadModel(cfg, storage)
	if err != nil {
		return nil, err
	}
	return viterbi.NewDecoder(model, DecoderOptions(cfg)...)
}
