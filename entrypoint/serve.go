package main

import (
	"text2phenotype.com/ner/api"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/pipeline"
	"text2phenotype.com/ner/s3client"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/worker"
	"errors"
	"flag"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"net/http"
	"os"
	"time"
)

type Config struct {
	ConfigPath    string `envconfig:"NER_TAGGER_CONFIG_PATH" required:"true"`
	RestAPIActive bool   `envconfig:"NER_TAGGER_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"NER_TAGGER_REST_API_PORT" default:"10000"`
	WorkerActive  bool   `envconfig:"NER_TAGGER_WORKER_ACTIVE" default:"true"`
	// needed when a configuration reads its counts file from s3://
	StorageActive bool `envconfig:"NER_TAGGER_STORAGE_ACTIVE" default:"false"`
}

const (
	pipelineStartMaxRetries = 5
	retryDelay              = 5 * time.Second
)

func runServe(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}

	serveLogger := logger.NewLogger("Serve")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if !config.RestAPIActive && !config.WorkerActive {
		return errors.New("neither the REST API nor the worker is active")
	}

	var storage pipeline.Storage
	if config.StorageActive {
		s3Client, err := s3client.New()
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		defer s3Client.Close()
		serveLogger.Info().Str("bucket", s3Client.Bucket()).Msg("Counts files can be read from storage")
		storage = s3Client
	}

	ppln, err := loadPipeline(config, storage)
	if err != nil {
		return err
	}

	apiErrors := make(chan error, 1)
	if config.RestAPIActive {
		go func() {
			apiRequest := &api.Request{
				Pipeline: ppln,
			}
			mux := http.NewServeMux()
			mux.HandleFunc("/", apiRequest.ProcessData)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			serveLogger.Info().Msgf("REST API on %s", host)
			apiErrors <- http.ListenAndServe(host, mux)
		}()
	}
	if !config.WorkerActive {
		return fmt.Errorf("REST API stopped: %w", <-apiErrors)
	}

	serveLogger.Info().Msg("Starting tagging worker")
	for {
		select {
		case err := <-apiErrors:
			return fmt.Errorf("REST API stopped: %w", err)
		default:
		}
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			return fmt.Errorf("could not initialize RMQ worker: %w", err)
		}
		if err = rmqWorker.StartWorker(); err != nil {
			serveLogger.Err(err).Msgf("Worker returned with error. Launching new in %v", retryDelay)
			time.Sleep(retryDelay)
		}
	}
}

// loadPipeline retries since counts files may still be on their way to storage.
func loadPipeline(config Config, storage pipeline.Storage) (pipeline.Pipeline, error) {
	serveLogger := logger.NewLogger("Serve")
	var err error
	for retry := 0; retry < pipelineStartMaxRetries; retry++ {
		var cfgs []types.Configuration
		cfgs, err = types.LoadConfigurations(config.ConfigPath)
		if err != nil {
			serveLogger.Err(err).Msgf("Failed to load configurations. Retrying in %v", retryDelay)
			time.Sleep(retryDelay)
			continue
		}
		if len(cfgs) == 0 {
			return nil, fmt.Errorf("no tagger configuration in %s", config.ConfigPath)
		}
		serveLogger.Info().Msgf("Loaded %d configurations", len(cfgs))

		var ppln pipeline.Pipeline
		ppln, err = pipeline.NewTaggingPipeline(pipeline.TaggingParams{Configurations: cfgs}, storage)
		if err != nil {
			serveLogger.Err(err).Msgf("Failed to start tagging pipeline. Retrying in %v", retryDelay)
			time.Sleep(retryDelay)
			continue
		}
		serveLogger.Info().Msg("Pipeline loaded")
		return ppln, nil
	}
	return nil, fmt.Errorf("could not start pipeline after %d retries: %w", pipelineStartMaxRetries, err)
}

// runSupervise restarts this binary as "serve" and relays its logs. It never returns.
func runSupervise(args []string) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	logger.Supervise(executable, append([]string{"serve"}, args...)...)
	return nil
}
