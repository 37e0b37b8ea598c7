package types

import (
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/utils"
	"fmt"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

const (
	// decoding modes
	DecodingArgmax    = "argmax"
	DecodingBacktrace = "backtrace"

	DefaultRareThreshold = 5

	// counts files with this prefix are fetched from the storage bucket
	StorageScheme = "s3://"
)

type Configuration struct {
	Name          string `yaml:"-" json:"name"`
	FilePath      string `yaml:"-" json:"file_path"`
	CountsFile    string `yaml:"counts_file" json:"counts_file"`
	Decoding      string `yaml:"decoding" json:"decoding"`
	RareThreshold int    `yaml:"rare_threshold" json:"rare_threshold"`
}

func (cfg Configuration) IsRemote() bool {
	return strings.HasPrefix(cfg.CountsFile, StorageScheme)
}

func (cfg Configuration) StorageKey() string {
	return strings.TrimPrefix(cfg.CountsFile, StorageScheme)
}

func (cfg Configuration) Backtrace() bool {
	return cfg.Decoding == DecodingBacktrace
}

func (cfg Configuration) GetHashCode() uint64 {
	return utils.HashString(strings.Join([]string{cfg.CountsFile, cfg.Decoding, fmt.Sprint(cfg.RareThreshold)}, "|"))
}

func (cfg *Configuration) validate() error {
	if len(cfg.CountsFile) == 0 {
		return fmt.Errorf("configuration %q: counts_file is required", cfg.Name)
	}
	switch cfg.Decoding {
	case "":
		cfg.Decoding = DecodingArgmax
	case DecodingArgmax, DecodingBacktrace:
	default:
		return fmt.Errorf("configuration %q: unknown decoding %q", cfg.Name, cfg.Decoding)
	}
	if cfg.RareThreshold == 0 {
		cfg.RareThreshold = DefaultRareThreshold
	}
	if cfg.RareThreshold < 0 {
		return fmt.Errorf("configuration %q: rare_threshold must be positive", cfg.Name)
	}
	return nil
}

func ParseConfiguration(name string, buf []byte) (Configuration, error) {
	cfg := Configuration{Name: name}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("configuration %q: %w", name, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigurations reads every *.yaml file of dirPath. Invalid files are logged and skipped.
func LoadConfigurations(dirPath string) ([]Configuration, error) {
	taggerLogger := logger.NewLogger("LoadConfigurations")

	files, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.FileInfo) {
			defer wg.Done()
			filePath := path.Join(dirPath, file.Name())
			buf, err := ioutil.ReadFile(filePath)
			if err != nil {
				taggerLogger.Err(err).Str("file", filePath).Msg("Could not read configuration")
				return
			}
			cfg, err := ParseConfiguration(strings.TrimSuffix(file.Name(), ".yaml"), buf)
			if err != nil {
				taggerLogger.Err(err).Str("file", filePath).Msg("Skipping invalid configuration")
				return
			}
			cfg.FilePath = filePath
			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]Configuration, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Name < configs[j].Name
	})
	return configs, nil
}
