package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/i5heu/aesnt/pkg/codec"
	"github.com/i5heu/aesnt/pkg/keyspace"
	"github.com/i5heu/aesnt/pkg/search"
	"gopkg.in/yaml.v2"
)

const DefaultFile = "aesnt.yaml"

var ErrMissingField = errors.New("missing required field")

type Config struct {
	IV                      string `yaml:"iv"`
	Ciphertext              string `yaml:"ciphertext"`
	OutputDir               string `yaml:"outputDir"`
	Workers                 int    `yaml:"workers"`
	ChunkSize               uint64 `yaml:"chunkSize"`
	StopAtFirstMatch        bool   `yaml:"stopAtFirstMatch"`
	LedgerPath              string `yaml:"ledgerPath"`
	ProgressIntervalSeconds int    `yaml:"progressIntervalSeconds"`
}

// Load reads a yaml config. A missing file at the default location is not an
// error; the result then only carries defaults and must be completed by flags.
func Load(path string) (Config, error) {
	var config Config

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.UnmarshalStrict(data, &config); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}

	if c.ChunkSize == 0 {
		c.ChunkSize = keyspace.DefaultChunkSize
	}

	if c.ProgressIntervalSeconds == 0 {
		c.ProgressIntervalSeconds = 60
	}
}

func (c Config) Policy() keyspace.Policy {
	if c.StopAtFirstMatch {
		return keyspace.StopAtFirstMatch
	}
	return keyspace.ExhaustRange
}

// ProgressInterval is zero when progress events are disabled (negative
// seconds in the file).
func (c Config) ProgressInterval() time.Duration {
	if c.ProgressIntervalSeconds < 0 {
		return 0
	}
	return time.Duration(c.ProgressIntervalSeconds) * time.Second
}

// Job validates every hex input and builds the search job. All configuration
// errors surface here, before any key is tried.
func (c Config) Job(startGuess, endGuess string) (search.Job, error) {
	if c.IV == "" {
		return search.Job{}, fmt.Errorf("%w: iv", ErrMissingField)
	}
	if c.Ciphertext == "" {
		return search.Job{}, fmt.Errorf("%w: ciphertext", ErrMissingField)
	}

	iv, err := codec.ParseUint128Hex(c.IV)
	if err != nil {
		return search.Job{}, fmt.Errorf("iv: %w", err)
	}
	ct, err := codec.ParseBlocks(c.Ciphertext)
	if err != nil {
		return search.Job{}, fmt.Errorf("ciphertext: %w", err)
	}
	start, err := codec.ParseUint128Hex(startGuess)
	if err != nil {
		return search.Job{}, fmt.Errorf("start guess: %w", err)
	}
	end, err := codec.ParseUint128Hex(endGuess)
	if err != nil {
		return search.Job{}, fmt.Errorf("end guess: %w", err)
	}

	job := search.Job{
		IV:         iv,
		Ciphertext: ct,
		Range:      keyspace.Range{Start: start, End: end},
	}
	return job, job.Validate()
}
