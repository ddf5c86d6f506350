// Command aesnt brute forces an AES-128 CBC key over a hex range.
//
//	aesnt [flags] <start_guess> <end_guess>
//
// Every key in [start_guess, end_guess) decrypts the configured ciphertext;
// keys yielding printable ASCII are appended to results_from_HHMM_hours.txt.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/i5heu/aesnt/internal/config"
	"github.com/i5heu/aesnt/internal/hostinfo"
	"github.com/i5heu/aesnt/internal/ledger"
	"github.com/i5heu/aesnt/pkg/logging"
	"github.com/i5heu/aesnt/pkg/results"
	"github.com/i5heu/aesnt/pkg/search"
	"github.com/schollz/progressbar/v3"
)

const (
	logKeyConfig   = "config"
	logKeyError    = "error"
	logKeyOutput   = "outputDir"
	logKeyLedger   = "ledgerPath"
	logKeyFindings = "findings"
)

// cliConfig holds the parsed command line.
type cliConfig struct { // A
	configPath string
	iv         string
	ciphertext string
	outputDir  string
	ledgerPath string
	workers    int
	chunkSize  uint64
	first      bool
	progress   bool
	debug      bool
	startGuess string
	endGuess   string
}

func main() { // A
	cli, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cli.debug {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stderr, level, false)

	if err := run(cli, logger); err != nil {
		logger.Error("aesnt failed", logKeyError, err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (cliConfig, error) { // A
	cli := cliConfig{}
	fs := flag.NewFlagSet("aesnt", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "usage: aesnt [flags] <start_guess> <end_guess>")
		fs.PrintDefaults()
	}

	fs.StringVar(&cli.configPath, "config", "",
		"YAML run configuration (default ./"+config.DefaultFile+" if present)")
	fs.StringVar(&cli.iv, "iv", "", "IV as 32 hex digits, overrides the config")
	fs.StringVar(&cli.ciphertext, "ciphertext", "",
		"hex ciphertext, a multiple of 16 bytes, overrides the config")
	fs.StringVar(&cli.outputDir, "out", "", "directory for result files")
	fs.StringVar(&cli.ledgerPath, "ledger", "", "badger directory that also records findings")
	fs.IntVar(&cli.workers, "workers", 0, "parallel workers (default: number of cores)")
	fs.Uint64Var(&cli.chunkSize, "chunk", 0, "keys handed to a worker at a time")
	fs.BoolVar(&cli.first, "first", false, "stop after the first finding instead of exhausting the range")
	fs.BoolVar(&cli.progress, "progress", false, "show a progress bar")
	fs.BoolVar(&cli.debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return cli, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return cli, errors.New("expected start_guess and end_guess")
	}
	cli.startGuess = fs.Arg(0)
	cli.endGuess = fs.Arg(1)

	return cli, nil
}

// resolveConfig merges the config file with the flags; flags win.
func resolveConfig(cli cliConfig) (config.Config, error) { // A
	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return cfg, err
	}

	if cli.iv != "" {
		cfg.IV = cli.iv
	}
	if cli.ciphertext != "" {
		cfg.Ciphertext = cli.ciphertext
	}
	if cli.outputDir != "" {
		cfg.OutputDir = cli.outputDir
	}
	if cli.ledgerPath != "" {
		cfg.LedgerPath = cli.ledgerPath
	}
	if cli.workers > 0 {
		cfg.Workers = cli.workers
	}
	if cli.chunkSize > 0 {
		cfg.ChunkSize = cli.chunkSize
	}
	if cli.first {
		cfg.StopAtFirstMatch = true
	}
	return cfg, nil
}

// run is the main logic, separated for testability.
func run(cli cliConfig, logger *slog.Logger) error { // A
	cfg, err := resolveConfig(cli)
	if err != nil {
		return err
	}
	job, err := cfg.Job(cli.startGuess, cli.endGuess)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	host, err := hostinfo.Collect()
	if err != nil {
		logger.Warn("could not collect host info", logKeyError, err)
	} else {
		logger.Info("host", host.LogAttrs()...)
		if cfg.Workers == 0 {
			cfg.Workers = host.Cores
		}
	}

	sink, err := results.NewFileSink(cfg.OutputDir)
	if err != nil {
		return err
	}
	defer sink.Close()
	recorder := results.MultiRecorder{sink}

	if cfg.LedgerPath != "" {
		l, err := ledger.Open(ledger.Config{Path: cfg.LedgerPath})
		if err != nil {
			return err
		}
		defer l.Close()
		recorder = append(recorder, l)
		logger.Info("ledger enabled", logKeyLedger, cfg.LedgerPath)
	}

	engine := &search.Engine{
		Recorder:         recorder,
		Logger:           logger,
		Workers:          cfg.Workers,
		ChunkSize:        cfg.ChunkSize,
		Policy:           cfg.Policy(),
		ProgressInterval: cfg.ProgressInterval(),
	}

	if cli.progress {
		bar := newProgressBar(job)
		defer func() { _ = bar.Finish() }()
		engine.Progress = func(n uint64) { _ = bar.Add64(int64(n)) }
	}

	logger.Info("working", logKeyOutput, cfg.OutputDir, logKeyConfig, cli.configPath)
	report, err := engine.Run(job)
	if err != nil {
		return err
	}
	logger.Info("done", logKeyFindings, report.Matches)
	return nil
}

// newProgressBar shows a bounded bar when the range fits in an int64 and a
// spinner otherwise.
func newProgressBar(job search.Job) *progressbar.ProgressBar { // A
	total := job.Range.Len()
	if total.Hi == 0 && total.Lo <= 1<<62 {
		return progressbar.Default(int64(total.Lo), "keys")
	}
	return progressbar.Default(-1, "keys")
}
