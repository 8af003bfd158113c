package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/storybuddy/companion-contract-tests/companiontests"
	"github.com/storybuddy/companion-contract-tests/framework"
	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/logging"
	"github.com/storybuddy/companion-contract-tests/report"
)

var errTestsFailed = errors.New("some tests failed")

func newRootCommand() *cobra.Command {
	var params commandParams
	cmd := &cobra.Command{
		Use:           "companion-contract-tests",
		Short:         "Run contract tests against a companion backend",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, &params)
		},
	}
	params.bind(cmd)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func runTests(cmd *cobra.Command, params *commandParams) error {
	out := cmd.OutOrStdout()

	cfg, err := params.loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		logger = logger.Level(zerolog.DebugLevel)
		mainDebugLogger = framework.ZerologLogger(logger)
	}

	var metrics *report.Metrics
	opts := harness.HarnessOptions{
		Client: harness.ClientOptions{
			Timeout: cfg.RequestTimeout,
			APIKey:  cfg.APIKey,
		},
		ExtraCapabilities: cfg.Capabilities,
	}
	if params.metricsFile != "" {
		metrics = report.NewMetrics()
		opts.Client.Observer = metrics.ObserveResponse
	}

	h, err := harness.NewTestHarness(cfg.BackendURL, opts, cfg.StatusQueryTimeout, mainDebugLogger, out)
	if err != nil {
		return fmt.Errorf("backend error: %w", err)
	}
	logger.Info().
		Str("backend", h.BackendBaseURL()).
		Str("version", h.BackendInfo().Version).
		Strs("capabilities", h.Capabilities()).
		Msg("connected to backend")

	fmt.Fprintln(out)
	report.PrintFilterDescription(out, params.filters, h.Capabilities().Missing(companiontests.AllCapabilities))

	fmt.Fprintln(out, "Running test suite")
	testLogger := &ConsoleTestLogger{
		Output:               out,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	started := time.Now()
	results := companiontests.RunTestSuite(h, cfg, params.filters.AsFilter, testLogger)
	logger.Debug().Dur("elapsed", time.Since(started)).Msg("test suite finished")

	fmt.Fprintln(out)
	report.PrintResults(out, results)

	if params.jsonReport != "" {
		doc := report.NewJSONReport(results, h.BackendBaseURL(), time.Now())
		if err := report.WriteJSONFile(params.jsonReport, doc); err != nil {
			logger.Error().Err(err).Msg("could not write JSON report")
		} else {
			logger.Info().Str("file", params.jsonReport).Msg("wrote JSON report")
		}
	}
	if metrics != nil {
		metrics.RecordResults(results)
		if err := metrics.WriteTextfile(params.metricsFile); err != nil {
			logger.Error().Err(err).Msg("could not write metrics")
		} else {
			logger.Info().Str("file", params.metricsFile).Msg("wrote metrics")
		}
	}

	if !results.OK() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To run only the failed tests again:")
		fmt.Fprintf(out, "  %s\n", params.rerunCommand(os.Args[0], cmd, results.Failures))
		return errTestsFailed
	}
	return nil
}
