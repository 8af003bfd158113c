package main

import (
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"

	"github.com/storybuddy/companion-contract-tests/config"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

type commandParams struct {
	configFile    string
	envFile       string
	backendURL    string
	capabilities  []string
	timeout       time.Duration
	statusTimeout time.Duration
	filters       ldtest.RegexFilters
	debug         bool
	debugAll      bool
	jsonReport    string
	metricsFile   string
	logLevel      string
	logFormat     string
}

func (c *commandParams) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&c.backendURL, "url", "", "base URL of the backend under test")
	fs.StringVar(&c.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&c.envFile, "env-file", ".env", "dotenv file to load if present")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringSliceVar(&c.capabilities, "capability", nil, "treat capability as supported even if the backend does not advertise it")
	fs.DurationVar(&c.timeout, "timeout", 0, "timeout for each request to the backend")
	fs.DurationVar(&c.statusTimeout, "status-timeout", 0, "how long to wait for the backend to respond at startup")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jsonReport, "json-report", "", "write a JSON report to this file")
	fs.StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this file")
	fs.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&c.logFormat, "log-format", "", `log format ("console" or "json")`)
}

// loadConfig layers the command-line flags that were explicitly set on top of the
// configuration from files and the environment.
func (c *commandParams) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: c.configFile, EnvFile: c.envFile})
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.BackendURL = strings.TrimSpace(c.backendURL)
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = c.timeout
	}
	if flags.Changed("status-timeout") {
		cfg.StatusQueryTimeout = c.statusTimeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = c.logFormat
	}
	cfg.Capabilities = append(cfg.Capabilities, c.capabilities...)
	return cfg, cfg.Validate()
}

// rerunCommand builds a shell command line that runs only the specified tests, with the same
// settings as this run.
func (c *commandParams) rerunCommand(program string, cmd *cobra.Command, failures []ldtest.TestResult) string {
	var b commandBuilder
	b.add(program)
	for _, name := range []string{
		"url", "config", "env-file", "timeout", "status-timeout", "log-level", "log-format",
		"json-report", "metrics-file",
	} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			b.add("--"+name, f.Value.String())
		}
	}
	for _, capability := range c.capabilities {
		b.add("--capability", capability)
	}
	for _, pattern := range c.filters.MustNotMatch.Patterns() {
		b.add("--skip", pattern)
	}
	switch {
	case c.debugAll:
		b.add("--debug-all")
	case c.debug:
		b.add("--debug")
	}
	for _, f := range failures {
		b.add("--run", ldtest.ExactPattern(f.TestID))
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
