package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// ConfigurationError reports an invalid run configuration. It is raised
// before any browsing starts.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// QueryPlanEntry is one search term and the number of listings wanted for it.
type QueryPlanEntry struct {
	Term   string
	Target int
}

// Config holds all application configuration loaded from environment variables
// and the query plan file.
type Config struct {
	StartURL  string
	Headless  bool
	ChromeBin string

	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	ResultsTimeout    time.Duration
	ScrollSettle      time.Duration
	PanelSettle       time.Duration
	PollInterval      time.Duration

	ScrollDelta         int
	MaxScrollIterations int

	OutputDir     string
	QueryPlanPath string
	PostgresDSN   string
	LogLevel      string

	Plan []QueryPlanEntry
}

// planFile mirrors the YAML layout: two parallel lists.
type planFile struct {
	SearchList []string `yaml:"search_list"`
	Totals     []int    `yaml:"totals"`
}

// Load reads the .env file, the environment and the query plan. Any problem
// with the plan is returned as a *ConfigurationError.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		StartURL:  getEnv("START_URL", "https://www.google.com/maps"),
		Headless:  getEnvBool("HEADLESS", true),
		ChromeBin: getEnv("CHROME_BIN", ""),

		NavigationTimeout: getEnvMs("NAVIGATION_TIMEOUT_MS", 60000),
		ActionTimeout:     getEnvMs("ACTION_TIMEOUT_MS", 30000),
		ResultsTimeout:    getEnvMs("RESULTS_TIMEOUT_MS", 5000),
		ScrollSettle:      getEnvMs("SCROLL_SETTLE_MS", 3000),
		PanelSettle:       getEnvMs("PANEL_SETTLE_MS", 5000),
		PollInterval:      getEnvMs("POLL_INTERVAL_MS", 250),

		ScrollDelta:         getEnvInt("SCROLL_DELTA", 10000),
		MaxScrollIterations: getEnvInt("MAX_SCROLL_ITERATIONS", 200),

		OutputDir:     getEnv("OUTPUT_DIR", "output"),
		QueryPlanPath: getEnv("QUERY_PLAN_PATH", "queries.yaml"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	plan, err := LoadPlan(cfg.QueryPlanPath)
	if err != nil {
		return nil, err
	}
	cfg.Plan = plan
	return cfg, nil
}

// LoadPlan reads the query plan from the YAML file at path. When the file does
// not exist the plan comes from SEARCH_LIST (";"-separated) and SEARCH_TOTALS
// (","-separated).
func LoadPlan(path string) ([]QueryPlanEntry, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var pf planFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("parse %s: %v", path, err)}
		}
		return BuildPlan(pf.SearchList, pf.Totals)
	case errors.Is(err, os.ErrNotExist):
		return planFromEnv()
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
}

func planFromEnv() ([]QueryPlanEntry, error) {
	terms := splitList(os.Getenv("SEARCH_LIST"), ";")
	rawTotals := splitList(os.Getenv("SEARCH_TOTALS"), ",")

	totals := make([]int, 0, len(rawTotals))
	for _, raw := range rawTotals {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("SEARCH_TOTALS: %q is not an integer", raw)}
		}
		totals = append(totals, n)
	}
	return BuildPlan(terms, totals)
}

// BuildPlan pairs search terms with their targets after validating them.
func BuildPlan(terms []string, totals []int) ([]QueryPlanEntry, error) {
	if len(terms) != len(totals) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf(
			"the number of search terms (%d) and totals (%d) do not match", len(terms), len(totals))}
	}
	if len(terms) == 0 {
		return nil, &ConfigurationError{Reason: "no search terms configured"}
	}

	plan := make([]QueryPlanEntry, 0, len(terms))
	for i, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("search term %d is blank", i+1)}
		}
		if totals[i] <= 0 {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("total for %q must be positive, got %d", term, totals[i])}
		}
		plan = append(plan, QueryPlanEntry{Term: term, Target: totals[i]})
	}
	return plan, nil
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvMs(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
