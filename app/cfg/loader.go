package cfg

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Inputs
	DataDir      string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory holding seeds, OPML files, explicit sources and settings"`
	SeedsFile    string `long:"seeds-file" env:"SEEDS_FILE" description:"Seed homepage list (default: <data-dir>/seeds.yaml)"`
	OPMLDir      string `long:"opml-dir" env:"OPML_DIR" description:"Directory of OPML files (default: <data-dir>/opml)"`
	SourcesFile  string `long:"sources-file" env:"SOURCES_FILE" description:"Explicit source list (default: <data-dir>/sources.yaml)"`
	SettingsFile string `long:"settings-file" env:"SETTINGS_FILE" description:"Filter and classifier settings (default: <data-dir>/settings.yaml)"`

	// Outputs
	OutputDir string `long:"output-dir" env:"OUTPUT_DIR" default:"./public/api" description:"Directory the snapshot files are written to"`
	URLPrefix string `long:"url-prefix" env:"URL_PREFIX" default:"/api" description:"Path prefix used for resource paths in the index"`

	// Fetch state
	StateBackend string `long:"state-backend" env:"STATE_BACKEND" default:"json" choice:"json" choice:"bolt" choice:"sqlite" description:"Fetch state storage backend"`
	StateFile    string `long:"state-file" env:"STATE_FILE" description:"JSON fetch state file (default: <data-dir>/feed_state.json)"`
	BoltFile     string `long:"bolt-file" env:"BOLT_FILE" description:"bbolt fetch state file (default: <data-dir>/feed_state.db)"`
	DBFile       string `long:"db-file" env:"DB_FILE" description:"sqlite database file (default: <data-dir>/harvest.sqlite)"`

	// Pipeline
	Shards           int           `long:"shards" env:"SHARDS" default:"5" description:"Number of shards non-sports sources are spread over"`
	Workers          int           `long:"workers" env:"WORKERS" default:"20" description:"Number of concurrent fetch workers"`
	MaxItems         int           `long:"max-items" env:"MAX_ITEMS" default:"4000" description:"Maximum number of articles kept in a snapshot"`
	DiscoveryTimeout time.Duration `long:"discovery-timeout" env:"DISCOVERY_TIMEOUT" default:"12s" description:"Per-attempt timeout for homepage discovery"`
	FetchTimeout     time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15s" description:"Per-attempt timeout for feed fetches"`
	EnrichLimit      int           `long:"enrich-limit" env:"ENRICH_LIMIT" default:"0" description:"Maximum number of articles enriched from their page (0 disables)"`
	VerifyTimeout    time.Duration `long:"verify-timeout" env:"VERIFY_TIMEOUT" default:"10s" description:"Per-attempt timeout for seed checks (verify mode)"`
	MaxRPS           float64       `long:"max-rps" env:"MAX_RPS" default:"0" description:"Global request rate limit (0 disables)"`

	// Serve mode
	Mode     string `long:"mode" env:"MODE" default:"run" choice:"run" choice:"serve" choice:"verify" description:"Run once and exit, serve the snapshot and refresh it periodically, or check seed homepages for feeds"`
	Port     string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (serve mode)"`
	Interval int    `long:"interval" env:"INTERVAL" default:"60" description:"Seconds between pipeline runs (serve mode)"`
	APIKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key enabling the refresh endpoint (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for the day snapshot key (e.g., UTC, Asia/Riyadh)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", raw.Interval)
	}

	dataFile := func(value, name string) string {
		return cmp.Or(value, filepath.Join(raw.DataDir, name))
	}

	return &Cfg{
		DataDir:          raw.DataDir,
		SeedsFile:        dataFile(raw.SeedsFile, "seeds.yaml"),
		OPMLDir:          dataFile(raw.OPMLDir, "opml"),
		SourcesFile:      dataFile(raw.SourcesFile, "sources.yaml"),
		SettingsFile:     dataFile(raw.SettingsFile, "settings.yaml"),
		OutputDir:        raw.OutputDir,
		URLPrefix:        raw.URLPrefix,
		StateBackend:     raw.StateBackend,
		StateFile:        dataFile(raw.StateFile, "feed_state.json"),
		BoltFile:         dataFile(raw.BoltFile, "feed_state.db"),
		DBFile:           dataFile(raw.DBFile, "harvest.sqlite"),
		Shards:           raw.Shards,
		Workers:          raw.Workers,
		MaxItems:         raw.MaxItems,
		DiscoveryTimeout: raw.DiscoveryTimeout,
		FetchTimeout:     raw.FetchTimeout,
		EnrichLimit:      raw.EnrichLimit,
		VerifyTimeout:    raw.VerifyTimeout,
		MaxRPS:           raw.MaxRPS,
		Mode:             raw.Mode,
		Port:             raw.Port,
		Interval:         raw.Interval,
		APIKey:           raw.APIKey,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
