package cfg

import "time"

const (
	ModeRun    = "run"
	ModeServe  = "serve"
	ModeVerify = "verify"

	BackendJSON   = "json"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

type Cfg struct {
	// Inputs
	DataDir      string
	SeedsFile    string
	OPMLDir      string
	SourcesFile  string
	SettingsFile string

	// Outputs
	OutputDir string
	URLPrefix string

	// Fetch state
	StateBackend string
	StateFile    string
	BoltFile     string
	DBFile       string

	// Pipeline
	Shards           int
	Workers          int
	MaxItems         int
	DiscoveryTimeout time.Duration
	FetchTimeout     time.Duration
	EnrichLimit      int
	VerifyTimeout    time.Duration
	MaxRPS           float64

	// Serve mode
	Mode     string
	Port     string
	Interval int
	APIKey   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
