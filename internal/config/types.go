package config

// Built-in defaults. The CLI flags carry the same values as their kong defaults.
const (
	DefaultProject     = "."
	DefaultTarget      = "lib/google_sign_in_test_main.dart"
	DefaultLogDir      = "logs"
	DefaultLogPrefix   = "google_signin"
	DefaultFileName    = "runlog.yaml"
	DefaultHistoryFile = "runlog.db"
	DefaultSubject     = "runlog.runs"
)

// DefaultTool is the build/run tool invocation used when nothing is configured.
var DefaultTool = []string{"flutter"}

// DefaultInstructions are printed under the banner before the tool starts.
var DefaultInstructions = []string{
	"1) Wait for app to open",
	"2) Tap 'Sign in with Google'",
	"3) When error happens, close app or press 'q' in flutter terminal",
	"4) Copy/paste the contents of the log file back into chat",
}

// File is the on-disk runlog.yaml format. Every field is optional.
type File struct {
	Tool         []string      `yaml:"tool,omitempty"`
	LogPrefix    string        `yaml:"log_prefix,omitempty"`
	Target       string        `yaml:"target,omitempty"`
	Device       string        `yaml:"device,omitempty"`
	LogDir       string        `yaml:"logdir,omitempty"`
	FlushLines   *bool         `yaml:"flush_lines,omitempty"`
	Instructions []string      `yaml:"instructions,omitempty"`
	History      HistoryConfig `yaml:"history,omitempty"`
	Metrics      MetricsConfig `yaml:"metrics,omitempty"`
	NATS         NATSConfig    `yaml:"nats,omitempty"`
}

// HistoryConfig controls the SQLite run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // relative paths are resolved against the log directory
}

// MetricsConfig controls the Prometheus textfile.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NATSConfig controls run event publishing.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Names of the flags whose explicit values take precedence over runlog.yaml.
const (
	FlagTarget = "target"
	FlagDevice = "device"
	FlagLogDir = "logdir"
)

// Flags carries the raw command-line values (after kong applied env vars and defaults).
type Flags struct {
	Project     string
	Device      string
	Target      string
	LogDir      string
	ConfigPath  string
	History     bool
	MetricsFile string
	NATSURL     string
	Quiet       bool
	// Explicit holds the names of flags given on the command line or through a
	// non-empty environment variable. Their values are used verbatim, even when
	// empty or equal to the default.
	Explicit map[string]bool
}

// Options is the fully resolved configuration for one run.
type Options struct {
	Project      string // absolute
	LogDir       string // absolute
	Target       string
	Device       string
	LogPrefix    string
	Tool         []string
	FlushLines   bool
	Instructions []string
	Quiet        bool
	ConfigFile   string // empty when no runlog.yaml was used

	History HistoryConfig // Path is absolute when Enabled
	Metrics MetricsConfig
	NATS    NATSConfig
}
