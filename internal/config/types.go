package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
}

// Default values.
const (
	DefaultMaxBatchSize       = 100
	DefaultFormat             = "text"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
	DefaultJiraTimeoutSeconds = 30
	DefaultOracleTimeout      = 120
)

// Output formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatGitHub = "github"
)

// Config holds the full configuration for todocheck.
type Config struct {
	// Markers and tickets
	AllowedTodoSynonyms        []string `toml:"allowed_todo_synonyms" yaml:"allowed_todo_synonyms"`
	DisallowedTodoSynonyms     []string `toml:"disallowed_todo_synonyms" yaml:"disallowed_todo_synonyms"`
	JiraProjectIDs             []string `toml:"jira_project_ids" yaml:"jira_project_ids"`
	DisallowedJiraStatuses     []string `toml:"disallowed_jira_statuses" yaml:"disallowed_jira_statuses"`
	DisallowedJiraResolutions  []string `toml:"disallowed_jira_resolutions" yaml:"disallowed_jira_resolutions"`
	DisallowAllJiraResolutions bool     `toml:"disallow_all_jira_resolutions" yaml:"disallow_all_jira_resolutions"`
	MaxBatchSize               int      `toml:"max_batch_size" yaml:"max_batch_size"`

	// Scanning
	Include []string `toml:"include" yaml:"include"` // glob patterns on the base name or slash path
	Exclude []string `toml:"exclude" yaml:"exclude"`
	Workers int      `toml:"workers" yaml:"workers"` // 0 = number of CPUs

	// Output
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output"` // "" = stdout

	// Logging configuration
	LogLevel      string `toml:"log_level" yaml:"log_level"`
	LogFormat     string `toml:"log_format" yaml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps" yaml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller" yaml:"log_caller"`

	// Ticket oracles
	Jira   JiraConfig   `toml:"jira" yaml:"jira"`
	Oracle OracleConfig `toml:"oracle" yaml:"oracle"`

	// Computed
	ProjectRoot string   `toml:"-" yaml:"-"`
	ConfigFiles []string `toml:"-" yaml:"-"`
}

// JiraConfig holds the Jira connection. At most one authentication mode may
// be set.
type JiraConfig struct {
	Server                 string `toml:"server" yaml:"server"`
	CookieUsername         string `toml:"cookie_username" yaml:"cookie_username"`
	CookiePassword         string `toml:"cookie_password" yaml:"cookie_password"`
	HTTPBasicUsername      string `toml:"http_basic_username" yaml:"http_basic_username"`
	HTTPBasicPassword      string `toml:"http_basic_password" yaml:"http_basic_password"`
	Token                  string `toml:"token" yaml:"token"`
	OAuthAccessToken       string `toml:"oauth_access_token" yaml:"oauth_access_token"`
	OAuthAccessTokenSecret string `toml:"oauth_access_token_secret" yaml:"oauth_access_token_secret"`
	OAuthConsumerKey       string `toml:"oauth_consumer_key" yaml:"oauth_consumer_key"`
	OAuthKeyCertFile       string `toml:"oauth_key_cert_file" yaml:"oauth_key_cert_file"`
	Kerberos               bool   `toml:"kerberos" yaml:"kerberos"`
	KerberosConfig         string `toml:"kerberos_config" yaml:"kerberos_config"`
	KerberosCCache         string `toml:"kerberos_ccache" yaml:"kerberos_ccache"`
	TimeoutSeconds         int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// OracleConfig points at an external oracle plugin speaking JSON-RPC on
// stdin/stdout.
type OracleConfig struct {
	Command        string            `toml:"command" yaml:"command"`
	Args           []string          `toml:"args" yaml:"args"`
	Config         map[string]string `toml:"config" yaml:"config"` // exported as TODOCHECK_PLUGIN_<KEY>
	TimeoutSeconds int               `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.AllowedTodoSynonyms = []string{"TODO"}
	cfg.DisallowedTodoSynonyms = []string{"FIXME", "QQ"}
	cfg.JiraProjectIDs = nil
	cfg.DisallowedJiraStatuses = []string{"Done"}
	cfg.DisallowedJiraResolutions = nil
	cfg.DisallowAllJiraResolutions = true
	cfg.MaxBatchSize = DefaultMaxBatchSize

	cfg.Exclude = []string{".git", "vendor", "node_modules"}
	cfg.Format = DefaultFormat

	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat

	cfg.Jira.TimeoutSeconds = DefaultJiraTimeoutSeconds
	cfg.Oracle.TimeoutSeconds = DefaultOracleTimeout
}

// Defaults returns a config holding only the built-in defaults.
func Defaults() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}
