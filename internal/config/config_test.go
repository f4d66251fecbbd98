package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/nibzard/todocheck-go/internal/checker"
)

// isolate points HOME at an empty directory and changes into a fresh
// project directory, which is returned.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	project := t.TempDir()
	t.Chdir(project)
	return project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func load(t *testing.T, args ...string) *ConfigWithSources {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	return cws
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if !slices.Equal(cfg.AllowedTodoSynonyms, []string{"TODO"}) {
		t.Errorf("AllowedTodoSynonyms: got %v, want [TODO]", cfg.AllowedTodoSynonyms)
	}
	if !slices.Equal(cfg.DisallowedTodoSynonyms, []string{"FIXME", "QQ"}) {
		t.Errorf("DisallowedTodoSynonyms: got %v, want [FIXME QQ]", cfg.DisallowedTodoSynonyms)
	}
	if !slices.Equal(cfg.DisallowedJiraStatuses, []string{"Done"}) {
		t.Errorf("DisallowedJiraStatuses: got %v, want [Done]", cfg.DisallowedJiraStatuses)
	}
	if !cfg.DisallowAllJiraResolutions {
		t.Error("DisallowAllJiraResolutions: got false, want true")
	}
	if cfg.MaxBatchSize != DefaultMaxBatchSize {
		t.Errorf("MaxBatchSize: got %d, want %d", cfg.MaxBatchSize, DefaultMaxBatchSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	project := isolate(t)
	cws := load(t)

	if cws.Config.ProjectRoot != project {
		// macOS temp dirs may be symlinked
		if real, _ := filepath.EvalSymlinks(project); cws.Config.ProjectRoot != real {
			t.Errorf("ProjectRoot: got %q, want %q", cws.Config.ProjectRoot, project)
		}
	}
	if got := cws.GetConfigFile(); got != "" {
		t.Errorf("GetConfigFile: got %q, want empty", got)
	}
	for key, src := range cws.Sources {
		if src != SourceDefault {
			t.Errorf("source of %s: got %s, want default", key, src)
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TODOCHECK_JIRA_PROJECT_IDS", "ABC, DEF")
	t.Setenv("TODOCHECK_MAX_BATCH_SIZE", "50")
	t.Setenv("TODOCHECK_DISALLOW_ALL_JIRA_RESOLUTIONS", "no")
	t.Setenv("TODOCHECK_DISALLOWED_JIRA_RESOLUTIONS", "Fixed")
	t.Setenv("TODOCHECK_JIRA_SERVER", "https://jira.example.com")
	t.Setenv("TODOCHECK_JIRA_TOKEN", "secret-token")

	cws := load(t)
	cfg := cws.Config

	if !slices.Equal(cfg.JiraProjectIDs, []string{"ABC", "DEF"}) {
		t.Errorf("JiraProjectIDs: got %v, want [ABC DEF]", cfg.JiraProjectIDs)
	}
	if cfg.MaxBatchSize != 50 {
		t.Errorf("MaxBatchSize: got %d, want 50", cfg.MaxBatchSize)
	}
	if cfg.DisallowAllJiraResolutions {
		t.Error("DisallowAllJiraResolutions: got true, want false")
	}
	if cfg.Jira.Server != "https://jira.example.com" {
		t.Errorf("Jira.Server: got %q", cfg.Jira.Server)
	}
	if cws.Sources["jira.token"] != SourceEnv {
		t.Errorf("source of jira.token: got %s, want environment", cws.Sources["jira.token"])
	}
}

func TestLoadFromEnvBadNumber(t *testing.T) {
	isolate(t)
	t.Setenv("TODOCHECK_WORKERS", "many")

	_, err := LoadWithSources(pflag.NewFlagSet("test", pflag.ContinueOnError), nil)
	if !errors.Is(err, checker.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "TODOCHECK_WORKERS") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	project := isolate(t)
	writeFile(t, filepath.Join(project, "todocheck.toml"), `jira_project_ids = ["ABC"]
max_batch_size = 25
format = "json"

[jira]
server = "https://jira.example.com"
http_basic_username = "me"
http_basic_password = "pw"
`)

	cws := load(t)
	cfg := cws.Config

	if !slices.Equal(cfg.JiraProjectIDs, []string{"ABC"}) {
		t.Errorf("JiraProjectIDs: got %v, want [ABC]", cfg.JiraProjectIDs)
	}
	if cfg.MaxBatchSize != 25 {
		t.Errorf("MaxBatchSize: got %d, want 25", cfg.MaxBatchSize)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("Format: got %q, want json", cfg.Format)
	}
	if cfg.Jira.HTTPBasicUsername != "me" {
		t.Errorf("Jira.HTTPBasicUsername: got %q, want me", cfg.Jira.HTTPBasicUsername)
	}
	// Keys absent from the file keep their defaults.
	if !slices.Equal(cfg.AllowedTodoSynonyms, []string{"TODO"}) {
		t.Errorf("AllowedTodoSynonyms: got %v, want [TODO]", cfg.AllowedTodoSynonyms)
	}
	if cfg.Jira.TimeoutSeconds != DefaultJiraTimeoutSeconds {
		t.Errorf("Jira.TimeoutSeconds: got %d", cfg.Jira.TimeoutSeconds)
	}

	if cws.Sources["jira.server"] != SourceProjFile {
		t.Errorf("source of jira.server: got %s, want project file", cws.Sources["jira.server"])
	}
	if cws.Sources["allowed_todo_synonyms"] != SourceDefault {
		t.Errorf("source of allowed_todo_synonyms: got %s, want default", cws.Sources["allowed_todo_synonyms"])
	}
	if !strings.HasSuffix(cws.GetConfigFile(), "todocheck.toml") {
		t.Errorf("GetConfigFile: got %q", cws.GetConfigFile())
	}
}

func TestLoadYAMLConfigFile(t *testing.T) {
	project := isolate(t)
	writeFile(t, filepath.Join(project, ".todocheck.yaml"), `allowed_todo_synonyms: [TODO, LATER]
disallowed_todo_synonyms: []
oracle:
  command: my-oracle
  args: ["--fast"]
`)

	cfg := load(t).Config
	if !slices.Equal(cfg.AllowedTodoSynonyms, []string{"TODO", "LATER"}) {
		t.Errorf("AllowedTodoSynonyms: got %v", cfg.AllowedTodoSynonyms)
	}
	if len(cfg.DisallowedTodoSynonyms) != 0 {
		t.Errorf("DisallowedTodoSynonyms: got %v, want empty", cfg.DisallowedTodoSynonyms)
	}

	p := cfg.OraclePlugin()
	if p == nil {
		t.Fatal("OraclePlugin: got nil")
	}
	if p.Command != "my-oracle" || !slices.Equal(p.Args, []string{"--fast"}) {
		t.Errorf("OraclePlugin: got %s %v", p.Command, p.Args)
	}
}

func TestLoadPrecedence(t *testing.T) {
	project := isolate(t)
	home := os.Getenv("HOME")
	writeFile(t, filepath.Join(home, ".todocheck", "todocheck.toml"), "format = \"github\"\nworkers = 2\nlog_level = \"debug\"\n")
	writeFile(t, filepath.Join(project, "todocheck.toml"), "workers = 3\nlog_level = \"warn\"\n")
	t.Setenv("TODOCHECK_LOG_LEVEL", "error")

	cws := load(t, "--workers", "4")
	cfg := cws.Config

	tests := []struct {
		key    string
		got    any
		want   any
		source ConfigSource
	}{
		{"format", cfg.Format, "github", SourceUserFile},
		{"log_level", cfg.LogLevel, "error", SourceEnv},
		{"workers", cfg.Workers, 4, SourceFlag},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("value: got %v, want %v", tt.got, tt.want)
			}
			if cws.Sources[tt.key] != tt.source {
				t.Errorf("source: got %s, want %s", cws.Sources[tt.key], tt.source)
			}
		})
	}
	if len(cfg.ConfigFiles) != 2 {
		t.Errorf("ConfigFiles: got %v, want user and project files", cfg.ConfigFiles)
	}
}

func TestExplicitConfigFlag(t *testing.T) {
	project := isolate(t)
	writeFile(t, filepath.Join(project, "todocheck.toml"), "format = \"json\"\n")
	other := filepath.Join(t.TempDir(), "ci.toml")
	writeFile(t, other, "format = \"github\"\n")

	cfg := load(t, "--config", other).Config
	if cfg.Format != FormatGitHub {
		t.Errorf("Format: got %q, want github", cfg.Format)
	}
	if cfg.ProjectRoot != filepath.Dir(other) {
		t.Errorf("ProjectRoot: got %q, want %q", cfg.ProjectRoot, filepath.Dir(other))
	}

	_, err := LoadWithSources(pflag.NewFlagSet("test", pflag.ContinueOnError), []string{"--config", filepath.Join(project, "missing.toml")})
	if !errors.Is(err, checker.ErrConfig) {
		t.Errorf("missing --config file: expected config error, got %v", err)
	}
}

func TestParseFlags(t *testing.T) {
	isolate(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	watch := fs.Bool("watch", false, "")

	cws, err := LoadWithSources(fs, []string{
		"--jira-project-ids", "ABC,DEF",
		"--allowed-todo-synonyms", "TODO,LATER",
		"-f", "json",
		"-j", "8",
		"--disallow-all-jira-resolutions=false",
		"--watch",
		"src", "lib",
	})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	if !slices.Equal(cfg.JiraProjectIDs, []string{"ABC", "DEF"}) {
		t.Errorf("JiraProjectIDs: got %v", cfg.JiraProjectIDs)
	}
	if !slices.Equal(cfg.AllowedTodoSynonyms, []string{"TODO", "LATER"}) {
		t.Errorf("AllowedTodoSynonyms: got %v", cfg.AllowedTodoSynonyms)
	}
	if cfg.Format != FormatJSON || cfg.Workers != 8 {
		t.Errorf("Format/Workers: got %q/%d", cfg.Format, cfg.Workers)
	}
	if cfg.DisallowAllJiraResolutions {
		t.Error("DisallowAllJiraResolutions: got true, want false")
	}
	if !*watch {
		t.Error("caller-defined flag was not parsed")
	}
	if !slices.Equal(fs.Args(), []string{"src", "lib"}) {
		t.Errorf("Args: got %v", fs.Args())
	}
	if cws.Sources["format"] != SourceFlag {
		t.Errorf("source of format: got %s", cws.Sources["format"])
	}
	if cws.Sources["output"] != SourceDefault {
		t.Errorf("source of output: got %s", cws.Sources["output"])
	}
}

func TestSchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"unknown key", "colour = \"red\"\n", "config"},
		{"wrong type", "max_batch_size = \"ten\"\n", "max_batch_size"},
		{"batch too large", "max_batch_size = 101\n", "max_batch_size"},
		{"bad format", "format = \"xml\"\n", "format"},
		{"nested unknown key", "[jira]\nurl = \"https://x\"\n", "jira"},
		{"bad server", "[jira]\nserver = \"jira.example.com\"\n", "jira.server"},
		{"bad marker", "allowed_todo_synonyms = [\"TO DO\"]\n", "allowed_todo_synonyms[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := isolate(t)
			writeFile(t, filepath.Join(project, "todocheck.toml"), tt.content)

			_, err := LoadWithSources(pflag.NewFlagSet("test", pflag.ContinueOnError), nil)
			if !errors.Is(err, checker.ErrConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
			var ce *checker.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *checker.ConfigError, got %T", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field: got %q, want %q (%v)", ce.Field, tt.field, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"no allowed markers", func(c *Config) { c.AllowedTodoSynonyms = nil }, "allowed_todo_synonyms"},
		{"resolutions with disallow all", func(c *Config) { c.DisallowedJiraResolutions = []string{"Fixed"} }, "disallowed_jira_resolutions"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "format"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"jira without auth", func(c *Config) { c.Jira.Server = "https://jira.example.com" }, "jira"},
		{"jira and oracle", func(c *Config) {
			c.Jira.Server = "https://jira.example.com"
			c.Jira.Token = "t"
			c.Oracle.Command = "oracle"
		}, "oracle.command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.modify(cfg)

			err := cfg.Validate()
			if !errors.Is(err, checker.ErrConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
			var ce *checker.ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("Field: got %v, want %q", err, tt.field)
			}
		})
	}
}

func TestCheckerOptions(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.JiraProjectIDs = []string{"ABC"}

	opts := cfg.CheckerOptions()
	if !slices.Equal(opts.Vocabulary.Allowed, []string{"TODO"}) {
		t.Errorf("Vocabulary.Allowed: got %v", opts.Vocabulary.Allowed)
	}
	if !slices.Equal(opts.ProjectIDs, []string{"ABC"}) {
		t.Errorf("ProjectIDs: got %v", opts.ProjectIDs)
	}
	if !opts.DisallowAllResolutions || opts.MaxBatchSize != 100 {
		t.Errorf("policy: got %+v", opts)
	}
	if _, err := checker.New(opts, nil); err != nil {
		t.Errorf("checker.New: %v", err)
	}
}

func TestSettingsMasksSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("TODOCHECK_JIRA_SERVER", "https://jira.example.com")
	t.Setenv("TODOCHECK_JIRA_HTTP_BASIC_USERNAME", "me")
	t.Setenv("TODOCHECK_JIRA_HTTP_BASIC_PASSWORD", "hunter2")

	for _, s := range load(t).Settings() {
		switch s.Key {
		case "jira.http_basic_password":
			if s.Value != "********" {
				t.Errorf("password not masked: %q", s.Value)
			}
		case "jira.http_basic_username":
			if s.Value != "me" || s.Source != SourceEnv {
				t.Errorf("username: got %q from %s", s.Value, s.Source)
			}
		}
	}
}

func TestExampleConfigIsValid(t *testing.T) {
	var doc map[string]any
	if _, err := toml.Decode(ExampleConfig(), &doc); err != nil {
		t.Fatalf("decode example: %v", err)
	}
	if err := validateDocument(doc); err != nil {
		t.Errorf("example config does not match schema: %v", err)
	}
}

func TestSettingNames(t *testing.T) {
	s, ok := settingByKey("jira.http_basic_username")
	if !ok {
		t.Fatal("setting not found")
	}
	if got := s.flagName(); got != "jira-http-basic-username" {
		t.Errorf("flagName: got %q", got)
	}
	if got := s.envName(); got != "TODOCHECK_JIRA_HTTP_BASIC_USERNAME" {
		t.Errorf("envName: got %q", got)
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"#":                     "",
		"/format":               "format",
		"/jira/timeout_seconds": "jira.timeout_seconds",
		"/exclude/0":            "exclude[0]",
		"/a~1b":                 "a/b",
	}
	for in, want := range tests {
		if got := jsonPointerToPath(in); got != want {
			t.Errorf("jsonPointerToPath(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}
	if runtime.GOOS != "windows" {
		tests = append(tests, struct {
			input string
			want  string
		}{`~\test`, `~\test`})
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.want {
				t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := boolFromString(tt.input); got != tt.want {
				t.Errorf("boolFromString(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestOracleConfigTable(t *testing.T) {
	project := isolate(t)
	writeFile(t, filepath.Join(project, "todocheck.toml"), `[oracle]
command = "tracker-oracle"

[oracle.config]
base_url = "https://tracker.example.com"
api_token = "abc123"
`)

	cws := load(t)
	p := cws.Config.OraclePlugin()
	if p == nil {
		t.Fatal("OraclePlugin: got nil")
	}
	want := map[string]any{"base_url": "https://tracker.example.com", "api_token": "abc123"}
	if len(p.Config) != len(want) {
		t.Fatalf("Plugin.Config: got %v, want %v", p.Config, want)
	}
	for k, v := range want {
		if p.Config[k] != v {
			t.Errorf("Plugin.Config[%q]: got %v, want %v", k, p.Config[k], v)
		}
	}
	if cws.Sources["oracle.config"] != SourceProjFile {
		t.Errorf("source of oracle.config: got %s, want project file", cws.Sources["oracle.config"])
	}
	for _, s := range cws.Settings() {
		if s.Key == "oracle.config" && s.Value != "********" {
			t.Errorf("oracle.config not masked: %q", s.Value)
		}
	}
}

func TestOracleConfigFromEnvAndFlags(t *testing.T) {
	isolate(t)
	t.Setenv("TODOCHECK_ORACLE_CONFIG", "base_url=https://env.example.com, team=core")

	cfg := load(t, "--oracle-command", "tracker-oracle").Config
	if got := cfg.Oracle.Config["team"]; got != "core" {
		t.Errorf("env: team = %q", got)
	}

	cfg = load(t, "--oracle-command", "tracker-oracle", "--oracle-config", "base_url=https://flag.example.com").Config
	if got := cfg.OraclePlugin().Config["base_url"]; got != "https://flag.example.com" {
		t.Errorf("flag: base_url = %v", got)
	}

	t.Setenv("TODOCHECK_ORACLE_CONFIG", "no-equals-sign")
	_, err := LoadWithSources(pflag.NewFlagSet("test", pflag.ContinueOnError), nil)
	if !errors.Is(err, checker.ErrConfig) {
		t.Errorf("malformed pair: expected config error, got %v", err)
	}
}

func TestPathResolution(t *testing.T) {
	isolate(t)
	other := filepath.Join(t.TempDir(), "ci")
	writeFile(t, filepath.Join(other, "ci.toml"), "output = \"reports/from-file.json\"\n")

	cfg := load(t, "--config", filepath.Join(other, "ci.toml")).Config
	if want := filepath.Join(other, "reports", "from-file.json"); cfg.Output != want {
		t.Errorf("output from config file: got %q, want %q", cfg.Output, want)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	cfg = load(t, "--config", filepath.Join(other, "ci.toml"), "-o", "report.json").Config
	if want := filepath.Join(wd, "report.json"); cfg.Output != want {
		t.Errorf("output from flag: got %q, want %q", cfg.Output, want)
	}

	t.Setenv("TODOCHECK_JIRA_KERBEROS_CONFIG", "krb5.conf")
	cfg = load(t, "--config", filepath.Join(other, "ci.toml")).Config
	if want := filepath.Join(wd, "krb5.conf"); cfg.Jira.KerberosConfig != want {
		t.Errorf("kerberos_config from env: got %q, want %q", cfg.Jira.KerberosConfig, want)
	}
}
