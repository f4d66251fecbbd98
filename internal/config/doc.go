// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.todocheck/todocheck.toml or OS-specific config directory)
// 3. Project config file (todocheck.toml, .todocheck.toml or .todocheck.yaml)
// 4. Environment variables (TODOCHECK_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
// An explicit --config file replaces the project file lookup.
//
// User-level config locations:
// - ~/.todocheck/todocheck.toml (preferred)
// - Windows: %APPDATA%\todocheck\todocheck.toml
// - macOS: ~/Library/Application Support/todocheck/todocheck.toml
// - Linux/BSD: $XDG_CONFIG_HOME/todocheck/todocheck.toml or ~/.config/todocheck/todocheck.toml
//
// Every config file is checked against an embedded JSON Schema before it is
// decoded, so unknown keys and wrong types are reported with their path.
//
// List values are comma separated in the environment and on the command
// line, e.g. TODOCHECK_JIRA_PROJECT_IDS=ABC,DEF or --jira-project-ids ABC,DEF.
package config
