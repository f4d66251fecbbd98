package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todocheck configuration file
# Values can be overridden by TODOCHECK_* environment variables or CLI flags.

# Words accepted as TODO markers. Matching is case-insensitive.
allowed_todo_synonyms = ["TODO"]

# Words recognized as markers but always reported (JIR004).
disallowed_todo_synonyms = ["FIXME", "QQ"]

# Jira projects a TODO may reference. With none, every TODO is reported (JIR001).
jira_project_ids = ["ABC"]

# Tickets in these states are reported (JIR003).
disallowed_jira_statuses = ["Done"]

# Report tickets with any resolution. Set to false to list resolutions instead.
disallow_all_jira_resolutions = true
# disallowed_jira_resolutions = ["Fixed", "Won't Do"]

# Distinct tickets per oracle query (1-100)
max_batch_size = 100

# Files to check (glob on base name or slash path); all text files when empty
# include = ["*.go", "*.py"]
exclude = [".git", "vendor", "node_modules"]

# Files checked in parallel (0 = number of CPUs)
workers = 0

# Report format: text, json or github
format = "text"
# output = "todocheck-report.json"

log_level = "info"
log_format = "text"

# Jira server. Configure exactly one authentication mode.
[jira]
# server = "https://jira.example.com"
# http_basic_username = "me"
# http_basic_password = "secret"
# token = "personal-access-token"
# cookie_username = "me"
# cookie_password = "secret"
# oauth_access_token = ""
# oauth_access_token_secret = ""
# oauth_consumer_key = ""
# oauth_key_cert_file = "~/.todocheck/jira.pem"
# kerberos = true
timeout_seconds = 30

# External ticket oracle speaking JSON-RPC 2.0 on stdin/stdout.
# Cannot be combined with jira.server.
[oracle]
# command = "my-ticket-oracle"
# args = ["--project", "ABC"]
timeout_seconds = 120

# Passed to the oracle as TODOCHECK_PLUGIN_<KEY> environment variables.
# [oracle.config]
# base_url = "https://tracker.example.com"
# api_token = ""
`
}
