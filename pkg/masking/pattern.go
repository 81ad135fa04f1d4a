// Package masking redacts secret-shaped substrings (API keys, passwords,
// tokens, emails) from content that flows into the trace ledger or tool
// results, so that NPC evidence documents or tool outputs an author pasted
// from elsewhere don't leak credentials into an audit surface players or
// other tenants can query (spec.md §4.5 trace ledger, §4.2 tool results).
package masking

import "regexp"

// pattern is one compiled redaction rule.
type pattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// builtinPatterns is the fixed set of redaction rules applied by every
// Sanitizer. Unlike the teacher's per-MCP-server pattern groups, there is
// exactly one sanitization policy here: evidence content and tool results
// aren't configured per tool the way the teacher's per-server data masking
// was, so a single always-on pattern set replaces that indirection.
var builtinPatterns = []pattern{
	{
		name:        "api_key",
		regex:       regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{20,})["']?`),
		replacement: `"api_key": "[MASKED_API_KEY]"`,
	},
	{
		name:        "password",
		regex:       regexp.MustCompile(`(?i)(?:password|pwd|pass)["']?\s*[:=]\s*["']?([^"'\s\n]{6,})["']?`),
		replacement: `"password": "[MASKED_PASSWORD]"`,
	},
	{
		name:        "certificate",
		regex:       regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`),
		replacement: `[MASKED_CERTIFICATE]`,
	},
	{
		name:        "token",
		regex:       regexp.MustCompile(`(?i)(?:token|bearer|jwt)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-.]{20,})["']?`),
		replacement: `"token": "[MASKED_TOKEN]"`,
	},
	{
		name:        "email",
		regex:       regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`),
		replacement: `[MASKED_EMAIL]`,
	},
	{
		name:        "ssh_key",
		regex:       regexp.MustCompile(`ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`),
		replacement: `[MASKED_SSH_KEY]`,
	},
	{
		name:        "private_key",
		regex:       regexp.MustCompile(`(?i)(?:private[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-.]{20,})["']?`),
		replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
	},
	{
		name:        "secret_key",
		regex:       regexp.MustCompile(`(?i)(?:secret[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-.]{20,})["']?`),
		replacement: `"secret_key": "[MASKED_SECRET_KEY]"`,
	},
	{
		name:        "aws_access_key",
		regex:       regexp.MustCompile(`(?i)(?:aws[_-]?access[_-]?key[_-]?id)["']?\s*[:=]\s*["']?(AKIA[A-Z0-9]{16})["']?`),
		replacement: `"aws_access_key_id": "[MASKED_AWS_KEY]"`,
	},
	{
		name:        "aws_secret_key",
		regex:       regexp.MustCompile(`(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
		replacement: `"aws_secret_access_key": "[MASKED_AWS_SECRET]"`,
	},
	{
		name:        "github_token",
		regex:       regexp.MustCompile(`(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`),
		replacement: `[MASKED_GITHUB_TOKEN]`,
	},
	{
		name:        "slack_token",
		regex:       regexp.MustCompile(`(?i)xox[baprs]-[A-Za-z0-9-]{10,72}`),
		replacement: `[MASKED_SLACK_TOKEN]`,
	},
}
