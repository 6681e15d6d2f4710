package logging

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[redacted]"

var (
	urlCredentialPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)([^:/@\s]+):([^@\s]+)@`)
	secretKeyPattern     = regexp.MustCompile(`(?i)\b(` + strings.Join(quoteAll(secretKeys()), "|") + `)\b(\s*=\s*)(["']?)([^"'\s]+)(["']?)`)
	secretFlagPattern    = regexp.MustCompile(`(?i)(--(?:` + strings.Join(quoteAll(secretFlags()), "|") + `))(=|\s+)(["']?)([^"'\s]+)(["']?)`)
)

func secretKeys() []string {
	return []string{
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"AWS_SESSION_TOKEN",
		"AZURE_CLIENT_SECRET",
		"GITHUB_TOKEN",
		"NUGET_API_KEY",
		"API_KEY",
		"ACCESS_TOKEN",
		"CLIENT_SECRET",
	}
}

func secretFlags() []string {
	return []string{"password", "token", "api-key", "secret"}
}

func quoteAll(values []string) []string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = regexp.QuoteMeta(v)
	}
	return escaped
}

// RedactSecrets masks credentials embedded in URLs, values assigned to
// well-known secret variables and arguments of secret-bearing flags, so
// command lines can be echoed to the debug channel.
func RedactSecrets(cmdLine string) string {
	if cmdLine == "" {
		return cmdLine
	}
	redacted := urlCredentialPattern.ReplaceAllString(cmdLine, "${1}${2}:"+redactedPlaceholder+"@")
	redacted = secretKeyPattern.ReplaceAllString(redacted, "${1}${2}${3}"+redactedPlaceholder+"${5}")
	return secretFlagPattern.ReplaceAllString(redacted, "${1}${2}${3}"+redactedPlaceholder+"${5}")
}
