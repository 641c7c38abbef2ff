package sandbox

import (
	"encoding/base64"
	"strings"
)

// quote single-quotes s for POSIX sh. Content payloads never pass
// through here (they travel base64); this is for paths and patterns,
// which are interpolated as shell tokens and must be escaped even so.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// b64 encodes untrusted content for safe embedding in command text.
// The base64 alphabet contains nothing sh cares about, but the result
// is still quoted for uniformity.
func b64(data []byte) string {
	return quote(base64.StdEncoding.EncodeToString(data))
}
