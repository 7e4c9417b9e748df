package taskapi

import (
	"fmt"
	"strings"
)

// TransportError reports an HTTP exchange that could not be completed or that
// returned a non-success status. Status code and body text are preserved for
// diagnostics. Transport failures are never retried by this package.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("taskapi: %s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("taskapi: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("taskapi: %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderRejectedError reports an exchange that reached the provider but was
// refused by its application envelope. This is a caller error, not retried.
type ProviderRejectedError struct {
	Op      string
	Code    int
	Message string
}

func (e *ProviderRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("taskapi: %s: provider rejected request (code %d)", e.Op, e.Code)
	}
	return fmt.Sprintf("taskapi: %s: provider rejected request: %s (code %d)", e.Op, e.Message, e.Code)
}

// RedactCredential returns a form of the API key safe for logs and error
// payloads. The full key must never appear on any error path.
func RedactCredential(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-2:]
}
