package voice

import (
	"fmt"
	"strings"
)

// benignErrors lists session errors that are part of a normal hang-up.
// The provider reports a peer-initiated meeting ejection as an error.
var benignErrors = []string{
	"meeting has ended",
	"meeting ended due to ejection",
	"ejected from meeting",
}

// IsBenign reports whether err matches the allow-list of expected hang-up errors.
func IsBenign(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range benignErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// APIError is a non-2xx response from the voice service.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voice %s failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}
