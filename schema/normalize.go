package schema

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidateCreate checks a create request before any gateway call.
func ValidateCreate(req CreateAppRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrNameRequired()
	}
	if strings.TrimSpace(req.Scenario) == "" {
		return ErrScenarioRequired()
	}
	return nil
}

// ValidateID checks that an application id is present.
func ValidateID(id AppID) error {
	if strings.TrimSpace(string(id)) == "" {
		return ErrIDRequired()
	}
	return nil
}

// EncodeScenario encodes scenario text as base64 of its UTF-8 bytes.
func EncodeScenario(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// DecodeScenario reverses EncodeScenario.
func DecodeScenario(payload string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not utf-8", ErrInvalidScenario)
	}
	return string(data), nil
}

// CloneName derives the name of a clone from its source and the current time.
// The timestamp is UTC without zero padding and with a zero-based month, the
// format the gobench UI has always produced.
func CloneName(source string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s-%d-%d-%d-%d-%d-%d",
		source,
		now.Year(),
		int(now.Month())-1,
		now.Day(),
		now.Hour(),
		now.Minute(),
		now.Second(),
	)
}
