package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wuya51/gmic-buildathon/pkg/models"
)

const (
	maxTextBytes  = 280
	maxMediaBytes = 500
	maxIDBytes    = 256
)

var errMissingField = errors.New("missing required field")

// validateContent checks the shape of a greeting payload. It does no
// moderation.
func validateContent(c models.Content) error {
	if !c.Kind.Valid() {
		return fmt.Errorf("unknown content kind %q", c.Kind)
	}
	switch c.Kind {
	case models.KindText:
		if strings.TrimSpace(c.Payload) == "" {
			return errors.New("text payload is empty")
		}
		if len(c.Payload) > maxTextBytes {
			return fmt.Errorf("text payload exceeds %d bytes", maxTextBytes)
		}
	default:
		if len(c.Payload) > maxMediaBytes {
			return fmt.Errorf("%s payload exceeds %d bytes", c.Kind, maxMediaBytes)
		}
		u, err := url.Parse(c.Payload)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s payload must be an http(s) URL", c.Kind)
		}
	}
	return nil
}

// validateID rejects empty or oversized identity and chain tokens.
func validateID(field, v string) error {
	if v == "" {
		return fmt.Errorf("%w: %s", errMissingField, field)
	}
	if len(v) > maxIDBytes {
		return fmt.Errorf("%s exceeds %d bytes", field, maxIDBytes)
	}
	return nil
}
