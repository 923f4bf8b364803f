package validation

import (
	"net/url"
	"strings"

	apperrors "go-restaurant-grid/internal/errors"
)

// ReferenceKind tells how an image reference must be loaded.
type ReferenceKind int

const (
	ReferenceLocal ReferenceKind = iota
	ReferenceRemote
)

func (k ReferenceKind) String() string {
	if k == ReferenceRemote {
		return "remote"
	}
	return "local"
}

// Classify decides between a network URL and a filesystem path by a
// case-insensitive "http" prefix check.
func Classify(ref string) ReferenceKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(ref)), "http") {
		return ReferenceRemote
	}
	return ReferenceLocal
}

// ReferenceValidator checks image references before they are loaded.
type ReferenceValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewReferenceValidator allows http and https URLs on any host.
func NewReferenceValidator() *ReferenceValidator {
	return &ReferenceValidator{
		allowedSchemes: []string{"http", "https"},
	}
}

// NewReferenceValidatorWithOptions restricts remote references to the given
// schemes and, when hosts is non-empty, to those hosts.
func NewReferenceValidatorWithOptions(schemes []string, hosts []string) *ReferenceValidator {
	return &ReferenceValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// Validate accepts any non-blank local path and any remote URL with an
// allowed scheme and host.
func (v *ReferenceValidator) Validate(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return apperrors.NewValidationError("image reference cannot be empty", nil)
	}
	if Classify(ref) == ReferenceLocal {
		return nil
	}

	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return apperrors.NewValidationError("invalid URL format", err)
	}
	if !contains(v.allowedSchemes, strings.ToLower(parsed.Scheme)) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}
	if parsed.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if len(v.allowedHosts) > 0 && !contains(v.allowedHosts, parsed.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
