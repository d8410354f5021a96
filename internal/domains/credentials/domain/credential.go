package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Storage keys for the two credential values.
const (
	KeyAPIKey    = "FIC_API_KEY"
	KeyCompanyID = "FIC_COMPANY_ID"
)

// MinAPIKeyLength is the shortest API key the accounting service issues.
const MinAPIKeyLength = 30

var (
	ErrMissingAPIKey    = errors.New("api key is not configured")
	ErrInvalidAPIKey    = errors.New("api key format is invalid")
	ErrMissingCompanyID = errors.New("company id is not configured")
	ErrInvalidCompanyID = errors.New("company id must be a positive integer")
)

var (
	apiKeyPattern  = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	unsafeReplacer = strings.NewReplacer("<", "", ">", "", "'", "", `"`, "", ";", "")
)

// Credential is the decrypted pair used to authenticate against the accounting service.
type Credential struct {
	APIKey    string
	CompanyID int64
}

// Masked returns the credential's key in loggable form.
func (c Credential) Masked() string {
	return MaskAPIKey(c.APIKey)
}

// ValidateAPIKey checks length and character set.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingAPIKey
	}
	if len(key) < MinAPIKeyLength || !apiKeyPattern.MatchString(key) {
		return ErrInvalidAPIKey
	}
	return nil
}

// ParseCompanyID validates and parses a textual company id.
func ParseCompanyID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMissingCompanyID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCompanyID, raw)
	}
	return id, nil
}

// SanitizeInput strips markup and quoting characters and trims whitespace.
func SanitizeInput(value string) string {
	return strings.TrimSpace(unsafeReplacer.Replace(value))
}

// MaskAPIKey keeps the first and last four characters.
func MaskAPIKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
