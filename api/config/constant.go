package config

import (
	"fmt"
	"strings"
)

const (
	// ProdHostID is the host fragment of the production API
	ProdHostID = "api.fintrack.id"

	// DefaultAdminSecret is sent on /admin paths when neither the session nor the environment provides one
	DefaultAdminSecret = "fintrack-admin-local"
)

// CheckNotProdAPI returns an error if the given base URL points at production.
// This should be called at the start of any test that talks to a remote API.
func CheckNotProdAPI(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL is not configured")
	}
	if strings.Contains(strings.ToLower(baseURL), ProdHostID) {
		return fmt.Errorf("tests aborted: base URL contains production identifier %s", ProdHostID)
	}
	return nil
}
