//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "fattureincloud-api"
	ConsumerName = "storelink-fic-sync"

	StateProductsExist = "company 77 has products"
	StateClientExists  = "client mario@example.com exists"
	StateCanIssue      = "company 77 can issue invoices"
	StateKeyRevoked    = "the api key is revoked"
)

const (
	CompanyID  int64 = 77
	ValidKey         = "pact-key-0123456789abcdefghijklmn"
	RevokedKey       = "pact-revoked-0123456789abcdefghij"

	ExistingClientID int64 = 501
	IssuedDocumentID int64 = 901
	ClientEmail            = "mario@example.com"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleProduct is a remote catalog entry as the service returns it.
func ExampleProduct() map[string]any {
	return map[string]any{
		"id":          10,
		"name":        "Widget A",
		"code":        "WA-1",
		"net_price":   10.5,
		"description": "Blue widget",
		"category":    "Widgets",
		"brand":       "Acme",
		"stock":       4,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
