package certs

import (
	"testing"
	"time"
)

func TestGenerateDefaults(t *testing.T) {
	t.Parallel()

	ci, err := Generate(0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ci.TLSCert.Certificate) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(ci.TLSCert.Certificate))
	}
	if ci.FingerprintBase64() == "" {
		t.Fatal("expected non-empty fingerprint")
	}
	if !ci.NotAfter.After(time.Now()) {
		t.Fatal("expected NotAfter in the future")
	}
}

func TestGenerateCustomValidity(t *testing.T) {
	t.Parallel()

	ci, err := Generate(24 * time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	remaining := time.Until(ci.NotAfter)
	if remaining <= 0 || remaining > 24*time.Hour+time.Minute {
		t.Fatalf("NotAfter not within expected validity window: %v", remaining)
	}
}
