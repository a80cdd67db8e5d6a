package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/stormwatch/pkg/cli"
)

func TestGenerateAndCheckCerts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	var out bytes.Buffer

	if err := generateCerts(&out, dir, []string{"localhost", "127.0.0.1"}, "Stormwatch Test", 10*24*time.Hour); err != nil {
		t.Fatalf("generateCerts() error = %v", err)
	}
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	info, err := os.Stat(keyFile)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key mode = %o, want 600", perm)
	}

	out.Reset()
	if err := checkCert(&out, certFile, keyFile, certFile, time.Now()); err != nil {
		t.Fatalf("checkCert() error = %v\n%s", err, out.String())
	}
	for _, want := range []string{"✓ Certificate and key match", "✓ Certificate chain valid", "⚠ Certificate expires in", "DNS names: localhost", "IP address: 127.0.0.1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	err = checkCert(&out, certFile, "", "", time.Now().Add(30*24*time.Hour))
	if cli.ExitCode(err) != cli.ExitInvalidInput {
		t.Errorf("expired check exit = %d, err = %v", cli.ExitCode(err), err)
	}
}

func TestCheckCert_KeyMismatch(t *testing.T) {
	first := filepath.Join(t.TempDir(), "a")
	second := filepath.Join(t.TempDir(), "b")
	var out bytes.Buffer
	if err := generateCerts(&out, first, []string{"a.local"}, "", 24*time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := generateCerts(&out, second, []string{"b.local"}, "", 24*time.Hour); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	err := checkCert(&out, filepath.Join(first, "server.crt"), filepath.Join(second, "server.key"), "", time.Now())
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if !strings.Contains(out.String(), "do not match") {
		t.Errorf("output = %q", out.String())
	}
}

func TestGenerateCerts_InvalidValidity(t *testing.T) {
	if err := generateCerts(&bytes.Buffer{}, t.TempDir(), []string{"localhost"}, "", 0); err == nil {
		t.Error("expected error for zero validity")
	}
}
