package main

import (
	"bytes"
	"strings"
	"testing"

	"mercator-hq/stormwatch/pkg/policy/engine"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "evaluate", "watch", "evidence", "validate", "certs", "version", "completion"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("command %q not registered", name)
		}
	}

	for _, sub := range []string{"query", "export", "prune"} {
		cmd, _, err := rootCmd.Find([]string{"evidence", sub})
		if err != nil || cmd.Name() != sub {
			t.Errorf("evidence %s not registered", sub)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	orig := Version
	Version = "0.1.0-test"
	defer func() { Version = orig }()

	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Stormwatch 0.1.0-test", "Engine Version: " + engine.Version, "Go Version:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	info := buildInfo()
	if info.Version != "0.1.0-test" || info.EngineVersion != engine.Version {
		t.Errorf("buildInfo() = %+v", info)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "completion", shell)
			if err != nil {
				t.Fatalf("completion %s error = %v", shell, err)
			}
			if !strings.Contains(out, "stormwatch") {
				t.Errorf("completion %s output does not mention stormwatch", shell)
			}
		})
	}

	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestRunDryRun(t *testing.T) {
	defer func() { runFlags.dryRun = false }()

	out, err := execute(t, "run", "--dry-run")
	if err != nil {
		t.Fatalf("run --dry-run error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ Configuration valid") {
		t.Errorf("output = %q", out)
	}
}
