package cmd

import (
	"testing"
)

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	SetVersion("1.2.3-test")
	if rootCmd.Version != "1.2.3-test" {
		t.Errorf("Expected version to be 1.2.3-test, got %s", rootCmd.Version)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "leadwatch" {
		t.Errorf("Expected Use to be 'leadwatch', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestSubcommands(t *testing.T) {
	expectedCommands := []string{"version", "self-update", "tools", "call", "monitor", "limits"}

	foundCommands := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}
