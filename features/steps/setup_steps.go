//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"reel-audio/cmd"
	"reel-audio/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	configPath      string
	originalContent string
	output          *bytes.Buffer
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements cmd.Prompter by answering prompts by their message
type MockPrompter struct {
	inputs   map[string]string
	confirms map[string]bool
	selects  map[string]string
}

func NewMockPrompter() *MockPrompter {
	return &MockPrompter{
		inputs:   make(map[string]string),
		confirms: make(map[string]bool),
		selects:  make(map[string]string),
	}
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if v, ok := m.inputs[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if v, ok := m.confirms[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	if v, ok := m.selects[message]; ok {
		for _, o := range options {
			if o == v {
				return v, nil
			}
		}
		return "", fmt.Errorf("%q is not an option for %q", v, message)
	}
	return defaultValue, nil
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		SharedSetupContext = &setupContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config", "config.yaml"),
			output:     &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedSetupContext.tempDir != "" {
			os.RemoveAll(SharedSetupContext.tempDir)
		}
		SharedSetupContext = &setupContext{}
		return c, nil
	})

	ctx.Step(`^a config file already exists for setup$`, aConfigFileAlreadyExistsForSetup)
	ctx.Step(`^I run the setup command with answers:$`, iRunTheSetupCommandWithAnswers)
	ctx.Step(`^a config file should exist$`, aConfigFileShouldExist)
	ctx.Step(`^the saved config should have "([^"]*)" set to "([^"]*)"$`, theSavedConfigShouldHaveSetTo)
	ctx.Step(`^the setup should be cancelled$`, theSetupShouldBeCancelled)
	ctx.Step(`^the setup should fail with "([^"]*)"$`, theSetupShouldFailWith)
	ctx.Step(`^the existing config should be unchanged$`, theExistingConfigShouldBeUnchanged)
}

func aConfigFileAlreadyExistsForSetup() error {
	s := SharedSetupContext
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}

	content := `paths:
  downloads_directory: "/original/downloads"
audio:
  format: mp3
  bitrate: "128k"
`
	s.originalContent = content
	return os.WriteFile(s.configPath, []byte(content), 0644)
}

// iRunTheSetupCommandWithAnswers takes a table of kind | prompt | answer rows
func iRunTheSetupCommandWithAnswers(table *godog.Table) error {
	s := SharedSetupContext
	prompter := NewMockPrompter()

	for _, row := range table.Rows[1:] {
		kind, message, answer := row.Cells[0].Value, row.Cells[1].Value, row.Cells[2].Value
		switch kind {
		case "input":
			prompter.inputs[message] = answer
		case "confirm":
			prompter.confirms[message] = answer == "yes"
		case "select":
			prompter.selects[message] = answer
		default:
			return fmt.Errorf("unknown prompt kind %q", kind)
		}
	}

	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, s.output)
	return nil
}

func aConfigFileShouldExist() error {
	s := SharedSetupContext
	if s.err != nil {
		return fmt.Errorf("setup failed: %v", s.err)
	}
	if _, err := os.Stat(s.configPath); err != nil {
		return fmt.Errorf("config file not created: %w", err)
	}
	return nil
}

func theSavedConfigShouldHaveSetTo(key, want string) error {
	s := SharedSetupContext
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	got, err := config.NewConfigManager(cfg, s.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s = %q, got %q", key, want, got)
	}
	return nil
}

func theSetupShouldBeCancelled() error {
	s := SharedSetupContext
	if s.err != nil {
		return fmt.Errorf("unexpected error: %v", s.err)
	}
	if !bytes.Contains(s.output.Bytes(), []byte("Setup cancelled.")) {
		return fmt.Errorf("expected cancellation message, got %q", s.output.String())
	}
	return nil
}

func theSetupShouldFailWith(message string) error {
	s := SharedSetupContext
	if s.err == nil || !bytes.Contains([]byte(s.err.Error()), []byte(message)) {
		return fmt.Errorf("expected error containing %q, got %v", message, s.err)
	}
	return nil
}

func theExistingConfigShouldBeUnchanged() error {
	s := SharedSetupContext
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	if string(data) != s.originalContent {
		return fmt.Errorf("config file was modified")
	}
	return nil
}
