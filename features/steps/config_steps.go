//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reel-audio/cmd"
	"reel-audio/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	output     *bytes.Buffer
	err        error
}

var sharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		sharedConfigContext = &configContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config.yaml"),
			output:     &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if sharedConfigContext.tempDir != "" {
			os.RemoveAll(sharedConfigContext.tempDir)
		}
		sharedConfigContext = &configContext{}
		return c, nil
	})

	ctx.Step(`^a config file containing:$`, aConfigFileContaining)
	ctx.Step(`^no config file exists$`, noConfigFileExists)
	ctx.Step(`^I get the config value "([^"]*)"$`, iGetTheConfigValue)
	ctx.Step(`^I set the config value "([^"]*)" to "([^"]*)"$`, iSetTheConfigValueTo)
	ctx.Step(`^I list the config keys$`, iListTheConfigKeys)
	ctx.Step(`^the config output should be "([^"]*)"$`, theConfigOutputShouldBe)
	ctx.Step(`^the config output should contain "([^"]*)"$`, theConfigOutputShouldContain)
	ctx.Step(`^the config command should fail with "([^"]*)"$`, theConfigCommandShouldFailWith)
	ctx.Step(`^the config file should have "([^"]*)" set to "([^"]*)"$`, theConfigFileShouldHaveSetTo)
}

func aConfigFileContaining(content *godog.DocString) error {
	c := sharedConfigContext
	if err := os.WriteFile(c.configPath, []byte(content.Content), 0644); err != nil {
		return err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func noConfigFileExists() error {
	c := sharedConfigContext
	if err := os.Remove(c.configPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func iGetTheConfigValue(key string) error {
	c := sharedConfigContext
	c.err = cmd.RunConfigGetWithDependencies(c.cfg, c.configPath, key, c.output)
	return nil
}

func iSetTheConfigValueTo(key, value string) error {
	c := sharedConfigContext
	c.err = cmd.RunConfigSetWithDependencies(c.cfg, c.configPath, key, value, c.output)
	return nil
}

func iListTheConfigKeys() error {
	c := sharedConfigContext
	c.err = cmd.RunConfigKeysWithDependencies(c.cfg, c.configPath, c.output)
	return nil
}

func theConfigOutputShouldBe(want string) error {
	c := sharedConfigContext
	if c.err != nil {
		return fmt.Errorf("unexpected error: %v", c.err)
	}
	if got := strings.TrimSpace(c.output.String()); got != want {
		return fmt.Errorf("expected output %q, got %q", want, got)
	}
	return nil
}

func theConfigOutputShouldContain(want string) error {
	c := sharedConfigContext
	if c.err != nil {
		return fmt.Errorf("unexpected error: %v", c.err)
	}
	if !strings.Contains(c.output.String(), want) {
		return fmt.Errorf("expected output to contain %q, got %q", want, c.output.String())
	}
	return nil
}

func theConfigCommandShouldFailWith(message string) error {
	c := sharedConfigContext
	if c.err == nil {
		return fmt.Errorf("expected error containing %q, got none", message)
	}
	if !strings.Contains(c.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, c.err.Error())
	}
	return nil
}

func theConfigFileShouldHaveSetTo(key, want string) error {
	c := sharedConfigContext
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	got, err := config.NewConfigManager(cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s = %q in file, got %q", key, want, got)
	}
	return nil
}
