package doctor

import (
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/frampt/internal/config"
	"github.com/rileyhilliard/frampt/internal/errors"
)

// ConfigFileCheck verifies that a config file exists.
type ConfigFileCheck struct {
	Path string // Path found by config.Find; empty if none
	Err  error  // Error returned by config.Find
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run() CheckResult {
	switch {
	case c.Err != nil:
		return CheckResult{
			Status:     StatusFail,
			Message:    errors.MessageOf(c.Err),
			Suggestion: "Check the --config path",
		}
	case c.Path == "":
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No config file found; only raw addresses and ssh config aliases work",
			Suggestion: "Run 'frampt init' to create " + config.ConfigFileName,
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: "Config file: " + c.Path,
	}
}

func (c *ConfigFileCheck) Fix() error { return nil }

// ConfigValidCheck loads and validates the config file.
type ConfigValidCheck struct {
	Path string

	cfg *config.Config
}

func (c *ConfigValidCheck) Name() string     { return "config_valid" }
func (c *ConfigValidCheck) Category() string { return CategoryConfig }

func (c *ConfigValidCheck) Run() CheckResult {
	if c.Path == "" {
		return CheckResult{Status: StatusPass, Message: "Using built-in defaults"}
	}

	cfg, err := config.Load(c.Path)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    errors.MessageOf(err),
			Suggestion: "Check the YAML syntax in " + c.Path,
		}
	}
	if err := config.Validate(cfg); err != nil {
		result := CheckResult{Status: StatusFail, Message: errors.MessageOf(err)}
		var fe *errors.Error
		if stderrors.As(err, &fe) {
			result.Suggestion = fe.Suggestion
		}
		return result
	}

	c.cfg = cfg
	n := len(cfg.Hosts)
	msg := fmt.Sprintf("%d host%s configured", n, pluralize(n))
	if cfg.Default != "" {
		msg += ", default " + cfg.Default
	}
	return CheckResult{Status: StatusPass, Message: msg}
}

func (c *ConfigValidCheck) Fix() error { return nil }

// Config returns the config loaded by Run, or nil if it failed.
func (c *ConfigValidCheck) Config() *config.Config {
	return c.cfg
}
