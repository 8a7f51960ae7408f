package main

import (
	"fmt"
	"strings"

	"cortex/internal/config"
)

// commandContext lazily loads configuration and resolves the daemon address
// once per invocation, shared across subcommands.
type commandContext struct {
	configFlag  *string
	addressFlag *string

	cfg *config.Config
}

func newCommandContext(configFlag, addressFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, addressFlag: addressFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

// apiAddress resolves the daemon address: the --address flag wins, otherwise
// the configured API bind.
func (c *commandContext) apiAddress() (string, error) {
	if c.addressFlag != nil {
		if addr := strings.TrimSpace(*c.addressFlag); addr != "" {
			return addr, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.API.Bind, nil
}
