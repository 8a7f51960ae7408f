package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Component dependency checks
// live here: a dependent component enabled while its requirement is disabled
// is a startup failure, not a runtime surprise.
func (c *Config) Validate() error {
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateAgent(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateGit(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if strings.TrimSpace(c.Daemon.StateDir) == "" {
		return errors.New("daemon.state_dir must be set")
	}
	return nil
}

func (c *Config) validateAgent() error {
	if !c.Agent.Enabled {
		return nil
	}
	if !c.Models.Enabled {
		return errors.New("agent.enabled requires models.enabled: the reasoning loop depends on the model cache")
	}
	seen := make(map[string]struct{}, len(c.Agent.Behaviors))
	for _, behavior := range c.Agent.Behaviors {
		if _, dup := seen[behavior.Name]; dup {
			return fmt.Errorf("agent.behaviors: duplicate behavior name %q", behavior.Name)
		}
		seen[behavior.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	seen := make(map[string]struct{}, len(c.Scheduler.Jobs))
	for _, job := range c.Scheduler.Jobs {
		if _, dup := seen[job.Name]; dup {
			return fmt.Errorf("scheduler.jobs: duplicate job name %q", job.Name)
		}
		seen[job.Name] = struct{}{}
		if job.Enabled && job.ActionKind == "" {
			return fmt.Errorf("scheduler.jobs: job %q has no action_kind", job.Name)
		}
	}
	return nil
}

func (c *Config) validateGit() error {
	if !c.Git.Enabled {
		return nil
	}
	if c.Git.RepoRoot == "" {
		return errors.New("git.repo_root must be set when git.enabled is true")
	}
	return nil
}
