// Package registry loads the declarative hook configuration and matches
// events against it. Loading fails closed: a malformed registry disables
// hook execution for the whole run rather than executing a partial one.
package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskhook-project/taskhook/pkg/errclass"
	"github.com/taskhook-project/taskhook/pkg/model"
	"github.com/taskhook-project/taskhook/pkg/pathutil"
)

// DefaultTimeout applies when neither the hook nor the defaults set one.
const DefaultTimeout = 30 * time.Second

// DefaultShell runs inline command actions.
const DefaultShell = "/bin/sh"

// Registry is an ordered set of hook definitions plus global defaults.
type Registry struct {
	Defaults model.HookDefaults
	Hooks    []model.HookDefinition
}

type rawFile struct {
	Defaults rawDefaults `yaml:"defaults"`
	Hooks    []rawHook   `yaml:"hooks"`
}

type rawDefaults struct {
	Timeout  string `yaml:"timeout"`
	Shell    string `yaml:"shell"`
	FailMode string `yaml:"fail_mode"`
}

type rawHook struct {
	Name             string            `yaml:"name"`
	Matchers         []string          `yaml:"matchers"`
	Filter           map[string]any    `yaml:"filter"`
	Action           model.HookAction  `yaml:"action"`
	Timeout          string            `yaml:"timeout"`
	WorkingDirectory string            `yaml:"working_directory"`
	Env              map[string]string `yaml:"env"`
	FailMode         string            `yaml:"fail_mode"`
	Enabled          *bool             `yaml:"enabled"`
}

// Load reads the hook registry from path. A missing file yields an empty
// registry (no hooks configured); anything unreadable or malformed is a
// configuration error.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Registry{Defaults: defaultDefaults()}, nil
	}
	if err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("read hook registry: %v", err)
	}

	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("parse hook registry: %v", err)
	}

	defaults, err := buildDefaults(raw.Defaults)
	if err != nil {
		return nil, err
	}

	reg := &Registry{Defaults: defaults}
	seen := make(map[string]bool)
	for i, rh := range raw.Hooks {
		hook, err := buildHook(rh, defaults)
		if err != nil {
			return nil, fmt.Errorf("hook %d: %w", i, err)
		}
		if seen[hook.Name] {
			return nil, errclass.ErrConfigInvalid.WithMessagef("duplicate hook name: %s", hook.Name)
		}
		seen[hook.Name] = true
		reg.Hooks = append(reg.Hooks, hook)
	}

	return reg, nil
}

func defaultDefaults() model.HookDefaults {
	return model.HookDefaults{
		Timeout:  DefaultTimeout,
		Shell:    DefaultShell,
		FailMode: model.FailModeContinue,
	}
}

func buildDefaults(raw rawDefaults) (model.HookDefaults, error) {
	d := defaultDefaults()

	if raw.Timeout != "" {
		t, err := time.ParseDuration(raw.Timeout)
		if err != nil || t <= 0 {
			return d, errclass.ErrConfigInvalid.WithMessagef("invalid default timeout: %s", raw.Timeout)
		}
		d.Timeout = t
	}
	if raw.Shell != "" {
		d.Shell = raw.Shell
	}
	if raw.FailMode != "" {
		fm, err := parseFailMode(raw.FailMode)
		if err != nil {
			return d, err
		}
		d.FailMode = fm
	}
	return d, nil
}

func buildHook(raw rawHook, defaults model.HookDefaults) (model.HookDefinition, error) {
	var hook model.HookDefinition

	if raw.Name == "" {
		return hook, errclass.ErrConfigInvalid.WithMessage("hook has no name")
	}
	if len(raw.Matchers) == 0 {
		return hook, errclass.ErrConfigInvalid.WithMessagef("hook %s has no matchers", raw.Name)
	}
	for _, m := range raw.Matchers {
		if err := validateMatcher(m); err != nil {
			return hook, err
		}
	}
	if (raw.Action.Script == "") == (raw.Action.Command == "") {
		return hook, errclass.ErrConfigInvalid.WithMessagef(
			"hook %s must declare exactly one of action.script or action.command", raw.Name)
	}

	hook = model.HookDefinition{
		Name:             raw.Name,
		Matchers:         raw.Matchers,
		Filter:           raw.Filter,
		Action:           raw.Action,
		Timeout:          defaults.Timeout,
		WorkingDirectory: raw.WorkingDirectory,
		Env:              raw.Env,
		FailMode:         defaults.FailMode,
		Enabled:          true,
	}

	if raw.Timeout != "" {
		t, err := time.ParseDuration(raw.Timeout)
		if err != nil || t <= 0 {
			return hook, errclass.ErrConfigInvalid.WithMessagef("hook %s: invalid timeout: %s", raw.Name, raw.Timeout)
		}
		hook.Timeout = t
	}
	if raw.FailMode != "" {
		fm, err := parseFailMode(raw.FailMode)
		if err != nil {
			return hook, fmt.Errorf("hook %s: %w", raw.Name, err)
		}
		hook.FailMode = fm
	}
	if raw.Enabled != nil {
		hook.Enabled = *raw.Enabled
	}

	return hook, nil
}

func parseFailMode(s string) (model.FailMode, error) {
	switch model.FailMode(s) {
	case model.FailModeContinue, model.FailModeStop:
		return model.FailMode(s), nil
	}
	return "", errclass.ErrConfigInvalid.WithMessagef("unknown fail_mode: %s", s)
}

// Match returns all enabled hooks whose matchers and filter are satisfied
// by the event, in declaration order. There is no first-match-wins
// short-circuit.
func (r *Registry) Match(ev model.Event) []model.HookDefinition {
	var matched []model.HookDefinition
	for _, hook := range r.Hooks {
		if !hook.Enabled {
			continue
		}
		if !matchesAny(hook.Matchers, ev.EventType) {
			continue
		}
		if !matchesFilter(hook.Filter, ev.Context) {
			continue
		}
		matched = append(matched, hook)
	}
	return matched
}

// Validate checks every hook definition without executing anything:
// matcher syntax, timeouts, and script resolution inside baseDir. Used by
// the dry-run CLI surface.
func (r *Registry) Validate(baseDir string) []error {
	var errs []error
	for _, hook := range r.Hooks {
		if hook.Action.Script != "" {
			resolved, err := pathutil.ResolveWithin(baseDir, hook.Action.Script)
			if err != nil {
				errs = append(errs, fmt.Errorf("hook %s: %w", hook.Name, err))
				continue
			}
			if _, err := os.Stat(resolved); err != nil {
				errs = append(errs, errclass.ErrActionInvalid.WithMessagef(
					"hook %s: script not found: %s", hook.Name, hook.Action.Script))
			}
		}
	}
	return errs
}
