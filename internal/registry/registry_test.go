package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhook-project/taskhook/pkg/errclass"
	"github.com/taskhook-project/taskhook/pkg/model"
)

func writeRegistry(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

const sampleRegistry = `
defaults:
  timeout: 20s
  fail_mode: continue
hooks:
  - name: notify
    matchers: ["task.completed"]
    action:
      script: notify.sh
  - name: log-all
    matchers: ["task.*"]
    action:
      command: "cat >> events.log"
    timeout: 5s
    fail_mode: stop
  - name: disabled-hook
    matchers: ["task.created"]
    action:
      command: "true"
    enabled: false
`

func TestLoad_AppliesDefaults(t *testing.T) {
	reg, err := Load(writeRegistry(t, sampleRegistry))
	require.NoError(t, err)
	require.Len(t, reg.Hooks, 3)

	assert.Equal(t, 20*time.Second, reg.Hooks[0].Timeout)
	assert.Equal(t, model.FailModeContinue, reg.Hooks[0].FailMode)
	assert.True(t, reg.Hooks[0].Enabled)

	assert.Equal(t, 5*time.Second, reg.Hooks[1].Timeout)
	assert.Equal(t, model.FailModeStop, reg.Hooks[1].FailMode)

	assert.False(t, reg.Hooks[2].Enabled)
}

func TestLoad_MissingFileYieldsEmptyRegistry(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, reg.Hooks)
	assert.Equal(t, DefaultTimeout, reg.Defaults.Timeout)
}

func TestLoad_FailsClosed(t *testing.T) {
	cases := map[string]string{
		"malformed yaml": "hooks: [{{",
		"missing name": `
hooks:
  - matchers: ["task.*"]
    action: {command: "true"}
`,
		"no matchers": `
hooks:
  - name: h
    action: {command: "true"}
`,
		"both action forms": `
hooks:
  - name: h
    matchers: ["task.*"]
    action: {command: "true", script: x.sh}
`,
		"no action": `
hooks:
  - name: h
    matchers: ["task.*"]
`,
		"bad fail_mode": `
hooks:
  - name: h
    matchers: ["task.*"]
    action: {command: "true"}
    fail_mode: explode
`,
		"bad timeout": `
hooks:
  - name: h
    matchers: ["task.*"]
    action: {command: "true"}
    timeout: soon
`,
		"duplicate names": `
hooks:
  - name: h
    matchers: ["task.*"]
    action: {command: "true"}
  - name: h
    matchers: ["task.created"]
    action: {command: "true"}
`,
		"bad matcher wildcard": `
hooks:
  - name: h
    matchers: ["task.*.created"]
    action: {command: "true"}
`,
	}

	for name, yaml := range cases {
		_, err := Load(writeRegistry(t, yaml))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, errclass.ErrConfigInvalid), name)
	}
}

func event(et model.EventType, ctx map[string]any) model.Event {
	return model.Event{EventType: et, Context: ctx}
}

func TestMatch_ExactAndWildcards(t *testing.T) {
	reg := &Registry{Hooks: []model.HookDefinition{
		{Name: "exact", Matchers: []string{"task.completed"}, Enabled: true},
		{Name: "prefix", Matchers: []string{"task.*"}, Enabled: true},
		{Name: "suffix", Matchers: []string{"*.completed"}, Enabled: true},
		{Name: "other", Matchers: []string{"deploy.finished"}, Enabled: true},
	}}

	matched := reg.Match(event("task.completed", nil))
	names := hookNames(matched)
	assert.Equal(t, []string{"exact", "prefix", "suffix"}, names)

	matched = reg.Match(event("task.created", nil))
	assert.Equal(t, []string{"prefix"}, hookNames(matched))
}

func TestMatch_DeclarationOrderNoShortCircuit(t *testing.T) {
	reg := &Registry{Hooks: []model.HookDefinition{
		{Name: "b", Matchers: []string{"task.*"}, Enabled: true},
		{Name: "a", Matchers: []string{"task.created"}, Enabled: true},
	}}
	assert.Equal(t, []string{"b", "a"}, hookNames(reg.Match(event("task.created", nil))))
}

func TestMatch_DisabledHookSkipped(t *testing.T) {
	reg := &Registry{Hooks: []model.HookDefinition{
		{Name: "off", Matchers: []string{"task.*"}, Enabled: false},
	}}
	assert.Empty(t, reg.Match(event("task.created", nil)))
}

func TestMatch_Filters(t *testing.T) {
	reg := &Registry{Hooks: []model.HookDefinition{
		{
			Name:     "scalar",
			Matchers: []string{"task.*"},
			Filter:   map[string]any{"to_status": "Done"},
			Enabled:  true,
		},
		{
			Name:     "any-of",
			Matchers: []string{"task.*"},
			Filter:   map[string]any{"to_status": []any{"Done", "Blocked"}},
			Enabled:  true,
		},
		{
			Name:     "all-of",
			Matchers: []string{"task.*"},
			Filter:   map[string]any{"labels+": []any{"auth", "backend"}},
			Enabled:  true,
		},
	}}

	matched := reg.Match(event("task.status_changed", map[string]any{
		"to_status": "Done",
		"labels":    []any{"auth", "backend", "urgent"},
	}))
	assert.Equal(t, []string{"scalar", "any-of", "all-of"}, hookNames(matched))

	matched = reg.Match(event("task.status_changed", map[string]any{
		"to_status": "Blocked",
		"labels":    []any{"auth"},
	}))
	assert.Equal(t, []string{"any-of"}, hookNames(matched))

	matched = reg.Match(event("task.status_changed", map[string]any{
		"to_status": "In Progress",
	}))
	assert.Empty(t, matched)
}

func TestValidate(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "notify.sh"), []byte("#!/bin/sh\n"), 0o755))

	reg := &Registry{Hooks: []model.HookDefinition{
		{Name: "ok", Action: model.HookAction{Script: "notify.sh"}, Enabled: true},
		{Name: "missing", Action: model.HookAction{Script: "ghost.sh"}, Enabled: true},
		{Name: "escape", Action: model.HookAction{Script: "../evil.sh"}, Enabled: true},
		{Name: "inline", Action: model.HookAction{Command: "true"}, Enabled: true},
	}}

	errs := reg.Validate(base)
	require.Len(t, errs, 2)
	assert.True(t, errors.Is(errs[0], errclass.ErrActionInvalid))
	assert.True(t, errors.Is(errs[1], errclass.ErrPathEscape))
}

func hookNames(hooks []model.HookDefinition) []string {
	var names []string
	for _, h := range hooks {
		names = append(names, h.Name)
	}
	return names
}
