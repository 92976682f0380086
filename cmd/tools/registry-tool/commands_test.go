package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jtracker-hub/pkg/registry"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_EmbeddedRegistry(t *testing.T) {
	out, err := run(t, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "OK (11 events)")
}

func TestValidate_ReportsDrift(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)

	for i := range reg.Events {
		switch reg.Events[i].Name {
		case "toggleWindow":
			reg.Events[i].Handled = true
		case "getTabId":
			reg.Events[i].Transport = "message"
		}
	}
	reg.Events = append(reg.Events, registry.Event{Name: "closeWindow", Direction: "hub->tab", Transport: "message"})

	err = validateRegistry(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggleWindow: handled=true")
	assert.Contains(t, err.Error(), `getTabId: transport "message"`)
	assert.Contains(t, err.Error(), "closeWindow: not a known event")
}

func TestValidate_MissingEvent(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	reg.Events = reg.Events[1:]

	err = validateRegistry(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startApplication: missing from registry")
}

func TestList(t *testing.T) {
	out, err := run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "completeApplication")
	assert.Contains(t, out, "getTabId")
}

func TestList_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"0.1","events":[{"name":"getTabId","direction":"tab->hub","transport":"port","handled":true}]}`), 0o644))

	out, err := run(t, "", "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "getTabId")
	assert.NotContains(t, out, "completeApplication")
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		wantErr string
		wantOut string
	}{
		{
			name:    "valid payload from stdin",
			args:    []string{"check", "setApplicationInProgress", "-"},
			stdin:   `null`,
			wantOut: "setApplicationInProgress payload OK",
		},
		{
			name:    "invalid payload",
			args:    []string{"check", "startApplication", "-"},
			stdin:   `{"url":"https://jobs.test"}`,
			wantErr: "payload does not match startApplication",
			wantOut: "title",
		},
		{
			name:    "unknown event",
			args:    []string{"check", "closeWindow", "-"},
			stdin:   `{}`,
			wantErr: `unknown event "closeWindow"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.stdin, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
		})
	}
}

// ==========================
// Scaffold
// ==========================

func TestScaffold_ScalarEvent(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	out := t.TempDir()

	files, err := scaffold(reg, "shouldEnableToggle", "tabs", out, false)
	require.NoError(t, err)
	require.Len(t, files, 4)

	dir := filepath.Join(out, "tabs", "should-enable-toggle")
	handler, err := os.ReadFile(filepath.Join(dir, "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), "package shouldenabletoggle")
	assert.Contains(t, string(handler), `TaskType = "should-enable-toggle"`)
	assert.Contains(t, string(handler), "json.Unmarshal(env.Data, &input.Data)")

	models, err := os.ReadFile(filepath.Join(dir, "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "Data int")
	assert.NotContains(t, string(models), "encoding/json")
}

func TestScaffold_ObjectEvent(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	out := t.TempDir()

	_, err = scaffold(reg, "completeApplication", "application", out, false)
	require.NoError(t, err)

	models, err := os.ReadFile(filepath.Join(out, "application", "complete-application", "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "NewApplication json.RawMessage")
	assert.Contains(t, string(models), "TabID")
	assert.Contains(t, string(models), `import "encoding/json"`)
}

func TestScaffold_Refusals(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	out := t.TempDir()

	_, err = scaffold(reg, "openWindow", "tabs", out, false)
	assert.ErrorContains(t, err, "not an inbound one-shot message")

	_, err = scaffold(reg, "getTabId", "tabs", out, false)
	assert.ErrorContains(t, err, "not an inbound one-shot message")

	_, err = scaffold(reg, "toggleWindow", "tabs", out, false)
	require.NoError(t, err)
	_, err = scaffold(reg, "toggleWindow", "tabs", out, false)
	assert.ErrorContains(t, err, "use --force")
	_, err = scaffold(reg, "toggleWindow", "tabs", out, true)
	assert.NoError(t, err)
}

func TestScaffold_Command(t *testing.T) {
	out := t.TempDir()
	stdout, err := run(t, "", "scaffold", "updateTab", "--group", "tabs", "--out", out)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(stdout, "wrote"))
}
