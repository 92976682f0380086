// cmd/tools/registry-tool/scaffold.go
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/spf13/cobra"

	"jtracker-hub/pkg/registry"
)

// scaffoldData feeds the handler package templates.
type scaffoldData struct {
	Event       string
	Description string
	Group       string
	TaskType    string
	PackageName string
	Dir         string
	Fields      []scaffoldField
	DataType    string
	NeedsJSON   bool
}

type scaffoldField struct {
	Name    string
	Type    string
	JSONTag string
}

func newScaffoldCmd() *cobra.Command {
	var (
		group string
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "scaffold <event>",
		Short: "Generate a handler package skeleton for an inbound event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadFromFlags(cmd)
			if err != nil {
				return err
			}
			files, err := scaffold(reg, args[0], group, out, force)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "application", "Handler group under the output directory")
	cmd.Flags().StringVar(&out, "out", "internal/workers", "Output directory")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func scaffold(reg *registry.EventRegistry, event, group, out string, force bool) ([]string, error) {
	e, ok := reg.Find(event)
	if !ok {
		return nil, fmt.Errorf("unknown event %q", event)
	}
	if e.Direction != "tab->hub" || e.Transport != "message" {
		return nil, fmt.Errorf("%s is not an inbound one-shot message", event)
	}

	taskType := kebab(event)
	data := scaffoldData{
		Event:       event,
		Description: e.Description,
		Group:       group,
		TaskType:    taskType,
		PackageName: strings.ReplaceAll(taskType, "-", ""),
		Dir:         filepath.ToSlash(filepath.Join(out, group, taskType)),
	}
	data.Fields, data.DataType = fieldsFromSchema(e.DataSchema)
	data.NeedsJSON = strings.Contains(data.DataType, "json.")
	for _, f := range data.Fields {
		if strings.Contains(f.Type, "json.") {
			data.NeedsJSON = true
		}
	}

	dir := filepath.Join(out, group, taskType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(scaffoldTemplates))
	for name := range scaffoldTemplates {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !force {
			return written, fmt.Errorf("%s exists, use --force to overwrite", path)
		}

		tmpl, err := template.New(name).Parse(scaffoldTemplates[name])
		if err != nil {
			return written, fmt.Errorf("parse %s template: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return written, fmt.Errorf("render %s: %w", name, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return written, fmt.Errorf("format %s: %w", name, err)
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// fieldsFromSchema maps an object schema to struct fields. Any other schema
// becomes a single Data field of the matching Go type.
func fieldsFromSchema(schema map[string]interface{}) ([]scaffoldField, string) {
	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return nil, goType(schema)
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]scaffoldField, 0, len(keys))
	for _, k := range keys {
		prop, _ := props[k].(map[string]interface{})
		fields = append(fields, scaffoldField{
			Name:    exported(k),
			Type:    goType(prop),
			JSONTag: fmt.Sprintf("`json:\"%s\"`", k),
		})
	}
	return fields, ""
}

func goType(schema map[string]interface{}) string {
	switch schema["type"] {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "array":
		return "[]json.RawMessage"
	default:
		return "json.RawMessage"
	}
}

func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func exported(s string) string {
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, "Id") {
		s = strings.TrimSuffix(s, "Id") + "ID"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var scaffoldTemplates = map[string]string{
	"config.go": `// {{ .Dir }}/config.go
package {{ .PackageName }}

import "jtracker-hub/internal/common/config"

type Config struct {
	Enabled bool
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Enabled: config.IsHandlerEnabled(cfg, TaskType),
	}
}
`,
	"models.go": `// {{ .Dir }}/models.go
package {{ .PackageName }}
{{ if .NeedsJSON }}
import "encoding/json"
{{ end }}
// Input is the decoded {{ .Event }} payload.
type Input struct {
{{- if .DataType }}
	Data {{ .DataType }} ` + "`json:\"data\"`" + `
{{- end }}
{{- range .Fields }}
	{{ .Name }} {{ .Type }} {{ .JSONTag }}
{{- end }}
}
`,
	"handler.go": `// {{ .Dir }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/router"
)

const (
	TaskType = "{{ .TaskType }}"
)

// Handler handles {{ .Event }}: {{ .Description }}
type Handler struct {
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Handle implements router.Handler.
func (h *Handler) Handle(ctx context.Context, msg models.Message, sender models.Sender) (*router.Task, error) {
	env, err := models.Encode(msg)
	if err != nil {
		return nil, err
	}
	var input Input
	{{- if .DataType }}
	if err := json.Unmarshal(env.Data, &input.Data); err != nil {
	{{- else }}
	if err := json.Unmarshal(env.Data, &input); err != nil {
	{{- end }}
		return nil, commonerrors.NewInvalidPayloadError(string(env.Event), err)
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*router.Task, error) {
	h.logger.Debug("{{ .Event }} received", nil)
	return nil, nil
}
`,
	"handler_test.go": `package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jtracker-hub/internal/common/logger"
)

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(&Config{Enabled: true}, logger.NewTestLogger(t))

	task, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Nil(t, task)
}
`,
}
