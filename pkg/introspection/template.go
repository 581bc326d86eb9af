package introspection

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openfroyo/typeintro/pkg/executor"
	"github.com/openfroyo/typeintro/pkg/shell"
)

const (
	// DefaultTool is the command-line tool that prints default-value dumps.
	DefaultTool = "ros2"

	opGetTemplate = "get_type_template"
)

// TemplateRetriever asks the external tool for a default-value instance of a
// type ("<tool> interface proto <type>") and decodes it.
type TemplateRetriever struct {
	exec executor.Executor
	tool string
}

// NewTemplateRetriever creates a retriever that runs tool through exec.
// An empty tool means DefaultTool.
func NewTemplateRetriever(exec executor.Executor, tool string) *TemplateRetriever {
	if tool == "" {
		tool = DefaultTool
	}
	return &TemplateRetriever{
		exec: exec,
		tool: tool,
	}
}

// Command returns the command line used for typeName.
func (r *TemplateRetriever) Command(typeName string) string {
	return shell.Command(shell.Quote(r.tool)+" interface proto", typeName)
}

// GetTemplate returns the default-value document for typeName.
// Execution failures are KindRetrieval errors and undecodable output is a
// KindDecode error.
func (r *TemplateRetriever) GetTemplate(ctx context.Context, typeName string) (Document, error) {
	if err := validateTypeName(opGetTemplate, typeName); err != nil {
		return nil, err
	}

	out, err := r.exec.Execute(ctx, r.Command(typeName))
	if err != nil {
		return nil, newError(KindRetrieval, opGetTemplate, typeName, "failed to run template dump", err)
	}

	doc, err := decodeTemplate(UnwrapDump(out))
	if err != nil {
		return nil, newError(KindDecode, opGetTemplate, typeName, "failed to decode template dump", err)
	}
	return doc, nil
}

// UnwrapDump converts raw "interface proto" output into the dump text.
//
// The tool prints its payload as one double-quoted line with backslash
// escapes. When the output, ignoring surrounding whitespace, starts and ends
// with a quote, exactly one quote is stripped from each end. Then \n \t \r
// \\ and \" are unescaped. Output that is not quoted only loses trailing
// whitespace, so the indentation of its first line is kept.
func UnwrapDump(raw string) string {
	text := strings.TrimRight(raw, " \t\r\n")
	if quoted := strings.TrimLeft(text, " \t\r\n"); len(quoted) >= 2 && quoted[0] == '"' && quoted[len(quoted)-1] == '"' {
		text = quoted[1 : len(quoted)-1]
	}
	return unescapeDump(text)
}

// unescapeDump replaces the five recognised two-character escapes. Any other
// backslash sequence, and a trailing lone backslash, is kept literally.
func unescapeDump(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			// Keep the backslash; the next byte is written on the next iteration.
			b.WriteByte('\\')
			continue
		}
		i++
	}
	return b.String()
}

// decodeTemplate parses dump text into a Document. Empty text is an empty
// Document; a top-level value that is not a mapping is an error.
func decodeTemplate(text string) (Document, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	switch v := normalizeYAML(raw).(type) {
	case nil:
		return Document{}, nil
	case map[string]any:
		return Document(v), nil
	default:
		return nil, fmt.Errorf("expected a mapping at the top level, got %T", v)
	}
}

// normalizeYAML converts the map[any]any values yaml.v3 produces for
// non-string keys into map[string]any so documents stay JSON-encodable.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeYAML(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalizeYAML(item)
		}
		return t
	default:
		return t
	}
}
