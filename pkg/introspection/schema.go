package introspection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openfroyo/typeintro/pkg/executor"
	"github.com/openfroyo/typeintro/pkg/shell"
)

const (
	// DefaultInterpreter runs the schema helper script.
	DefaultInterpreter = "python3"

	// SchemaScriptName is the helper script looked up in the scripts directory.
	SchemaScriptName = "get_type_schema.py"

	opGetSchema = "get_type_schema"
)

// SchemaRetriever runs the schema helper script for a type and decodes its
// JSON output.
type SchemaRetriever struct {
	exec        executor.Executor
	scriptsPath string
	interpreter string
}

// NewSchemaRetriever creates a retriever for the helper script in
// scriptsPath. An empty scriptsPath disables schema retrieval; an empty
// interpreter means DefaultInterpreter.
func NewSchemaRetriever(exec executor.Executor, scriptsPath, interpreter string) *SchemaRetriever {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	return &SchemaRetriever{
		exec:        exec,
		scriptsPath: scriptsPath,
		interpreter: interpreter,
	}
}

// ScriptPath returns the helper script location, or "" when unconfigured.
func (r *SchemaRetriever) ScriptPath() string {
	if r.scriptsPath == "" {
		return ""
	}
	return strings.TrimSuffix(r.scriptsPath, "/") + "/" + SchemaScriptName
}

// Command returns the command line used for typeName.
func (r *SchemaRetriever) Command(typeName string) string {
	return shell.Join(r.interpreter, r.ScriptPath(), typeName)
}

// GetSchema returns the helper script's full JSON result for typeName,
// shaped like {"name": ..., "category": ..., "schema": {...}}.
//
// It fails with KindConfiguration when no scripts path is configured, without
// running anything. A result carrying an "error" field fails with
// KindRetrieval and that message, even when the script also exited non-zero.
func (r *SchemaRetriever) GetSchema(ctx context.Context, typeName string) (Document, error) {
	if err := validateTypeName(opGetSchema, typeName); err != nil {
		return nil, err
	}
	if r.scriptsPath == "" {
		return nil, newError(KindConfiguration, opGetSchema, typeName, "scripts path not configured for schema retrieval", nil)
	}

	out, err := r.exec.Execute(ctx, r.Command(typeName))
	if err != nil {
		// The script reports failures as {"error": ...} and exits 1.
		if execErr, ok := executor.AsExecError(err); ok && strings.TrimSpace(execErr.Stdout) != "" {
			if doc, decodeErr := decodeSchema(execErr.Stdout); decodeErr == nil {
				if msg, ok := schemaError(doc); ok {
					return nil, newError(KindRetrieval, opGetSchema, typeName, msg, err)
				}
			}
		}
		return nil, newError(KindRetrieval, opGetSchema, typeName, "failed to run schema script", err)
	}

	doc, err := decodeSchema(out)
	if err != nil {
		return nil, newError(KindDecode, opGetSchema, typeName, "failed to parse schema output", err)
	}

	if msg, ok := schemaError(doc); ok {
		return nil, newError(KindRetrieval, opGetSchema, typeName, msg, nil)
	}
	return doc, nil
}

// SchemaOf extracts the "schema" sub-document from a GetSchema result,
// defaulting to an empty Document.
func SchemaOf(result Document) Document {
	return result.Section("schema")
}

func decodeSchema(text string) (Document, error) {
	var raw any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", raw)
	}
	return Document(obj), nil
}

func schemaError(doc Document) (string, bool) {
	v, ok := doc["error"]
	if !ok {
		return "", false
	}
	if msg, ok := v.(string); ok {
		return msg, true
	}
	return fmt.Sprint(v), true
}
