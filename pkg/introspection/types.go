package introspection

import (
	"fmt"
	"sort"
	"strings"
)

// Document is a decoded structured value: a YAML default-value dump or a
// JSON schema. Nested values are Document-compatible map[string]any,
// []any and scalars.
type Document map[string]any

// Clone returns a deep copy of d. Cloning a nil Document yields an empty one.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// IsEmpty reports whether d has no keys.
func (d Document) IsEmpty() bool {
	return len(d) == 0
}

// Section returns the sub-document stored under key, or an empty Document
// when the key is absent or not a mapping.
func (d Document) Section(key string) Document {
	switch v := d[key].(type) {
	case Document:
		return v
	case map[string]any:
		return Document(v)
	default:
		return Document{}
	}
}

// Keys returns the document's top-level keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return map[string]any(t.Clone())
	case map[string]any:
		return map[string]any(Document(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return t
	}
}

// Category is the interface kind encoded in a type name.
type Category string

const (
	CategoryMessage Category = "msg"
	CategoryService Category = "srv"
	CategoryAction  Category = "action"
	CategoryUnknown Category = "unknown"
)

// CategoryOf derives the category from a fully-qualified type name such as
// "sensor_msgs/msg/Temperature" or "std_srvs/srv/Trigger".
func CategoryOf(typeName string) Category {
	switch {
	case strings.Contains(typeName, "/msg/"):
		return CategoryMessage
	case strings.Contains(typeName, "/srv/"):
		return CategoryService
	case strings.Contains(typeName, "/action/"):
		return CategoryAction
	default:
		return CategoryUnknown
	}
}

// TypeName is a fully-qualified type name split into its parts.
type TypeName struct {
	Package  string
	Category Category
	Name     string
}

// ParseTypeName splits "pkg/msg/Type" into its parts. Anything other than
// three non-empty segments with a known category keeps the whole input as
// Name with CategoryUnknown.
func ParseTypeName(typeName string) TypeName {
	parts := strings.Split(typeName, "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" || CategoryOf(typeName) == CategoryUnknown {
		return TypeName{Category: CategoryUnknown, Name: typeName}
	}
	return TypeName{
		Package:  parts[0],
		Category: CategoryOf(typeName),
		Name:     parts[2],
	}
}

// String reassembles the fully-qualified name.
func (t TypeName) String() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "/" + string(t.Category) + "/" + t.Name
}

// SchemaSections lists the top-level schema keys the helper script produces
// for a category. Messages have no sections: their schema is the field map.
func (c Category) SchemaSections() []string {
	switch c {
	case CategoryService:
		return []string{"request", "response"}
	case CategoryAction:
		return []string{"goal", "result", "feedback"}
	default:
		return nil
	}
}

// TypeDescriptor is everything known about one type.
//
// Schema and DefaultTemplate are never nil: a part that could not be
// retrieved is an empty Document.
type TypeDescriptor struct {
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	Schema          Document `json:"schema"`
	DefaultTemplate Document `json:"default_value"`
}

// newDescriptor returns a descriptor with empty placeholders.
func newDescriptor(typeName string) TypeDescriptor {
	return TypeDescriptor{
		Name:            typeName,
		Category:        CategoryOf(typeName),
		Schema:          Document{},
		DefaultTemplate: Document{},
	}
}

// Clone returns a deep copy of the descriptor.
func (d TypeDescriptor) Clone() TypeDescriptor {
	return TypeDescriptor{
		Name:            d.Name,
		Category:        d.Category,
		Schema:          d.Schema.Clone(),
		DefaultTemplate: d.DefaultTemplate.Clone(),
	}
}

// validateTypeName rejects names that can never identify a type or be passed
// as a process argument.
func validateTypeName(op, typeName string) error {
	if strings.TrimSpace(typeName) == "" {
		return newError(KindInvalidArgument, op, typeName, "type name is required", nil)
	}
	if strings.ContainsRune(typeName, 0) {
		return newError(KindInvalidArgument, op, typeName, fmt.Sprintf("type name %q contains a NUL byte", typeName), nil)
	}
	return nil
}
