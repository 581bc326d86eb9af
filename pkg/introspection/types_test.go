package introspection

import (
	"reflect"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"std_msgs/msg/String", CategoryMessage},
		{"std_srvs/srv/Trigger", CategoryService},
		{"nav2_msgs/action/NavigateToPose", CategoryAction},
		{"std_msgs/String", CategoryUnknown},
		{"", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.name); got != tt.want {
				t.Fatalf("CategoryOf(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseTypeName(t *testing.T) {
	tests := []struct {
		input string
		want  TypeName
	}{
		{"sensor_msgs/msg/Temperature", TypeName{Package: "sensor_msgs", Category: CategoryMessage, Name: "Temperature"}},
		{"std_srvs/srv/SetBool", TypeName{Package: "std_srvs", Category: CategoryService, Name: "SetBool"}},
		{"std_msgs/String", TypeName{Category: CategoryUnknown, Name: "std_msgs/String"}},
		{"pkg/other/Type", TypeName{Category: CategoryUnknown, Name: "pkg/other/Type"}},
		{"/msg/Type", TypeName{Category: CategoryUnknown, Name: "/msg/Type"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseTypeName(tt.input)
			if got != tt.want {
				t.Fatalf("ParseTypeName(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Fatalf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestSchemaSections(t *testing.T) {
	if got := CategoryService.SchemaSections(); !reflect.DeepEqual(got, []string{"request", "response"}) {
		t.Fatalf("service sections = %v", got)
	}
	if got := CategoryAction.SchemaSections(); !reflect.DeepEqual(got, []string{"goal", "result", "feedback"}) {
		t.Fatalf("action sections = %v", got)
	}
	if got := CategoryMessage.SchemaSections(); got != nil {
		t.Fatalf("message sections = %v, want nil", got)
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := Document{
		"header": map[string]any{"frame_id": ""},
		"data":   []any{1, map[string]any{"x": 0.0}},
	}

	clone := doc.Clone()
	clone["header"].(map[string]any)["frame_id"] = "base_link"
	clone["data"].([]any)[1].(map[string]any)["x"] = 1.5
	clone["extra"] = true

	if doc["header"].(map[string]any)["frame_id"] != "" {
		t.Fatal("nested map was shared with the clone")
	}
	if doc["data"].([]any)[1].(map[string]any)["x"] != 0.0 {
		t.Fatal("nested slice was shared with the clone")
	}
	if _, ok := doc["extra"]; ok {
		t.Fatal("top-level map was shared with the clone")
	}
}

func TestDocumentSection(t *testing.T) {
	doc := Document{
		"request":  map[string]any{"data": "bool"},
		"response": "not a map",
	}

	if got := doc.Section("request"); !reflect.DeepEqual(got, Document{"data": "bool"}) {
		t.Fatalf("Section(request) = %v", got)
	}
	if got := doc.Section("response"); got == nil || !got.IsEmpty() {
		t.Fatalf("Section(response) = %v, want empty document", got)
	}
	if got := doc.Section("missing"); got == nil || !got.IsEmpty() {
		t.Fatalf("Section(missing) = %v, want empty document", got)
	}

	var nilDoc Document
	if got := nilDoc.Section("x"); got == nil {
		t.Fatal("Section on nil document returned nil")
	}
}

func TestValidateTypeName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n", "std_msgs/msg/\x00Bool"} {
		err := validateTypeName("test", name)
		if err == nil {
			t.Fatalf("validateTypeName(%q) succeeded, want error", name)
		}
		if KindOf(err) != KindInvalidArgument {
			t.Fatalf("validateTypeName(%q) kind = %q", name, KindOf(err))
		}
	}
	if err := validateTypeName("test", "std_msgs/msg/Bool"); err != nil {
		t.Fatalf("validateTypeName: %v", err)
	}
}
