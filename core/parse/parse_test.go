package parse

import "testing"

func TestObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
		want    any
	}{
		{"clean json", `{"result": "ok"}`, "result", "ok"},
		{"fenced json", "```json\n{\"result\": \"ok\"}\n```", "result", "ok"},
		{"single quotes repaired", `{'result': 'ok'}`, "result", "ok"},
		{"trailing comma repaired", `{"result": "ok",}`, "result", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			object, err := Object(tt.content)
			if err != nil {
				t.Fatalf("Object(%q): %v", tt.content, err)
			}
			if object[tt.key] != tt.want {
				t.Errorf("object[%q] = %v, want %v", tt.key, object[tt.key], tt.want)
			}
		})
	}
}

func TestObjectRejectsGarbage(t *testing.T) {
	if _, err := Object("the model refused to answer"); err == nil {
		t.Error("expected error for non-JSON reply")
	}
}

func TestField(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
		want    string
		wantErr bool
	}{
		{"string field", `{"answer": "matched"}`, "answer", "matched", false},
		{"number field", `{"score": 3.5}`, "score", "3.5", false},
		{"bool field", `{"ok": true}`, "ok", "true", false},
		{"null field", `{"answer": null}`, "answer", "", false},
		{"nested field", `{"rows": [1, 2]}`, "rows", "[1,2]", false},
		{"missing field", `{"answer": "x"}`, "score", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Field(tt.content, tt.field)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Field error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Field = %q, want %q", got, tt.want)
			}
		})
	}
}
