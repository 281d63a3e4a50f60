package source

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFlexString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain string", `"A Title"`, "A Title"},
		{"array takes first", `["First", "Second"]`, "First"},
		{"number", `128`, "128"},
		{"null", `null`, ""},
		{"empty array", `[]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got flexString
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if string(got) != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single string", `"History"`, []string{"History"}},
		{"array", `["History", "Europe"]`, []string{"History", "Europe"}},
		{"null", `null`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got stringList
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if !reflect.DeepEqual([]string(got), tt.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStringListFirstOr(t *testing.T) {
	if got := (stringList{}).FirstOr("en"); got != "en" {
		t.Errorf("empty list FirstOr = %q, want en", got)
	}
	if got := (stringList{"", "fr"}).FirstOr("en"); got != "fr" {
		t.Errorf("FirstOr skips empty = %q, want fr", got)
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"number", `42`, 42},
		{"numeric string", `"1048576"`, 1048576},
		{"junk reads zero", `"12.5 MB"`, 0},
		{"null", `null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got flexInt
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if int64(got) != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
