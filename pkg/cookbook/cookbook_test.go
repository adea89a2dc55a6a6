package cookbook

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/cookgems/pkg/errors"
)

func TestGemRequirement_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    GemRequirement
		wantErr bool
	}{
		{
			name:  "name only",
			input: `["foo"]`,
			want:  GemRequirement{Name: "foo"},
		},
		{
			name:  "single constraint",
			input: `["bar", ">= 2.0"]`,
			want:  GemRequirement{Name: "bar", Constraints: []string{">= 2.0"}},
		},
		{
			name:  "multiple constraints",
			input: `["baz", ">= 1.0", "< 2.0"]`,
			want:  GemRequirement{Name: "baz", Constraints: []string{">= 1.0", "< 2.0"}},
		},
		{
			name:  "trailing options",
			input: `["qux", "~> 1.1", {"require": false}]`,
			want: GemRequirement{
				Name:        "qux",
				Constraints: []string{"~> 1.1"},
				Options:     map[string]any{"require": false},
			},
		},
		{name: "empty tuple", input: `[]`, wantErr: true},
		{name: "not an array", input: `"foo"`, wantErr: true},
		{name: "numeric name", input: `[1]`, wantErr: true},
		{name: "options not last", input: `["foo", {"require": false}, "1.0"]`, wantErr: true},
		{name: "numeric constraint", input: `["foo", 1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got GemRequirement
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal(%s) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGemRequirement_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		req  GemRequirement
		want string
	}{
		{"name only", Gem("foo"), `["foo"]`},
		{
			"constraint and options",
			GemRequirement{Name: "qux", Constraints: []string{"~> 1.1"}, Options: map[string]any{"require": false}},
			`["qux","~> 1.1",{"require":false}]`,
		},
		{"range", Gem("rake", ">= 13", "< 14"), `["rake",">= 13","< 14"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(tt.req); err != nil {
				t.Fatal(err)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("Encode = %s, want %s", got, tt.want)
			}

			// json.Marshal escapes operators, which must still decode.
			data, err := json.Marshal(tt.req)
			if err != nil {
				t.Fatal(err)
			}
			var back GemRequirement
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal(%s): %v", data, err)
			}
			if back.String() != tt.req.String() {
				t.Errorf("round trip = %v, want %v", back, tt.req)
			}
		})
	}
}

func TestGemRequirement_String(t *testing.T) {
	if got := Gem("foo").String(); got != "foo" {
		t.Errorf("String() = %q, want %q", got, "foo")
	}
	if got := Gem("foo", ">= 1", "< 2").String(); got != "foo (>= 1, < 2)" {
		t.Errorf("String() = %q", got)
	}
}

func TestVersion_GemsNilSafe(t *testing.T) {
	var v *Version
	if v.Gems() != nil {
		t.Error("nil Version should have no gems")
	}
	if (&Version{Name: "x"}).Gems() != nil {
		t.Error("Version without metadata should have no gems")
	}
}

func TestCollection_Order(t *testing.T) {
	c, err := NewCollection(
		&Version{Name: "zeta"},
		&Version{Name: "alpha"},
		&Version{Name: "mid"},
	)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for name := range c.All() {
		got = append(got, name)
	}
	want := []string{"zeta", "alpha", "mid"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("All() order = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(c.Names(), want) {
		t.Errorf("Names() = %v, want %v", c.Names(), want)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCollection_Duplicate(t *testing.T) {
	_, err := NewCollection(&Version{Name: "a", Path: "x/a"}, &Version{Name: "a", Path: "y/a"})
	if !errors.Is(err, errors.ErrCodeDuplicateCookbook) {
		t.Errorf("NewCollection duplicate error = %v, want %s", err, errors.ErrCodeDuplicateCookbook)
	}
}

func TestCollection_EarlyBreak(t *testing.T) {
	c, _ := NewCollection(&Version{Name: "a"}, &Version{Name: "b"})
	n := 0
	for range c.All() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterations = %d, want 1", n)
	}
}
