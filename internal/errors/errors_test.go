package errors

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/elements/pkg/registry"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "definition error",
			code:    "E003",
			wantMsg: "Name already defined",
			wantCat: CategoryDefinition,
		},
		{
			name:    "coercion error",
			code:    "E022",
			wantMsg: "Value is not iterable",
			wantCat: CategoryCoercion,
		},
		{
			name:    "manifest error",
			code:    "E040",
			wantMsg: "Invalid manifest YAML",
			wantCat: CategoryManifest,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "elements.yaml")
	if err.Message != `file "elements.yaml" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" || err.Error() != err.Message {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFromDefinition(t *testing.T) {
	tests := []struct {
		kind registry.ErrorKind
		code string
	}{
		{registry.KindNotAConstructor, "E001"},
		{registry.KindInvalidName, "E002"},
		{registry.KindNameAlreadyDefined, "E003"},
		{registry.KindConstructorAlreadyInUse, "E004"},
		{registry.KindExtendsIsCustomName, "E005"},
		{registry.KindExtendsUnknownTag, "E006"},
		{registry.KindRecursiveDefinition, "E007"},
		{registry.KindNotCallable, "E020"},
		{registry.KindNotAnObject, "E021"},
		{registry.KindNotIterable, "E022"},
		{registry.KindStringifyFailed, "E023"},
		{registry.KindThrown, "E024"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			derr := &registry.DefinitionError{Kind: tt.kind, Name: "x-foo", Message: "boom"}
			err := FromDefinition(derr)
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
			var got *registry.DefinitionError
			if !stderrors.As(err, &got) || got != derr {
				t.Error("definition error not wrapped")
			}
		})
	}

	if FromDefinition(nil) != nil {
		t.Error("FromDefinition(nil) != nil")
	}
	if got := FromDefinition(registry.ErrRegistryClosed); got.Code != "E008" {
		t.Errorf("closed registry code = %q", got.Code)
	}
}

func TestFromError(t *testing.T) {
	base := stderrors.New("disk on fire")
	err := FromError(base, "E080")
	if err.Code != "E080" || !stderrors.Is(err, base) {
		t.Errorf("FromError() = %v", err)
	}
	if FromError(err, "E081") != err {
		t.Error("FromError re-wrapped an *Error")
	}
	if FromError(nil, "E080") != nil {
		t.Error("FromError(nil) != nil")
	}
}

func TestWithSource(t *testing.T) {
	src := []byte("- name: x-a\n- name: x-b\n  extends: blink\n- name: x-c\n")
	err := New("E006").WithSource("s3://bucket/elements.yaml", src, 3, 12)

	if err.Location.String() != "s3://bucket/elements.yaml:3:12" {
		t.Errorf("Location = %s", err.Location)
	}
	if len(err.Context) != 4 || err.Context[2] != "  extends: blink" {
		t.Errorf("Context = %q", err.Context)
	}
}

func TestWithLocation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elements.yaml")
	lines := []string{"a", "b", "c", "d", "e", "f", "g"}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("E042").WithLocation(path, 4, 1)
	if got := strings.Join(err.Context, ""); got != "bcdef" {
		t.Errorf("Context = %q", got)
	}

	missing := New("E042").WithLocation(filepath.Join(dir, "nope.yaml"), 1, 1)
	if missing.Context != nil || missing.Location == nil {
		t.Error("missing file should keep location without context")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	src := []byte("- name: x-a\n  name: x-a\n")
	err := New("E003").
		WithSource("elements.yaml", src, 2, 3).
		Wrap(stderrors.New("already here"))
	out := err.Format()

	for _, want := range []string{
		"ERROR E003: Name already defined",
		"elements.yaml:2:3",
		"→    2 │   name: x-a",
		"│   ^",
		"already here",
		"Hint: Each custom element name",
		"Learn more: " + docBase + "E003",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E022").WithSource("m.yaml", nil, 7, 0)
	if got := err.FormatCompact(); got != "m.yaml:7: E022: Value is not iterable" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E002").WithSource("m.yaml", nil, 1, 9).Wrap(stderrors.New("bad"))
	var decoded map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("invalid JSON: %v", jerr)
	}
	if decoded["code"] != "E002" || decoded["category"] != "definition" || decoded["cause"] != "bad" {
		t.Errorf("decoded = %v", decoded)
	}
	loc, _ := decoded["location"].(map[string]any)
	if loc["line"] != float64(1) || loc["column"] != float64(9) {
		t.Errorf("location = %v", loc)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than 10", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven" {
		t.Errorf("wrapText lost words: %q", lines)
	}
}

func TestCodesRegistry(t *testing.T) {
	all := AllCodes()
	if len(all) == 0 || all[0] != "E001" {
		t.Errorf("AllCodes() = %v", all)
	}
	for _, code := range all {
		tmpl, ok := Lookup(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
	}

	Register("E900", Template{Category: CategoryCLI, Message: "custom"})
	defer delete(codes, "E900")
	if New("E900").Message != "custom" {
		t.Error("registered code not found")
	}
}
