package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vango-dev/elements/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInitThenCheck(t *testing.T) {
	errors.DisableColors()
	defer errors.EnableColors()

	dir := t.TempDir()
	if err := runInit(dir, false); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}
	for _, name := range []string{"elements.json", "elements.yaml", "index.html"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}

	err := runInit(dir, false)
	var coded *errors.Error
	if !stderrors.As(err, &coded) || coded.Code != "E100" {
		t.Errorf("second runInit() = %v, want E100", err)
	}

	flags := &globalFlags{configPath: dir}
	if err := runCheck(context.Background(), flags, sessionOptions{}); err != nil {
		t.Errorf("runCheck() on starter project: %v", err)
	}
	if err := runUpgrade(context.Background(), flags, sessionOptions{}, false, true); err != nil {
		t.Errorf("runUpgrade() on starter project: %v", err)
	}
}

func TestCheckReportsDefinitionErrors(t *testing.T) {
	errors.DisableColors()
	defer errors.EnableColors()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.html"), `<x-a></x-a>`)
	writeFile(t, filepath.Join(dir, "bad.yaml"), "- name: x-a\n- name: x-a\n- name: NotValid\n")

	flags := &globalFlags{configPath: dir}
	err := runCheck(context.Background(), flags, sessionOptions{
		document: filepath.Join(dir, "doc.html"),
		manifest: filepath.Join(dir, "bad.yaml"),
	})
	var failure definitionFailure
	if !stderrors.As(err, &failure) || failure.count != 2 {
		t.Errorf("runCheck() = %v, want 2 failed definitions", err)
	}
}

func TestCheckMissingManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), `<p></p>`)

	err := runCheck(context.Background(), &globalFlags{configPath: dir}, sessionOptions{})
	var coded *errors.Error
	if !stderrors.As(err, &coded) || coded.Code != "E080" {
		t.Errorf("runCheck() = %v, want E080", err)
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "check", "upgrade", "serve", "codes", "version"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}

	root.SetArgs([]string{"codes", "E003"})
	if err := root.Execute(); err != nil {
		t.Errorf("codes E003: %v", err)
	}
	root.SetArgs([]string{"codes", "E999"})
	if err := root.Execute(); err == nil {
		t.Error("codes E999 should fail")
	}
}

func TestSessionReloadDefinesNewEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), `<x-a></x-a><x-b></x-b>`)
	manifestPath := filepath.Join(dir, "elements.yaml")
	writeFile(t, manifestPath, "- name: x-a\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := openSession(ctx, &globalFlags{configPath: dir}, sessionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if errs := s.apply(ctx); len(errs) != 0 {
		t.Fatalf("apply() = %v", errs)
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.realm.Run(ctx) }()

	writeFile(t, manifestPath, "- name: x-a\n- name: x-b\n  upgrade: fail\n")
	added, errs, reactionErrs, err := s.reload(ctx)
	if err != nil {
		t.Fatalf("reload() error: %v", err)
	}
	if added != 1 || len(errs) != 0 {
		t.Errorf("reload() added %d, errors %v; want 1 and none", added, errs)
	}
	if len(reactionErrs) != 1 {
		t.Errorf("reload() reaction errors = %d, want 1 failed upgrade", len(reactionErrs))
	}

	cancel()
	<-loopDone
}

func TestSessionReloadKeepsConstructorIdentity(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), `<p></p>`)
	manifestPath := filepath.Join(dir, "elements.yaml")
	writeFile(t, manifestPath, "- name: x-a\n  constructor: Shared\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := openSession(ctx, &globalFlags{configPath: dir}, sessionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if errs := s.apply(ctx); len(errs) != 0 {
		t.Fatalf("apply() = %v", errs)
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.realm.Run(ctx) }()

	writeFile(t, manifestPath, "- name: x-a\n  constructor: Shared\n- name: x-b\n  constructor: Shared\n")
	added, errs, _, err := s.reload(ctx)
	if err != nil {
		t.Fatalf("reload() error: %v", err)
	}
	if added != 0 || len(errs) != 1 || errs[0].Code != "E004" {
		t.Errorf("reload() added %d, errors %v; want 0 and one E004", added, errs)
	}

	cancel()
	<-loopDone
}

func TestWriteVersion(t *testing.T) {
	info := buildInfo{
		Version:   "v1.2.0",
		Commit:    "abc123",
		Date:      "2026-01-02",
		GoVersion: "go1.24.0",
		Platform:  "linux/amd64",
		Deps:      map[string]string{"gopkg.in/yaml.v3": "v3.0.1"},
	}

	tests := []struct {
		name          string
		short, asJSON bool
		want          string
	}{
		{"short", true, false, "v1.2.0\n"},
		{"text", false, false, "elements v1.2.0 (abc123, built 2026-01-02)\n  go1.24.0 linux/amd64\n  gopkg.in/yaml.v3 v3.0.1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeVersion(&buf, info, tt.short, tt.asJSON); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("writeVersion() = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	var buf bytes.Buffer
	if err := writeVersion(&buf, info, false, true); err != nil {
		t.Fatal(err)
	}
	var decoded buildInfo
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if decoded.Commit != "abc123" || decoded.Deps["gopkg.in/yaml.v3"] != "v3.0.1" {
		t.Errorf("decoded = %+v", decoded)
	}
}
