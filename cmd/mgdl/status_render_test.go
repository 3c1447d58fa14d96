package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"mgdl/internal/mirror"
)

func TestRenderStatusLine(t *testing.T) {
	tests := []struct {
		name     string
		kind     statusKind
		message  string
		colorize bool
		want     string
	}{
		{name: "ok plain", kind: statusOK, message: "ready", want: "  Catalog:             [OK] ready"},
		{name: "error no message", kind: statusError, want: "  Catalog:             [ERROR]"},
		{name: "warn colored", kind: statusWarn, message: "x", colorize: true, want: "\x1b[33m  Catalog:             [WARN] x" + ansiReset},
		{name: "locked", kind: statusLocked, message: "busy", want: "  Catalog:             [LOCKED] busy"},
		{name: "unknown kind", kind: statusKind(99), want: "  Catalog:             [INFO]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderStatusLine("Catalog", tt.kind, tt.message, tt.colorize); got != tt.want {
				t.Fatalf("renderStatusLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSweepStatus(t *testing.T) {
	tests := []struct {
		err   error
		kind  statusKind
		label string
	}{
		{nil, statusOK, "ok"},
		{fmt.Errorf("%w: foo", mirror.ErrLocked), statusLocked, "locked"},
		{errors.New("boom"), statusError, "failed"},
	}
	for _, tt := range tests {
		kind, label := sweepStatus(mirror.SweepItem{Err: tt.err})
		if kind != tt.kind || label != tt.label {
			t.Errorf("sweepStatus(%v) = %v %q, want %v %q", tt.err, kind, label, tt.kind, tt.label)
		}
	}
}

func TestWriteJSONKeepsTitleCharacters(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := writeJSON(cmd, map[string]string{"name": "Tom & Jerry <3"}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if !strings.Contains(out.String(), `"Tom & Jerry <3"`) {
		t.Fatalf("unexpected json: %s", out.String())
	}
}

func TestShouldColorizeNonTerminal(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("expected buffers never to be colorized")
	}
}

func TestTableSpecPadsRows(t *testing.T) {
	spec := tableSpec{headers: []string{"Name", "Count"}, aligns: []align{alignLeft, alignRight}}
	spec.add("foo")
	spec.add("bar", "12")
	spec.footer = []string{"Total", "12"}
	rendered := spec.render()
	for _, want := range []string{"NAME", "foo", "bar", "12", "TOTAL"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("expected table to contain %q:\n%s", want, rendered)
		}
	}
	if (&tableSpec{}).render() != "" {
		t.Fatal("expected empty spec to render nothing")
	}
}
