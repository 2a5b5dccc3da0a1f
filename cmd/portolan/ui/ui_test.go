package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// --- tests ---

func TestEnvTruthyValues(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "one", value: "1", want: true},
		{name: "true", value: "true", want: true},
		{name: "yes", value: "yes", want: true},
		{name: "on", value: "on", want: true},
		{name: "zero", value: "0", want: false},
		{name: "false", value: "false", want: false},
		{name: "empty", value: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PORTOLAN_TEST_TRUTHY", tc.value)
			if got := envTruthy("PORTOLAN_TEST_TRUTHY"); got != tc.want {
				t.Fatalf("envTruthy() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKeyValuesAlignment(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := KeyValues("  ",
		KV("Name", "web"),
		KV("Image", "nginx:latest"),
	)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	// Values of both rows start at the same column.
	if strings.Index(lines[0], "web") != strings.Index(lines[1], "nginx:latest") {
		t.Errorf("values are not aligned:\n%s", out)
	}
}

func TestTableContainsCells(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := Table([]string{"NAME", "STATUS"}, [][]string{
		{"web", "running"},
		{"db", "exited"},
	})
	for _, cell := range []string{"NAME", "STATUS", "web", "running", "db", "exited"} {
		if !strings.Contains(out, cell) {
			t.Errorf("table output is missing %q:\n%s", cell, out)
		}
	}
}

func TestPercentFormat(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	if got := Percent(12.34); got != "12.3%" {
		t.Errorf("Percent(12.34) = %q, want 12.3%%", got)
	}
	if got := Percent(0); got != "0.0%" {
		t.Errorf("Percent(0) = %q, want 0.0%%", got)
	}
}
