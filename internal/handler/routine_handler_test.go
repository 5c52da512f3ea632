package handler

import (
	"strings"
	"testing"
)

func TestRenderRoutineNote(t *testing.T) {
	html := renderRoutineNote("每天 **5 公里**")
	if !strings.Contains(html, "<strong>5 公里</strong>") {
		t.Fatalf("expected rendered markdown, got %q", html)
	}
}

func TestRenderRoutineNoteStripsScripts(t *testing.T) {
	html := renderRoutineNote("正常文本<script>alert('x')</script>")
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script tag to be sanitized, got %q", html)
	}
	if !strings.Contains(html, "正常文本") {
		t.Fatalf("expected plain text to survive, got %q", html)
	}
}

func TestParseDateField(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2025-08-20", "2025-08-20", true},
		{"  2025-08-20  ", "2025-08-20", true},
		{"", "", false},
		{"   ", "", false},
		{"2025/08/20", "", false},
		{"not-a-date", "", false},
	}

	for _, tc := range cases {
		got, ok := parseDateField(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseDateField(%q) = (%q, %v), expected (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}
