// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	out := string(ToHTML("## Arrival day\n\nA **private** chef awaits. [Book](https://example.com)"))

	for _, want := range []string{`<h2 id="arrival-day">`, "<strong>private</strong>", `target="_blank"`} {
		if !strings.Contains(out, want) {
			t.Errorf("ToHTML() = %q, missing %q", out, want)
		}
	}
}

func TestToHTML_Sanitizes(t *testing.T) {
	tests := []string{
		"<script>alert(1)</script>",
		`<img src=x onerror="alert(1)">`,
		"[click](javascript:alert(1))",
	}
	for _, src := range tests {
		out := strings.ToLower(string(ToHTML(src)))
		if strings.Contains(out, "<script") || strings.Contains(out, "onerror") || strings.Contains(out, "javascript:") {
			t.Errorf("ToHTML(%q) = %q, unsafe output", src, out)
		}
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("# Title\n\nSome *emphasis* &amp; a [link](/x).")
	if got != "Title Some emphasis & a link." {
		t.Errorf("PlainText() = %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	src := "The Riviera in June is quieter than you think, with long evenings and warm seas."
	got := Excerpt(src, 30)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Excerpt() = %q, want ellipsis", got)
	}
	if strings.Contains(got, "thin") && !strings.Contains(got, "think") {
		t.Errorf("Excerpt() cut mid-word: %q", got)
	}
	if Excerpt("short", 30) != "short" {
		t.Error("short text should be returned unchanged")
	}
}
