package web

import (
	"bytes"
	"strings"
	"testing"
)

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	for _, name := range []string{
		"index.html", "login.html", "register.html", "dashboard.html", "create_survey.html",
		"take_survey.html", "survey_complete.html", "insights.html", "not_found.html", "error.html",
	} {
		if tmpl.Lookup(name) == nil {
			t.Errorf("template %s is missing", name)
		}
	}
}

func TestNotFoundRendersFlashes(t *testing.T) {
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	var buf bytes.Buffer
	data := map[string]any{"Title": "Not found", "Flashes": []string{"<b>careful</b>"}, "Message": "Survey not found"}
	if err := tmpl.ExecuteTemplate(&buf, "not_found.html", data); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Survey not found") || !strings.Contains(out, "&lt;b&gt;careful&lt;/b&gt;") {
		t.Fatalf("unexpected output: %s", out)
	}
}
