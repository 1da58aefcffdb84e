package prompts

import (
	"strings"
	"testing"
)

func TestRenderIncludesSourceText(t *testing.T) {
	r := MustNewRegistry()

	out, err := r.Render("task/summary", map[string]string{"SourceText": "photosynthesis overview"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "photosynthesis overview") {
		t.Fatalf("rendered prompt missing source text:\n%s", out)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := MustNewRegistry()

	if _, err := r.Render("task/nonexistent", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRenderToolParameters(t *testing.T) {
	r := MustNewRegistry()

	out, err := r.Render("tool/flashcards", map[string]string{
		"SourceText": "cell biology notes",
		"NumCards":   "25",
		"Difficulty": "hard",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"25 flashcards", "hard difficulty", "cell biology notes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered prompt missing %q:\n%s", want, out)
		}
	}
}

func TestRenderToolParameterDefaults(t *testing.T) {
	r := MustNewRegistry()

	out, err := r.Render("tool/flashcards", map[string]string{"SourceText": "notes"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "10 flashcards") {
		t.Fatalf("default NumCards not applied:\n%s", out)
	}
}

func TestAllBuiltinsRender(t *testing.T) {
	r := MustNewRegistry()

	for id := range builtin {
		out, err := r.Render(id, map[string]string{"SourceText": "sample"})
		if err != nil {
			t.Fatalf("render %s: %v", id, err)
		}
		if strings.TrimSpace(out) == "" {
			t.Fatalf("render %s produced empty prompt", id)
		}
	}
}
