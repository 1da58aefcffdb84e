package util

import (
	"strings"
	"testing"
)

func TestOwnerKey(t *testing.T) {
	id := "guest:12345"
	got := OwnerKey(id)
	if got != OwnerKey(id) {
		t.Fatalf("expected stable key, got %s", got)
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("key contains non-hex character: %c", ch)
		}
	}
	if OwnerKey("guest:12345") == OwnerKey("guest:12346") {
		t.Fatal("distinct identities must not collide")
	}
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "notes.pdf", want: "notes.pdf"},
		{name: "spaces", in: "my lecture notes.txt", want: "my_lecture_notes.txt"},
		{name: "separators", in: "a/b\\c.docx", want: "a_b_c.docx"},
		{name: "traversal", in: "../../etc/passwd", wantErr: true},
		{name: "control chars", in: "bad\x00name.txt", wantErr: true},
		{name: "empty", in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeFileName(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SafeFileName(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeFileName(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("SafeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	long := strings.Repeat("a", 200) + ".txt"
	got, err := SafeFileName(long)
	if err != nil {
		t.Fatalf("SafeFileName(long): %v", err)
	}
	if len(got) > 128 {
		t.Fatalf("expected capped length, got %d", len(got))
	}
	if !strings.HasSuffix(got, ".txt") {
		t.Fatalf("expected extension preserved, got %q", got)
	}
}
