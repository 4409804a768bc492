package cli

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWrapLineKeepsWords(t *testing.T) {
	lines := wrapLine("the quick brown fox jumps over the lazy dog", 15)
	for _, l := range lines {
		if len(l) > 15 {
			t.Errorf("line too long: %q", l)
		}
	}
	if got := strings.Join(lines, " "); got != "the quick brown fox jumps over the lazy dog" {
		t.Errorf("wrapLine lost words: %q", got)
	}
}

func TestTermuxTakeNamesAreDistinct(t *testing.T) {
	dir := t.TempDir()
	rec := NewTermuxRecorder()
	rec.clock = func() time.Time {
		return time.Date(2025, 6, 1, 10, 30, 45, 0, time.UTC)
	}

	first := rec.nextTakeName(dir)
	if first != "REC_20250601_103045.m4a" {
		t.Errorf("first name = %q", first)
	}
	if err := os.WriteFile(filepath.Join(dir, first), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if second := rec.nextTakeName(dir); second != "REC_20250601_103045_2.m4a" {
		t.Errorf("second name = %q", second)
	}
}

func TestTermuxReviewAccept(t *testing.T) {
	var out bytes.Buffer
	rec := &TermuxRecorder{Out: &out, clock: time.Now}

	accepted, err := rec.reviewLoop(bufio.NewReader(strings.NewReader("a\n")), "take.m4a")
	if err != nil {
		t.Fatalf("reviewLoop: %v", err)
	}
	if !accepted {
		t.Error("'a' should accept the take")
	}

	accepted, err = rec.reviewLoop(bufio.NewReader(strings.NewReader("x\nr\n")), "take.m4a")
	if err != nil {
		t.Fatalf("reviewLoop: %v", err)
	}
	if accepted {
		t.Error("'r' should reject the take")
	}
}

func TestRootCommandLoadsConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MANIM_RECORDER_CACHE_DIR", filepath.Join(t.TempDir(), "takes"))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version", "--log-path", t.TempDir()})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "manim-recorder") {
		t.Errorf("version output = %q", out.String())
	}
}
