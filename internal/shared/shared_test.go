package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHelpers(t *testing.T) {
	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == "" || b == "" {
			t.Fatal("expected non-empty IDs")
		}
		if a == b {
			t.Errorf("expected unique IDs, got %s twice", a)
		}
	})

	t.Run("GenerateState", func(t *testing.T) {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(state) < 40 {
			t.Errorf("expected at least 40 characters, got %d", len(state))
		}
		if strings.ContainsAny(state, "+/=") {
			t.Errorf("state should be URL safe, got %s", state)
		}
	})

	t.Run("NewLogger writes to writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "count", 3)

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "count=3") {
			t.Errorf("expected log output to contain key/value, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "spm.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("written")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written") {
			t.Errorf("expected log file to contain message, got %q", string(data))
		}
	})
}

func TestBrowserCommand(t *testing.T) {
	original := getRuntime
	t.Cleanup(func() { getRuntime = original })

	tt := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.goos, func(t *testing.T) {
			getRuntime = func() string { return tc.goos }
			cmd, err := browserCommand("https://example.com")
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error for unsupported platform")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if filepath.Base(cmd.Path) != tc.want && cmd.Args[0] != tc.want {
				t.Errorf("expected %s, got %s", tc.want, cmd.Args[0])
			}
			if last := cmd.Args[len(cmd.Args)-1]; last != "https://example.com" {
				t.Errorf("expected URL as last argument, got %s", last)
			}
		})
	}
}
