package cli

import (
	"strings"
	"testing"
)

func TestColorWrapping(t *testing.T) {
	old := colorEnabled
	defer func() { colorEnabled = old }()

	colorEnabled = true
	tests := []struct {
		fn   func(string) string
		code string
	}{
		{Green, "\033[32m"},
		{Yellow, "\033[33m"},
		{Red, "\033[31m"},
	}
	for _, tt := range tests {
		got := tt.fn("ok")
		if !strings.HasPrefix(got, tt.code) || !strings.HasSuffix(got, "\033[0m") {
			t.Errorf("colored output = %q, want wrapped in %q", got, tt.code)
		}
	}

	colorEnabled = false
	if got := Green("ok"); got != "ok" {
		t.Errorf("NO_COLOR output = %q, want bare string", got)
	}
}
