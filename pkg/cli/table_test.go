package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableHeadersAndRows(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableTo(&buf, "DEVICE", "STATE")
	table.Row("t1_r1", "running")
	table.Row("t1_r2", "stopped")
	table.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + divider + 2 rows:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "DEVICE") || !strings.Contains(lines[0], "STATE") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "------") {
		t.Errorf("divider line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "t1_r1") {
		t.Errorf("first row = %q", lines[2])
	}
}

func TestTableEmptyProducesNoOutput(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableTo(&buf, "DEVICE", "STATE")
	table.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q", buf.String())
	}
}

func TestTableWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableTo(&buf, "A", "B").WithPrefix("  ")
	table.Row("1", "2")
	table.Flush()

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("line missing prefix: %q", line)
		}
	}
}
