package util

import (
	"errors"
	"strings"
	"testing"
)

func TestDescriptorError(t *testing.T) {
	err := NewDescriptorError("t1net-3", "missing endpoints")

	msg := err.Error()
	if !strings.Contains(msg, "t1net-3") {
		t.Errorf("message should name the link: %s", msg)
	}
	if !strings.Contains(msg, "missing endpoints") {
		t.Errorf("message should carry the reason: %s", msg)
	}
	if !errors.Is(err, ErrInvalidTopology) {
		t.Error("DescriptorError should unwrap to ErrInvalidTopology")
	}
}

func TestValidationError(t *testing.T) {
	single := NewValidationError("links is required")
	if got := single.Error(); got != "validation failed: links is required" {
		t.Errorf("single message = %q", got)
	}

	multi := NewValidationError("links is required", "unknown driver \"ovs\"")
	msg := multi.Error()
	if !strings.Contains(msg, "links is required") || !strings.Contains(msg, "unknown driver") {
		t.Errorf("multi message = %q", msg)
	}
	if !errors.Is(multi, ErrInvalidTopology) {
		t.Error("ValidationError should unwrap to ErrInvalidTopology")
	}
}
