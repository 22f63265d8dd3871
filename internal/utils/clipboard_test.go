package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyToClipboard(t *testing.T) {
	// Test that the function doesn't panic with basic input
	err := CopyToClipboard(SysctlLine(65))

	// On CI or systems without clipboard, this may fail - that's expected
	if err != nil {
		t.Logf("Clipboard not available (expected in CI): %v", err)
	} else {
		t.Log("Clipboard copy succeeded")
	}
}

func TestSysctlLine(t *testing.T) {
	assert.Equal(t, "net.ipv4.ip_default_ttl = 65", SysctlLine(65))
	assert.Equal(t, "net.ipv4.ip_default_ttl = 128", SysctlLine(128))
}
