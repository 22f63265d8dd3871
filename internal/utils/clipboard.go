package utils

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// CopyToClipboard copies text to the system clipboard
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	return clipboard.WriteAll(text)
}

// SysctlLine returns the sysctl.conf line that pins the default TTL
func SysctlLine(ttl int) string {
	return fmt.Sprintf("net.ipv4.ip_default_ttl = %d", ttl)
}
