package cmd

import (
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"
)

// copyText writes text to the system clipboard and prints ack. Failures are
// only logged; the acknowledgment is shown either way.
func copyText(text, ack string) {
	if err := clipboard.WriteAll(text); err != nil {
		slog.Debug("Clipboard write failed", "error", err)
	}
	fmt.Println(successStyle.Render("✓ " + ack))
}
