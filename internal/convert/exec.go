package convert

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// runTool executes an external tool with a bounded timeout. A timeout is
// reported the same way as a non-zero exit so callers treat both as build
// failures. Combined output is captured for debug logging and error detail.
func runTool(ctx context.Context, timeout time.Duration, dir string, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		logrus.Debugf("%s output:\n%s", name, strings.TrimSpace(string(output)))
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return output, fmt.Errorf("%s timed out after %s", name, timeout)
		}
		return output, fmt.Errorf("%s: %w: %s", name, err, firstLine(output))
	}
	return output, nil
}

// firstLine extracts a short diagnostic from tool output for error messages.
func firstLine(output []byte) string {
	text := strings.TrimSpace(string(output))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
