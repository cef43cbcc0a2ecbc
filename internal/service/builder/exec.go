package builder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// maxOutputTail bounds how much toolchain output gets folded into errors.
const maxOutputTail = 2048

// execRunner runs toolchain commands as real processes.
type execRunner struct{}

// Run executes the command and folds the output tail into the error on
// failure, which is usually where compilers put the interesting part.
func (execRunner) Run(ctx context.Context, dir, name string, args, env []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, outputTail(output))
	}

	return nil
}

// outputTail returns the trailing part of combined output for error messages.
func outputTail(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) > maxOutputTail {
		s = "..." + s[len(s)-maxOutputTail:]
	}

	return s
}
