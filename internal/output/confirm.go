package output

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PromptConfirmer asks a yes/no question on a line-oriented terminal. Anything
// other than y or yes, including end of input, is a no.
type PromptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

// NewPromptConfirmer reads answers from in. With assumeYes set it never prompts.
func NewPromptConfirmer(in io.Reader, out io.Writer, assumeYes bool) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (c *PromptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.assumeYes {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
