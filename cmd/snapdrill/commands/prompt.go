package commands

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// promptChoice prints a numbered list and reads the operator's pick. Used by
// commands run without enough flags to resolve their target unattended.
func promptChoice(in io.Reader, out io.Writer, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("nothing to choose from")
	}

	fmt.Fprintln(out, title)
	for i, opt := range options {
		fmt.Fprintf(out, "  %d. %s\n", i+1, opt)
	}
	fmt.Fprintf(out, "Enter a number (1-%d): ", len(options))

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("failed to read selection: %w", err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(options) {
		return 0, fmt.Errorf("invalid selection %q", strings.TrimSpace(line))
	}
	return n - 1, nil
}
