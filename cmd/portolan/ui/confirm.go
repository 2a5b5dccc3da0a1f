package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// NoInteractionError is returned when a prompt is needed but the
// terminal is non-interactive. Hint tells the user how to bypass the
// prompt (e.g. "use --yes to skip").
type NoInteractionError struct {
	Hint string
}

func (e *NoInteractionError) Error() string {
	if e.Hint == "" {
		return "interactive terminal required"
	}
	return "interactive terminal required (" + e.Hint + ")"
}

// Confirm asks a yes/no question on stderr and reads the answer from
// stdin. The default answer is no.
func Confirm(question, bypassHint string) (bool, error) {
	if IsNoInteraction() {
		return false, &NoInteractionError{Hint: bypassHint}
	}

	fmt.Fprintf(os.Stderr, "%s %s [y/N] ", accentStyle.Render("?"), question)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
