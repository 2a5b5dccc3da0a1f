package ui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var interaction struct {
	mu      sync.RWMutex
	decided bool
	allowed bool
}

// ConfigureInteraction decides whether prompts and colors are allowed
// and pins the lipgloss color profile accordingly. The CLI calls it
// once flags are parsed; calling it again re-decides.
func ConfigureInteraction(noInteraction bool) {
	allowed := promptsAllowed(noInteraction)

	interaction.mu.Lock()
	interaction.decided = true
	interaction.allowed = allowed
	interaction.mu.Unlock()

	if allowed {
		lipgloss.SetColorProfile(termenv.ColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// IsInteractive reports whether prompts may be shown. Before
// ConfigureInteraction has run it decides from the environment alone.
func IsInteractive() bool {
	interaction.mu.RLock()
	decided, allowed := interaction.decided, interaction.allowed
	interaction.mu.RUnlock()
	if decided {
		return allowed
	}

	ConfigureInteraction(false)

	interaction.mu.RLock()
	defer interaction.mu.RUnlock()
	return interaction.allowed
}

func IsNoInteraction() bool { return !IsInteractive() }

// promptsAllowed applies the opt-outs in order: the flag, the
// NO_INTERACTION and CI environment variables, dumb terminals, and
// finally whether stderr is attached to a terminal at all.
func promptsAllowed(noInteraction bool) bool {
	if noInteraction {
		return false
	}
	if envTruthy("NO_INTERACTION") || envTruthy("CI") {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func envTruthy(key string) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
