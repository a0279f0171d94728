// Package detector chooses how run and watch present their progress.
package detector

import (
	"os"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// OutputMode is the way build progress is shown.
type OutputMode int

const (
	// ModeAuto picks the mode from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI shows the interactive task list.
	ModeTUI
	// ModeLinear prints one line per event.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// DetectEnvironment picks the interactive mode only when both stdout and stderr are
// terminals and CI is not set to "true" or "1".
func DetectEnvironment() OutputMode {
	return detect(
		term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stderr.Fd())),
		os.Getenv("CI"),
	)
}

func detect(interactive bool, ci string) OutputMode {
	if !interactive || ci == "true" || ci == "1" {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies the --output-mode flag to the detected mode.
// "ci" is accepted as another name for "linear".
func ResolveMode(detected OutputMode, flag string) (OutputMode, error) {
	switch flag {
	case "", "auto":
		return detected, nil
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	default:
		return detected, zerr.With(domain.ErrUnknownOutputMode, "mode", flag)
	}
}
