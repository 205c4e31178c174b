// Package interaction drives the interactive resolution flow: it shows
// proposals, collects the user's choices, records decisions, and hands
// accepted proposals to the executor.
package interaction

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrCancelled marks a prompt interrupted by the user (Ctrl-C). The
// controller treats it as a clean cancellation, not a failure.
var ErrCancelled = errors.New("cancelled by user")

// Prompter is the input port the controller talks to. Tests inject a
// scripted implementation; the real one renders terminal prompts.
type Prompter interface {
	// Select shows a single-choice menu and returns the chosen index.
	Select(message string, options []string) (int, error)

	// MultiSelect shows a multi-choice menu and returns chosen indices.
	MultiSelect(message string, options []string) ([]int, error)

	// Input reads one free-form line.
	Input(message string) (string, error)
}

type surveyPrompter struct{}

// NewPrompter returns the terminal-backed Prompter.
func NewPrompter() Prompter {
	return surveyPrompter{}
}

func (surveyPrompter) Select(message string, options []string) (int, error) {
	var idx int
	err := survey.AskOne(&survey.Select{Message: message, Options: options}, &idx)
	return idx, mapInterrupt(err)
}

func (surveyPrompter) MultiSelect(message string, options []string) ([]int, error) {
	var indices []int
	err := survey.AskOne(&survey.MultiSelect{Message: message, Options: options}, &indices)
	return indices, mapInterrupt(err)
}

func (surveyPrompter) Input(message string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message}, &answer)
	return answer, mapInterrupt(err)
}

func mapInterrupt(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrCancelled
	}
	return err
}
