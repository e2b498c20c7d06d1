package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"crossgen/internal/driver"
	"crossgen/internal/ui"
)

type passOutcome[T any] struct {
	result T
	err    error
}

// runWithProgress runs fn in the background while a Bubble Tea program
// renders its pass events on stderr.
func runWithProgress[T any](title string, passes []string, fn func(sink driver.ProgressSink) (T, error)) (T, error) {
	events := make(chan driver.ProgressEvent, 256)
	outcomeCh := make(chan passOutcome[T], 1)

	go func() {
		res, err := fn(driver.ChannelSink{Ch: events})
		outcomeCh <- passOutcome[T]{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, passes, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// the program may quit early (ctrl+c); keep the passes unblocked
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
