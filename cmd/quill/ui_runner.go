package main

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quill/internal/buildpipeline"
	"quill/internal/driver"
	"quill/internal/ui"
)

type runOutcome struct {
	result *driver.Result
	err    error
}

// runWithUI runs req while a progress view draws on stderr.
func runWithUI(ctx context.Context, title string, files []string, req driver.Request) (*driver.Result, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		req.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, req)
		close(events)
		outcomeCh <- runOutcome{result: res, err: err}
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// the view may quit early; keep the producer from blocking
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	return outcome.result, errors.Join(outcome.err, uiErr)
}

// runDriver runs req, with a progress view when s allows it.
func runDriver(ctx context.Context, s *settings, title string, req driver.Request) (*driver.Result, error) {
	files, err := driver.ExpandPaths(req.Paths)
	if err != nil {
		return nil, err
	}
	if shouldUseTUI(s.ui, s.quiet, len(files)) {
		return runWithUI(ctx, title, files, req)
	}
	return driver.Run(ctx, req)
}
