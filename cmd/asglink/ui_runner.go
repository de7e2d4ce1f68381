package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"asglink/internal/driver"
	"asglink/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

type linkOutcome struct {
	code driver.ErrorCode
	err  error
}

// runLinkWithUI links on a second goroutine while the progress model reads
// the driver's events.
func runLinkWithUI(ctx context.Context, title string, inputs []string, opts driver.Options) (*driver.Driver, driver.ErrorCode, error) {
	events := make(chan driver.Event, 256)
	opts.Sink = driver.ChannelSink{Ch: events}
	d := driver.New(opts)
	outcomeCh := make(chan linkOutcome, 1)

	go func() {
		code, err := d.Link(ctx, inputs)
		outcomeCh <- linkOutcome{code: code, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, inputs, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the driver from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return d, outcome.code, uiErr
	}
	return d, outcome.code, outcome.err
}
