// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package shutdown turns operator input into context cancellation.
package shutdown

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// QuitCommand is the line that stops the bridge.
const QuitCommand = "q"

// WatchInput reads lines from r until ctx is done or r is exhausted and
// calls cancel when a line equals QuitCommand. Other lines are ignored.
// It returns true if the quit command was seen.
func WatchInput(ctx context.Context, r io.Reader, cancel context.CancelFunc, logger zerolog.Logger) bool {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			logger.Debug().Err(err).Msg("input closed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return false
		case line, ok := <-lines:
			if !ok {
				return false
			}
			if strings.TrimSpace(line) == QuitCommand {
				logger.Info().Msg("quit requested")
				cancel()
				return true
			}
			logger.Debug().Str("input", line).Msg("ignoring input")
		}
	}
}
