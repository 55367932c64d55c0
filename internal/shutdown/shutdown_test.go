// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package shutdown

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWatchInputQuit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := WatchInput(ctx, strings.NewReader("status\n  q \nmore\n"), cancel, zerolog.Nop())

	assert.True(t, quit)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestWatchInputIgnoresOtherLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := WatchInput(ctx, strings.NewReader("quit\nQ\nqq\n"), cancel, zerolog.Nop())

	assert.False(t, quit)
	assert.NoError(t, ctx.Err())
}

func TestWatchInputStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r, w := io.Pipe()
	defer w.Close()

	done := make(chan bool)
	go func() { done <- WatchInput(ctx, r, cancel, zerolog.Nop()) }()

	select {
	case quit := <-done:
		assert.False(t, quit)
	case <-time.After(time.Second):
		t.Fatal("WatchInput did not return after the context expired")
	}
}
