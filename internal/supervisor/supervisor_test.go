// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package supervisor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gps2mqtt/internal/serialport"
)

type readStep struct {
	data string
	err  error
}

// fakePort replays scripted reads, then calls onDrain once and reports idle.
type fakePort struct {
	steps   []readStep
	onDrain func()
	written bytes.Buffer
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.steps) == 0 {
		if p.onDrain != nil {
			p.onDrain()
			p.onDrain = nil
		}
		return 0, io.EOF
	}
	st := p.steps[0]
	p.steps = p.steps[1:]
	n := copy(b, st.data)
	return n, st.err
}

func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

type openResult struct {
	port *fakePort
	err  error
}

type scriptedOpener struct {
	results []openResult
	calls   int
}

func (o *scriptedOpener) Open() (serialport.Port, error) {
	o.calls++
	if len(o.results) == 0 {
		return nil, errors.New("no device")
	}
	r := o.results[0]
	o.results = o.results[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.port, nil
}

type recordingHandler struct {
	lines  []string
	resets int
}

func (h *recordingHandler) Feed(line string) { h.lines = append(h.lines, line) }
func (h *recordingHandler) Reset()           { h.resets++ }

func testOptions() Options {
	opts := DefaultOptions()
	opts.IdlePause = 0
	return opts
}

func newTestSupervisor(opener Opener, opts Options) (*Supervisor, *recordingHandler, *[]time.Duration) {
	h := &recordingHandler{}
	s := New(opener, h, opts, zerolog.Nop())
	var sleeps []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return s, h, &sleeps
}

func TestRunReadsLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := &fakePort{
		steps: []readStep{
			{data: "$GPVTG,1*00\r\n$GP"},
			{data: "GGA,2*00\r\n"},
			{data: "$GPA"},
			{err: io.EOF},
			{err: os.ErrDeadlineExceeded},
			{data: "BC\r\n"},
		},
		onDrain: cancel,
	}
	s, h, sleeps := newTestSupervisor(&scriptedOpener{results: []openResult{{port: port}}}, testOptions())

	require.NoError(t, s.Run(ctx))

	assert.Equal(t, []string{"$GPVTG,1*00", "$GPGGA,2*00", "$GPABC"}, h.lines)
	assert.Empty(t, *sleeps)
	assert.Zero(t, h.resets)
	assert.True(t, port.closed)
	assert.Equal(t, StateDisconnected, s.State())
	assert.False(t, s.Connected())
	assert.False(t, s.LastLine().IsZero())
}

func TestRunInitialOpenFailure(t *testing.T) {
	opener := &scriptedOpener{results: []openResult{{err: errors.New("no such file")}}}
	s, _, sleeps := newTestSupervisor(opener, testOptions())

	err := s.Run(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "no such file")
	assert.Equal(t, 1, opener.calls)
	assert.Empty(t, *sleeps)
}

func TestReconnectEscalatesAfterThreshold(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &fakePort{steps: []readStep{{data: "$GPVTG,1*00\n"}, {err: errors.New("device disconnected")}}}
	var s *Supervisor
	second := &fakePort{
		steps: []readStep{{data: "$GPVTG,2*00\n"}},
		onDrain: func() {
			assert.Equal(t, StateOpen, s.State())
			assert.True(t, s.Connected())
			cancel()
		},
	}
	opener := &scriptedOpener{results: []openResult{
		{port: first},
		{err: errors.New("gone")},
		{err: errors.New("gone")},
		{err: errors.New("gone")},
		{port: second},
	}}
	opts := testOptions()
	opts.HighRate = true
	s, h, sleeps := newTestSupervisor(opener, opts)

	require.NoError(t, s.Run(ctx))

	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second, 10 * time.Second}, *sleeps)
	assert.Equal(t, 0, s.Failures())
	assert.Equal(t, 5, opener.calls)
	assert.Equal(t, 1, h.resets)
	assert.Equal(t, []string{"$GPVTG,1*00", "$GPVTG,2*00"}, h.lines)
	assert.True(t, first.closed)
	assert.True(t, second.closed)
	assert.Equal(t, serialport.UBXRate10Hz, first.written.Bytes())
	assert.Equal(t, serialport.UBXRate10Hz, second.written.Bytes())
}

func TestFailureCountRestartsAfterLongDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &fakePort{steps: []readStep{{err: errors.New("device disconnected")}}}
	opener := &scriptedOpener{results: []openResult{{port: first}}}
	s, _, sleeps := newTestSupervisor(opener, testOptions())
	s.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		if len(*sleeps) == 6 {
			cancel()
		}
		return ctx.Err()
	}

	require.NoError(t, s.Run(ctx))

	assert.Equal(t, []time.Duration{
		time.Second,
		time.Second, time.Second, 10 * time.Second,
		time.Second, time.Second,
	}, *sleeps)
	assert.Equal(t, 2, s.Failures())
	assert.Equal(t, StateDisconnected, s.State())
}

func TestCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &fakePort{steps: []readStep{{err: errors.New("device disconnected")}}}
	opener := &scriptedOpener{results: []openResult{{port: first}}}
	s, _, _ := newTestSupervisor(opener, testOptions())
	s.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 1, opener.calls)
	assert.True(t, first.closed)
}

func TestInstantEmptyReadsReconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// An unplugged USB adapter keeps returning (0, io.EOF) without waiting.
	first := &fakePort{steps: []readStep{{data: "$GPVTG,1*00\n"}}}
	second := &fakePort{steps: []readStep{{data: "$GPVTG,2*00\n"}}, onDrain: cancel}
	opener := &scriptedOpener{results: []openResult{{port: first}, {port: second}}}
	s, h, sleeps := newTestSupervisor(opener, testOptions())

	require.NoError(t, s.Run(ctx))

	assert.Equal(t, 2, opener.calls)
	assert.Equal(t, []time.Duration{time.Second}, *sleeps)
	assert.Equal(t, 1, h.resets)
	assert.Equal(t, []string{"$GPVTG,1*00", "$GPVTG,2*00"}, h.lines)
	assert.True(t, first.closed)
}

func TestEmptyReadsAfterTimeoutAreIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eof := readStep{err: io.EOF}
	port := &fakePort{
		steps:   []readStep{eof, eof, eof, eof, eof, {data: "$GPVTG,1*00\n"}},
		onDrain: cancel,
	}
	opener := &scriptedOpener{results: []openResult{{port: port}}}
	s, h, sleeps := newTestSupervisor(opener, testOptions())
	clock := time.Unix(0, 0)
	s.now = func() time.Time {
		clock = clock.Add(3 * time.Second)
		return clock
	}

	require.NoError(t, s.Run(ctx))

	assert.Equal(t, 1, opener.calls)
	assert.Empty(t, *sleeps)
	assert.Zero(t, h.resets)
	assert.Equal(t, []string{"$GPVTG,1*00"}, h.lines)
}

func TestBlockingReadsTreatEveryEmptyReadAsHangup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &fakePort{steps: []readStep{{err: io.EOF}}}
	second := &fakePort{onDrain: cancel}
	opener := &scriptedOpener{results: []openResult{{port: first}, {port: second}}}
	opts := testOptions()
	opts.ReadTimeout = 0
	opts.HangupReads = 1
	s, h, sleeps := newTestSupervisor(opener, opts)

	require.NoError(t, s.Run(ctx))

	// The drained second port hangs up as well; cancellation ends the backoff.
	assert.Equal(t, 2, opener.calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, *sleeps)
	assert.Equal(t, 2, h.resets)
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestIdlePauseAfterEmptyRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := &fakePort{
		steps:   []readStep{{data: "$GPA"}, {err: io.EOF}, {data: "BC\n"}},
		onDrain: cancel,
	}
	opts := testOptions()
	opts.IdlePause = 10 * time.Millisecond
	s, h, sleeps := newTestSupervisor(&scriptedOpener{results: []openResult{{port: port}}}, opts)

	require.NoError(t, s.Run(ctx))

	assert.Equal(t, []string{"$GPABC"}, h.lines)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, *sleeps)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestLineReaderDropsOverlongInput(t *testing.T) {
	long := bytes.Repeat([]byte("x"), maxLineLength+1)
	r := newLineReader(io.MultiReader(bytes.NewReader(long), bytes.NewReader([]byte("$GPVTG*00\n"))), time.Now)

	_, err := r.ReadLine()
	require.ErrorIs(t, err, errLineTooLong)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "$GPVTG*00", line)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
	assert.Equal(t, "disconnected", StateDisconnected.String())
}
