// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package monitor serves the bridge's health, last published values and
// a live websocket feed over HTTP.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/gps2mqtt/internal/publish"
	"github.com/relabs-tech/gps2mqtt/internal/supervisor"
)

// Link reports the serial connection. *supervisor.Supervisor implements it.
type Link interface {
	State() supervisor.State
	Failures() int
	Connected() bool
	LastLine() time.Time
}

// Counters reports pipeline throughput. *bridge.Pipeline implements it.
type Counters interface {
	Sentences() uint64
	Dropped() uint64
}

type Server struct {
	cache    *publish.Cache
	link     Link
	counters Counters
	hub      *hub
	logger   zerolog.Logger
	started  time.Time
	mux      *http.ServeMux
}

// Status is the /api/status document.
type Status struct {
	State           string `json:"state,omitempty"`
	Connected       bool   `json:"connected"`
	Failures        int    `json:"failures"`
	Sentences       uint64 `json:"sentences"`
	Dropped         uint64 `json:"dropped"`
	Topics          int    `json:"topics"`
	Clients         int    `json:"websocket_clients"`
	LastLine        string `json:"last_line"`
	LastUpdate      string `json:"last_update"`
	Started         string `json:"started"`
	SentencesPretty string `json:"sentences_text"`
}

// New builds the server and subscribes it to cache updates. link and
// counters may be nil.
func New(cache *publish.Cache, link Link, counters Counters, logger zerolog.Logger) *Server {
	s := &Server{
		cache:    cache,
		link:     link,
		counters: counters,
		hub:      newHub(logger),
		logger:   logger,
		started:  time.Now(),
		mux:      http.NewServeMux(),
	}
	cache.OnPublish(s.hub.broadcast)

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/telemetry", s.handleTelemetry)
	s.mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		s.hub.serve(w, r, s.updates)
	})
	s.mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("monitor listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.link != nil && !s.link.Connected() {
		http.Error(w, "serial "+s.link.State().String(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := Status{
		Topics:     len(s.cache.Snapshot()),
		Clients:    s.hub.count(),
		LastUpdate: since(s.cache.LastUpdate()),
		Started:    humanize.Time(s.started),
	}
	if s.link != nil {
		st.State = s.link.State().String()
		st.Connected = s.link.Connected()
		st.Failures = s.link.Failures()
		st.LastLine = since(s.link.LastLine())
	}
	if s.counters != nil {
		st.Sentences = s.counters.Sentences()
		st.Dropped = s.counters.Dropped()
		st.SentencesPretty = humanize.Comma(int64(st.Sentences))
	}
	s.writeJSON(w, st)
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.cache.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("json encode error")
	}
}

// updates renders the snapshot as updates sorted by topic.
func (s *Server) updates() []publish.Update {
	snap := s.cache.Snapshot()
	out := make([]publish.Update, 0, len(snap))
	for topic, payload := range snap {
		out = append(out, publish.Update{Topic: topic, Payload: payload})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

func since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
