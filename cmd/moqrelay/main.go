// Command moqrelay is a minimal MoQT relay: it accepts client
// connections, lets any client ANNOUNCE a namespace, and authorizes any
// SUBSCRIBE against namespaces announced elsewhere on the relay. It
// demonstrates wiring the session/transport packages together the way
// cmd/prism wires its ingest/pipeline/distribution packages.
//
// Usage:
//
//	go run ./cmd/moqrelay
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/moqt/certs"
	"github.com/zsiec/moqt/session"
	"github.com/zsiec/moqt/trackname"
	"github.com/zsiec/moqt/transport"
	"github.com/zsiec/moqt/wire"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("generating self-signed certificate")
	cert, err := certs.Generate(14 * 24 * time.Hour)
	if err != nil {
		slog.Error("failed to generate cert", "error", err)
		os.Exit(1)
	}
	slog.Info("certificate generated",
		"fingerprint", cert.FingerprintBase64(),
		"expires", cert.NotAfter.Format(time.RFC3339),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	addr := envOr("MOQ_ADDR", ":4443")
	maxRequestID := envOrUint64("MOQ_MAX_REQUEST_ID", 1000)

	slog.Info("moqrelay starting", "version", version, "addr", addr, "cert_hash", cert.FingerprintBase64())

	ln, err := transport.Listen(addr, cert.TLSCert)
	if err != nil {
		slog.Error("failed to listen", "error", err)
		os.Exit(1)
	}
	defer ln.Close()

	r := newRelay(maxRequestID)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return r.acceptLoop(ctx, ln)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// relay tracks which namespaces have been announced across all connected
// sessions, so a SUBSCRIBE on one session can be authorized against an
// ANNOUNCE seen on another — the smallest useful policy a standalone
// relay can apply without any application-specific track semantics.
type relay struct {
	maxRequestID uint64

	mu        sync.Mutex
	announced map[uint64]trackname.Namespace
}

func newRelay(maxRequestID uint64) *relay {
	return &relay{maxRequestID: maxRequestID, announced: make(map[uint64]trackname.Namespace)}
}

func (r *relay) acceptLoop(ctx context.Context, ln *transport.Listener) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go r.serve(ctx, conn)
	}
}

func (r *relay) isAnnounced(ns trackname.Namespace) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, announced := range r.announced {
		if announced.HasSamePrefix(ns) {
			return true
		}
	}
	return false
}

func (r *relay) serve(ctx context.Context, conn transport.Connection) {
	cb := session.Callbacks{
		ConnectionStatusChanged: func(status session.ConnectionStatus, reason string) {
			slog.Debug("connection status changed", "status", status, "reason", reason)
		},
		NewConnection: func(connID, remoteAddr string) {
			slog.Info("new connection", "conn_id", connID, "remote", remoteAddr)
		},
		AnnounceReceived: func(ns trackname.Namespace) bool {
			r.mu.Lock()
			r.announced[ns.Hash()] = ns.Clone()
			r.mu.Unlock()
			slog.Info("announce received", "hash", ns.Hash())
			return true
		},
		UnannounceReceived: func(ns trackname.Namespace) {
			r.mu.Lock()
			delete(r.announced, ns.Hash())
			r.mu.Unlock()
			slog.Info("unannounce received", "hash", ns.Hash())
		},
		SubscribeReceived: func(sub wire.Subscribe) bool {
			ns := trackname.Namespace(sub.Namespace)
			ok := r.isAnnounced(ns)
			slog.Info("subscribe received", "hash", ns.Hash(), "authorized", ok)
			return ok
		},
		FetchReceived: func(f wire.Fetch) bool {
			ns := trackname.Namespace(f.Namespace)
			return r.isAnnounced(ns)
		},
	}

	s := session.New(conn, session.Config{
		Role:                session.RoleServer,
		InitialMaxRequestID: r.maxRequestID,
	}, cb)

	if err := s.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("session ended", "session", s.ID(), "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrUint64(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		slog.Warn("invalid env value, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return parsed
}
