package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/latosol/latosol/internal/logger"
	"github.com/latosol/latosol/internal/telemetry"
	"github.com/latosol/latosol/internal/tlsconf"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultHost is the IPv6 loopback address the server binds when Config.Host is empty.
const DefaultHost = "::1"

const (
	acceptRetryInitial = 5 * time.Millisecond
	acceptRetryMax     = time.Second
)

// Config holds the listener settings.
type Config struct {
	// Host is the address to bind. Default: ::1
	Host string

	// Port is the TCP port. Zero asks the kernel for a free port.
	Port uint16

	// HandshakeTimeout bounds each TLS handshake. Zero means no limit.
	HandshakeTimeout time.Duration
}

// Server accepts TCP connections, terminates TLS and passes each established
// connection to a Handler on its own goroutine.
type Server struct {
	port             uint16
	listener         net.Listener
	tlsConfig        *tls.Config
	handshakeTimeout time.Duration
	metrics          *telemetry.Metrics
	closed           atomic.Bool
	conns            sync.WaitGroup
}

// Bind builds the TLS configuration from creds and binds the listener.
// Invalid credentials are reported as *BadTLSParamsError and a listener that
// cannot be bound as *BindError; neither is retried.
func Bind(cfg Config, creds *tlsconf.Credentials) (*Server, error) {
	tlsConfig, err := newTLSConfig(creds)
	if err != nil {
		return nil, &BadTLSParamsError{Err: err}
	}

	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(int(cfg.Port))))
	if err != nil {
		return nil, &BindError{Port: cfg.Port, Err: err}
	}

	port := cfg.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = uint16(addr.Port) // #nosec G115 - TCP ports fit in 16 bits
	}

	return &Server{
		port:             port,
		listener:         ln,
		tlsConfig:        tlsConfig,
		handshakeTimeout: cfg.HandshakeTimeout,
		metrics:          telemetry.GetMetrics(),
	}, nil
}

// newTLSConfig returns the server configuration shared by every connection.
// It must not be modified after Bind returns.
func newTLSConfig(creds *tlsconf.Credentials) (*tls.Config, error) {
	if creds == nil {
		return nil, errors.New("no credentials")
	}

	cert, err := creds.TLSCertificate()
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.NoClientCert,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Port returns the bound port, resolved when Config.Port was zero.
func (s *Server) Port() uint16 {
	return s.port
}

// Close stops accepting new connections. Connections already handed to a
// handler keep running until their handler returns.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.listener.Close()
}

// Listen runs the accept loop, serving each connection with handler. A failed
// accept is logged and retried after a short backoff; it never ends the loop.
// Listen returns nil only after ctx is cancelled or Close is called, and once
// every established connection's handler has returned. Cancelling ctx aborts
// pending handshakes but not running handlers.
func (s *Server) Listen(ctx context.Context, handler Handler) error {
	log.Info().
		Uint16("port", s.port).
		Str("addr", s.listener.Addr().String()).
		Msg("Server listening")

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = acceptRetryInitial
	retry.MaxInterval = acceptRetryMax

	for {
		raw, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				log.Info().Uint16("port", s.port).Msg("Server stopped accepting connections")
				s.conns.Wait()
				return nil
			}

			delay := retry.NextBackOff()
			s.metrics.AcceptErrorsTotal.Add(ctx, 1)
			log.Error().Err(err).Dur("retry_in", delay).Msg("Failed to establish incoming connection")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}

		retry.Reset()
		s.metrics.ConnectionsAcceptedTotal.Add(ctx, 1)

		s.conns.Go(func() { s.serveConn(ctx, raw, handler) })
	}
}

// serveConn owns raw for its whole life: handshake, handler, close.
func (s *Server) serveConn(ctx context.Context, raw net.Conn, handler Handler) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	peer := raw.RemoteAddr()

	lg := logger.ForConnection(log.Logger, id, peer)
	ctx = lg.WithContext(ctx)

	ctx, span := telemetry.Tracer().Start(ctx, "latosol.connection",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("network.peer.address", peer.String()),
			attribute.String("latosol.connection.id", id.String()),
		),
	)
	defer span.End()

	lg.Debug().Stringer("state", StateAccepted).Msg("Established connection")

	tlsConn := tls.Server(raw, s.tlsConfig)

	started := time.Now()
	lg.Debug().Stringer("state", StateHandshaking).Msg("Starting TLS handshake")

	if err := s.handshake(ctx, tlsConn); err != nil {
		s.metrics.HandshakeFailuresTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handshake failed")
		lg.Warn().Err(err).Stringer("state", StateHandshakeFailed).Msg("TLS handshake failed")
		_ = raw.Close()
		return
	}

	s.metrics.HandshakeDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000)

	conn := newConnection(id, peer, tlsConn)
	state := conn.ConnectionState()
	lg.Debug().
		Stringer("state", StateEstablished).
		Str("tls_version", tls.VersionName(state.Version)).
		Str("cipher_suite", tls.CipherSuiteName(state.CipherSuite)).
		Msg("TLS session established")

	// The handler outlives cancellation of the accept loop.
	ctx = context.WithoutCancel(ctx)

	s.metrics.ActiveConnections.Add(ctx, 1)
	err = runHandler(ctx, handler, conn)
	s.metrics.ActiveConnections.Add(ctx, -1)

	if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		lg.Debug().Err(cerr).Msg("Failed to close connection")
	}

	if err != nil {
		s.metrics.HandlerErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")

		ev := lg.Error().Err(err)
		if pe := (*PanicError)(nil); errors.As(err, &pe) {
			ev = ev.Str("stack", string(pe.Stack))
		}
		ev.Stringer("state", StateClosed).Msg("Connection handler failed")
		return
	}

	lg.Debug().Stringer("state", StateClosed).Msg("Connection closed")
}

func (s *Server) handshake(ctx context.Context, conn *tls.Conn) error {
	if s.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.handshakeTimeout)
		defer cancel()
	}
	return conn.HandshakeContext(ctx)
}

// runHandler converts a handler panic into a *PanicError outcome.
func runHandler(ctx context.Context, handler Handler, conn *Connection) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return handler.Handle(ctx, conn)
}

// Logger returns the connection-scoped logger carried by a handler context.
func Logger(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
