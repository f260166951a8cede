package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
	"github.com/rocketscienceinc/countnet-backend/internal/usecase"
)

const (
	eventQueueSize = 1024
	maxLineSize    = 64 * 1024

	errorMessage      = "An error occured, sorry."
	noIdentityMessage = "Error: No remote address found"
)

type gameManager interface {
	MakeMove(identity string, n int) (int, error)
	Last() (int, string)
	History(page int) usecase.HistoryReport
	Score(identity string) usecase.ScoreReport
	Top() []entity.Player
}

type eventKind int

const (
	eventConnect eventKind = iota
	eventLine
)

type event struct {
	kind    eventKind
	session *Session
	line    string
}

type Server struct {
	logger   *slog.Logger
	game     gameManager
	registry *Registry

	handlers map[string]handlerFunc
	events   chan event

	identify func(conn net.Conn) (string, error)
}

func New(logger *slog.Logger, game gameManager) *Server {
	server := &Server{
		logger:   logger.With("component", "tcp_server"),
		game:     game,
		registry: NewRegistry(),

		handlers: make(map[string]handlerFunc),
		events:   make(chan event, eventQueueSize),

		identify: remoteHost,
	}

	server.registerHandlers()

	return server
}

func (that *Server) Registry() *Registry {
	return that.registry
}

// Start - listens on addr and serves connections until ctx is done.
func (that *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return that.Serve(ctx, listener)
}

// Serve - accepts connections from listener. The listener is closed when ctx is done.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr().String())

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		that.dispatch(ctx)
	}()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
		that.registry.CloseAll()
	}()

	log.Info("TCP server is listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				log.Info("TCP server stopped")
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Warn("temporary accept error", "error", err)
				continue
			}

			return fmt.Errorf("failed to accept connection: %w", err)
		}

		go that.handleConnection(ctx, conn)
	}
}

// handleConnection - registers the peer and forwards its lines to the dispatcher.
func (that *Server) handleConnection(ctx context.Context, conn net.Conn) {
	log := that.logger.With("method", "handleConnection")

	identity, err := that.identify(conn)
	if err != nil || identity == "" {
		log.Warn("rejecting connection without identity", "error", err)
		_, _ = conn.Write([]byte(noIdentityMessage + lineEnding))
		_ = conn.Close()
		return
	}

	session := newSession(conn, identity)
	log = log.With("session", session.ID, "identity", identity)

	if err = that.registry.Register(session); err != nil {
		log.Error("failed to register session", "error", err)
		_ = conn.Close()
		return
	}

	defer func() {
		that.registry.Unregister(session)
		session.Close()
		log.Info("connection closed")
	}()

	go session.writeLoop(that.logger)

	log.Info("connection established")

	if !that.enqueue(ctx, event{kind: eventConnect, session: session}) {
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if !that.enqueue(ctx, event{kind: eventLine, session: session, line: line}) {
			return
		}
	}

	if err = scanner.Err(); err != nil && !session.IsClosed() {
		log.Warn("failed to read from connection", "error", err)
	}
}

func (that *Server) enqueue(ctx context.Context, ev event) bool {
	select {
	case that.events <- ev:
		return true
	case <-ev.session.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// dispatch - processes events one at a time so game state changes are serialized.
func (that *Server) dispatch(ctx context.Context) {
	for {
		select {
		case ev := <-that.events:
			that.process(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (that *Server) process(ev event) {
	log := that.logger.With("method", "process", "session", ev.session.ID, "identity", ev.session.Identity)

	if ev.session.IsClosed() || ev.session.isFinishing() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic while handling input", "panic", r)
			that.abort(ev.session)
		}
	}()

	var err error

	switch ev.kind {
	case eventConnect:
		err = that.handleWelcome(ev.session)
	case eventLine:
		err = that.handleLine(ev.session, ev.line)
	}

	if err != nil {
		log.Error("failed to handle input", "line", ev.line, "error", err)
		that.abort(ev.session)
	}
}

// abort - apologizes to the peer and drops it after the apology is written.
func (that *Server) abort(session *Session) {
	session.Send(errorMessage)
	session.Finish()
	that.registry.Unregister(session)
}

func remoteHost(conn net.Conn) (string, error) {
	addr := conn.RemoteAddr()
	if addr == nil {
		return "", apperror.ErrNoIdentity
	}

	raw := addr.String()
	if raw == "" {
		return "", apperror.ErrNoIdentity
	}

	host, _, err := net.SplitHostPort(raw)
	if err != nil {
		return raw, nil
	}

	if host == "" {
		return "", apperror.ErrNoIdentity
	}

	return host, nil
}
