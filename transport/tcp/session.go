package tcp

import (
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	lineEnding        = "\r\n"
	outgoingQueueSize = 256
)

// Session is one connected participant. Outgoing messages are queued and written by its own writer goroutine.
type Session struct {
	ID       string
	Identity string

	conn net.Conn
	out  chan string

	closeOnce  sync.Once
	done       chan struct{}
	finishOnce sync.Once
	finish     chan struct{}
}

func newSession(conn net.Conn, identity string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Identity: identity,
		conn:     conn,
		out:      make(chan string, outgoingQueueSize),
		done:     make(chan struct{}),
		finish:   make(chan struct{}),
	}
}

// Send queues lines as a single message. A session whose queue is full is closed.
func (that *Session) Send(lines ...string) bool {
	var builder strings.Builder
	for _, line := range lines {
		builder.WriteString(line)
		builder.WriteString(lineEnding)
	}

	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.out <- builder.String():
		return true
	default:
		that.Close()
		return false
	}
}

// Finish writes whatever is queued and then closes the session.
func (that *Session) Finish() {
	that.finishOnce.Do(func() {
		close(that.finish)
	})
}

// Close drops the connection immediately. It is safe to call more than once.
func (that *Session) Close() {
	that.closeOnce.Do(func() {
		close(that.done)
		_ = that.conn.Close()
	})
}

func (that *Session) IsClosed() bool {
	select {
	case <-that.done:
		return true
	default:
		return false
	}
}

func (that *Session) isFinishing() bool {
	select {
	case <-that.finish:
		return true
	default:
		return false
	}
}

func (that *Session) writeLoop(logger *slog.Logger) {
	log := logger.With("method", "writeLoop", "session", that.ID)

	for {
		select {
		case message := <-that.out:
			if !that.write(log, message) {
				return
			}
		case <-that.finish:
			for {
				select {
				case message := <-that.out:
					if !that.write(log, message) {
						return
					}
				default:
					that.Close()
					return
				}
			}
		case <-that.done:
			return
		}
	}
}

func (that *Session) write(log *slog.Logger, message string) bool {
	if _, err := that.conn.Write([]byte(message)); err != nil {
		if !that.IsClosed() {
			log.Warn("failed to write to session", "error", err)
		}
		that.Close()
		return false
	}

	return true
}
