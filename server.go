package chordring

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// handlerFunc serves one procedure. Returned errors are sent back to the caller
// as an error indicator.
type handlerFunc func(ctx context.Context, req *request) (*response, error)

// server accepts connections and answers exactly one request per connection.
type server struct {
	listener    net.Listener
	handlers    map[Procedure]handlerFunc
	sem         *semaphore.Weighted
	readTimeout time.Duration
	logger      *slog.Logger
	wg          sync.WaitGroup
}

func newServer(listener net.Listener, handlers map[Procedure]handlerFunc, maxConcurrent int64, readTimeout time.Duration, logger *slog.Logger) *server {
	return &server{
		listener:    listener,
		handlers:    handlers,
		sem:         semaphore.NewWeighted(maxConcurrent),
		readTimeout: readTimeout,
		logger:      logger,
	}
}

// serve runs the accept loop until the listener is closed or ctx is done.
func (s *server) serve(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.logger.Warn("failed to accept connection", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		// Bounds in-flight handlers; a full pool pushes back on the accept loop.
		if err := s.sem.Acquire(ctx, 1); err != nil {
			_ = conn.Close()
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sem.Release(1)
			s.handle(ctx, conn)
		}()
	}
}

// wait blocks until every in-flight handler has returned.
func (s *server) wait() {
	s.wg.Wait()
}

func (s *server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))

	var req request
	if err := readFrame(conn, &req); err != nil {
		if !errors.Is(err, ErrMalformedRequest) && !errors.Is(err, ErrFrameTooLarge) {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("failed to read request", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
		s.logger.Warn("rejected malformed request", "remote", conn.RemoteAddr().String(), "error", err)
		s.reply(conn, &response{Code: codeMalformedRequest, Error: err.Error()})
		return
	}

	var resp = s.dispatch(ctx, &req)
	resp.ID = req.ID
	s.reply(conn, resp)
}

// dispatch looks the procedure up in the handler table and runs it.
func (s *server) dispatch(ctx context.Context, req *request) *response {
	var handler, ok = s.handlers[req.Procedure]
	if !ok {
		s.logger.Warn("rejected unknown procedure",
			"procedure", req.Procedure,
			"request_id", req.ID)
		return &response{Code: codeMalformedRequest, Error: "unknown procedure " + string(req.Procedure)}
	}

	var resp, err = handler(ctx, req)
	if err != nil {
		s.logger.Warn("procedure failed",
			"procedure", req.Procedure,
			"request_id", req.ID,
			"error", err)
		return &response{Code: errorCode(err), Error: err.Error()}
	}

	return resp
}

func (s *server) reply(conn net.Conn, resp *response) {
	_ = conn.SetWriteDeadline(time.Now().Add(s.readTimeout))
	if err := writeFrame(conn, resp); err != nil {
		s.logger.Debug("failed to write response", "remote", conn.RemoteAddr().String(), "error", err)
	}
}
