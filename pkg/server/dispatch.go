package server

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/httpstub/httpstub/pkg/protocol"
	"github.com/httpstub/httpstub/pkg/requestlog"
	"github.com/httpstub/httpstub/pkg/resource"
)

// acceptLoop owns the listener. It exits when the CLOSE sentinel arrives or
// the listener is torn down, then releases the port.
func (s *Server) acceptLoop() {
	defer close(s.done)
	defer func() { _ = s.listener.Close() }()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		br := bufio.NewReader(conn)
		peeked, err := br.Peek(len(closeSentinel))
		if err == nil && string(peeked) == closeSentinel {
			s.log.Info("shutdown sentinel received")
			_ = conn.Close()
			return
		}

		go s.handle(conn, br)
	}
}

// handle runs one connection: parse request line, route, delay, respond,
// capture metadata, then relay broadcast data for streamed resources. Any
// transport error terminates this connection only.
func (s *Server) handle(conn net.Conn, br *bufio.Reader) {
	defer func() { _ = conn.Close() }()

	line, err := br.ReadString('\n')
	if err != nil {
		s.log.Debug("read request line", "error", err)
		return
	}
	method, target, err := protocol.ParseRequestLine(line)
	if err != nil {
		s.log.Debug("parse request line", "error", err)
		return
	}

	res, miss := s.registry.Resolve(method, target)

	var payload string
	if res != nil {
		if d := res.ResponseDelay(); d > 0 {
			time.Sleep(d)
		}
		payload = res.Render(target)
		s.log.Debug("request routed", "method", method, "target", target, "uri", res.URI())
	} else {
		payload = protocol.FormatResponse(miss.Line(), nil, "")
		s.log.Debug("request missed", "method", method, "target", target, "status", int(miss))
	}

	if _, err := conn.Write([]byte(payload)); err != nil {
		s.log.Debug("write response", "error", err)
		return
	}

	s.captureMetadata(br, method, target)

	if res != nil && res.IsStream() {
		s.relay(conn, res)
	}
}

// captureMetadata reads the header block and reports the request to the
// attached sinks. Skipped entirely when nothing is listening.
func (s *Server) captureMetadata(br *bufio.Reader, method protocol.Method, target string) {
	ch, store := s.metadataSinks()
	if ch == nil && store == nil {
		return
	}

	headers := map[string]string{}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}

	entry := requestlog.NewEntry(string(method), target, headers)
	if store != nil {
		store.Log(entry)
	}
	if ch != nil {
		select {
		case ch <- entry:
		default:
			s.log.Warn("metadata listener not draining, record dropped", "url", entry.URL)
		}
	}
}

// relay subscribes the connection to the resource's broadcaster and forwards
// every chunk until the subscription closes or the socket dies. A write
// failure prunes this subscriber silently.
func (s *Server) relay(conn net.Conn, res *resource.Resource) {
	id, ch := res.Subscribe()
	defer res.Unsubscribe(id)

	for chunk := range ch {
		if _, err := conn.Write([]byte(chunk)); err != nil {
			s.log.Debug("stream write failed, pruning subscriber", "id", id)
			return
		}
	}
}
