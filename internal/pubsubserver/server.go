// Package pubsubserver implements the director's client-facing WebSocket
// listener (spec.md §4.9/§6): for every inbound client socket it dials
// the chain and ephemeral pub/sub endpoints, then proxies frames between
// the three sockets according to pubsub.Arbiter's routing decision.
//
// Grounded on the teacher's rpc/ws.go (websocket.Accept, context-scoped
// writes, websocket.CloseStatus) and on
// original_source/director-pubsub/src/accept_connection.rs's three-way
// select loop, translated from tokio::select!/futures_util streams to
// Go goroutines plus a fan-in channel. nhooyr.io/websocket answers
// ping frames with pong frames internally and never surfaces either as
// a MessageType from Conn.Read, so unlike the Rust original this proxy
// does not need to special-case pings: only MessageText/MessageBinary
// ever reach handleFrame, and a closed socket surfaces as a Read error.
package pubsubserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/magicblock-labs/conjunto-director/internal/director/pubsub"
)

const writeTimeout = 10 * time.Second

// Dialer connects to a backend pub/sub endpoint. DialWebsocket is the
// default, used whenever Server.DialChain or Server.DialEphem is nil.
type Dialer func(ctx context.Context, url string) (*websocket.Conn, error)

// Server holds the collaborators the WebSocket proxy loop needs.
type Server struct {
	Arbiter   *pubsub.Arbiter
	ChainURL  string
	EphemURL  string
	DialChain Dialer
	DialEphem Dialer
	Logger    *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// DialWebsocket is the default Dialer, backed by nhooyr.io/websocket.
func DialWebsocket(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	return conn, err
}

// ServeHTTP upgrades the inbound connection, dials both downstream
// pub/sub endpoints, and runs the proxy loop for the session.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.logger().Warn("failed to accept client websocket", "error", err)
		return
	}

	ctx := r.Context()
	dialChain := s.DialChain
	if dialChain == nil {
		dialChain = DialWebsocket
	}
	dialEphem := s.DialEphem
	if dialEphem == nil {
		dialEphem = DialWebsocket
	}

	chainConn, err := dialChain(ctx, s.ChainURL)
	if err != nil {
		s.logger().Warn("failed to dial chain pubsub", "error", err)
		_ = clientConn.Close(websocket.StatusInternalError, "failed to dial chain")
		return
	}
	ephemConn, err := dialEphem(ctx, s.EphemURL)
	if err != nil {
		s.logger().Warn("failed to dial ephemeral pubsub", "error", err)
		_ = clientConn.Close(websocket.StatusInternalError, "failed to dial ephemeral")
		_ = chainConn.Close(websocket.StatusNormalClosure, "peer dial failed")
		return
	}

	sess := &session{
		arbiter: s.Arbiter,
		client:  clientConn,
		chain:   chainConn,
		ephem:   ephemConn,
		logger:  s.logger(),
	}
	sess.run(ctx)
}

// session proxies frames among the client, chain and ephemeral sockets
// for the lifetime of one client connection. Each socket is read from
// its own goroutine and frames fan in over a single channel, mirroring
// accept_connection.rs's tokio::select! over three streams.
type session struct {
	arbiter *pubsub.Arbiter
	client  *websocket.Conn
	chain   *websocket.Conn
	ephem   *websocket.Conn
	logger  *slog.Logger
}

type socketName int

const (
	socketClient socketName = iota
	socketChain
	socketEphem
)

type inboundFrame struct {
	from socketName
	typ  websocket.MessageType
	data []byte
	err  error
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.client.Close(websocket.StatusNormalClosure, "session closed")
	defer s.chain.Close(websocket.StatusNormalClosure, "session closed")
	defer s.ephem.Close(websocket.StatusNormalClosure, "session closed")

	frames := make(chan inboundFrame)
	go s.readLoop(ctx, socketClient, s.client, frames)
	go s.readLoop(ctx, socketChain, s.chain, frames)
	go s.readLoop(ctx, socketEphem, s.ephem, frames)

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-frames:
			if f.err != nil {
				if websocket.CloseStatus(f.err) != -1 {
					s.logger.Debug("socket closed", "socket", f.from)
				} else {
					s.logger.Warn("socket read error", "socket", f.from, "error", f.err)
				}
				return
			}
			if s.handleFrame(ctx, f) {
				return
			}
		}
	}
}

// readLoop continuously reads frames off one socket and forwards them
// to the fan-in channel until ctx is cancelled or the socket closes.
func (s *session) readLoop(ctx context.Context, from socketName, conn *websocket.Conn, out chan<- inboundFrame) {
	for {
		typ, data, err := conn.Read(ctx)
		select {
		case out <- inboundFrame{from: from, typ: typ, data: data, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// handleFrame dispatches one inbound frame and reports whether the
// session should tear down (either downstream disconnecting, or the
// arbiter reporting a client close, per spec.md §4.9).
func (s *session) handleFrame(ctx context.Context, f inboundFrame) bool {
	switch f.from {
	case socketChain:
		return s.writeToClient(ctx, f.typ, f.data)
	case socketEphem:
		return s.writeToClient(ctx, f.typ, f.data)
	case socketClient:
		return s.routeClientFrame(ctx, f)
	default:
		return false
	}
}

// routeClientFrame asks the arbiter which downstream(s) should receive
// this client frame and relays it there. A nil endpoint (with nil
// error) is the arbiter's Close signal; both downstreams tear down.
func (s *session) routeClientFrame(ctx context.Context, f inboundFrame) bool {
	kind := frameKindOf(f.typ)
	endpoint, err := s.arbiter.GuideMessage(ctx, pubsub.Frame{Kind: kind, Text: f.data})
	if err != nil {
		s.logger.Warn("failed to guide client message", "error", err)
		return true
	}
	if endpoint == nil {
		return true
	}

	switch *endpoint {
	case pubsub.RequestChain:
		return s.writeToDownstream(ctx, s.chain, f.typ, f.data)
	case pubsub.RequestEphemeral:
		return s.writeToDownstream(ctx, s.ephem, f.typ, f.data)
	case pubsub.RequestBoth:
		doneChain := s.writeToDownstream(ctx, s.chain, f.typ, f.data)
		doneEphem := s.writeToDownstream(ctx, s.ephem, f.typ, f.data)
		return doneChain || doneEphem
	default:
		return false
	}
}

func (s *session) writeToDownstream(ctx context.Context, downstream *websocket.Conn, typ websocket.MessageType, data []byte) bool {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := downstream.Write(writeCtx, typ, data); err != nil {
		s.logger.Warn("failed to forward client frame downstream", "error", err)
		return true
	}
	return false
}

func (s *session) writeToClient(ctx context.Context, typ websocket.MessageType, data []byte) bool {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := s.client.Write(writeCtx, typ, data); err != nil {
		s.logger.Warn("failed to forward message to client", "error", err)
		return true
	}
	return false
}

// frameKindOf maps nhooyr.io/websocket's two data message types onto
// pubsub.FrameKind. Ping/Pong/Close never surface as a MessageType
// from Conn.Read (see package doc), so the arbiter's FramePing/
// FramePong/FrameClose branches are unreachable from this transport;
// they remain in pubsub.Arbiter for symmetry with the Rust original
// and in case a future transport does surface control frames.
func frameKindOf(typ websocket.MessageType) pubsub.FrameKind {
	if typ == websocket.MessageText {
		return pubsub.FrameText
	}
	return pubsub.FrameBinary
}
