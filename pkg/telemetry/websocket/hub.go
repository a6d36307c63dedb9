package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/telemetry"
)

// DefaultPath is where the Hub accepts connections.
const DefaultPath = "/ws"

// Hub publishes events to all connected clients. Commands from
// clients are posted to the loop the Hub was added to.
type Hub struct {
	Addr string
	Path string

	ctx     context.Context
	clients map[*telemetry.Pipe]struct{}
	lock    sync.Mutex
	ready   chan net.Addr
}

// NewHub creates a Hub listening on addr.
func NewHub(addr string) *Hub {
	return &Hub{
		Addr:    addr,
		Path:    DefaultPath,
		clients: make(map[*telemetry.Pipe]struct{}),
		ready:   make(chan net.Addr, 1),
	}
}

// Publish implements telemetry.Publisher. Failing clients are
// disconnected, the failures are not reported.
func (h *Hub) Publish(ctx context.Context, msg fx.Message) error {
	h.lock.Lock()
	pipes := make([]*telemetry.Pipe, 0, len(h.clients))
	for p := range h.clients {
		pipes = append(pipes, p)
	}
	h.lock.Unlock()
	for _, p := range pipes {
		if err := p.Publish(ctx, msg); err != nil {
			glog.V(1).Infof("websocket client dropped: %v", err)
			p.Close()
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Ready returns the listening address once the Hub runs.
func (h *Hub) Ready() <-chan net.Addr {
	return h.ready
}

// Handler serves a client connection until it closes.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		pipe := telemetry.NewPipe(New(conn))
		h.lock.Lock()
		h.clients[pipe] = struct{}{}
		h.lock.Unlock()
		defer func() {
			h.lock.Lock()
			delete(h.clients, pipe)
			h.lock.Unlock()
		}()
		ctx := h.ctx
		if ctx == nil {
			ctx = conn.Request().Context()
		}
		err := fx.RunWithContextCloser(ctx, pipe, func() error {
			return pipe.Run(ctx)
		})
		if err != nil && err != context.Canceled {
			glog.V(1).Infof("websocket client %s: %v", conn.Request().RemoteAddr, err)
		}
	})
}

// AddToLoop implements LoopAdder.
func (h *Hub) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("websocket", h))
}

// Run implements Runnable.
func (h *Hub) Run(ctx context.Context) error {
	h.ctx = ctx
	ln, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return err
	}
	glog.Infof("websocket listening on %s%s", ln.Addr(), h.Path)
	h.ready <- ln.Addr()
	mux := http.NewServeMux()
	mux.Handle(h.Path, h.Handler())
	server := &http.Server{Handler: mux}
	return fx.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
}
