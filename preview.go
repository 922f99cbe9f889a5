package povd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gofrs/uuid/v5"
	"gopkg.in/typ.v4/sync2"
)

// PreviewOpts are options for a preview server.
type PreviewOpts struct {
	// Logger is the logger to use for the server.
	Logger *slog.Logger
	// HTTPUpgrader is the HTTP-to-Websocket upgrader to use for the server.
	HTTPUpgrader ws.HTTPUpgrader
}

// PreviewServer streams the frames shown on a strip to websocket viewers.
// Each frame is one binary message of 3 bytes (R, G, B) per LED.
type PreviewServer struct {
	opts    PreviewOpts
	viewers sync2.Map[string, *previewConn]
}

// NewPreviewServer creates a new preview server.
func NewPreviewServer(opts PreviewOpts) *PreviewServer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &PreviewServer{
		opts: opts,
	}
}

// ServeHTTP implements http.Handler.
func (s *PreviewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsconn, _, _, err := s.opts.HTTPUpgrader.Upgrade(r, w)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to upgrade HTTP: %v", err), http.StatusInternalServerError)
		return
	}

	if err := s.serveConn(r.Context(), wsconn); err != nil {
		s.opts.Logger.Debug(
			"preview viewer disconnected with error",
			"addr", wsconn.RemoteAddr(),
			"error", err)
	}
}

func (s *PreviewServer) serveConn(ctx context.Context, conn io.ReadWriteCloser) error {
	id := s.addViewer(conn)
	defer s.viewers.Delete(id)

	s.opts.Logger.Info(
		"preview viewer connected",
		"viewer", id)

	v, _ := s.viewers.Load(id)
	err := v.Start(ctx)

	s.opts.Logger.Info(
		"preview viewer disconnected",
		"viewer", id)

	return err
}

func (s *PreviewServer) addViewer(conn io.ReadWriteCloser) string {
	for {
		id, err := uuid.NewV7()
		if err != nil {
			panic(err)
		}

		v := newPreviewConn(conn, s.opts.Logger.With("viewer", id.String()))
		if _, collided := s.viewers.LoadOrStore(id.String(), v); !collided {
			return id.String()
		}
	}
}

// Viewers returns the number of connected viewers.
func (s *PreviewServer) Viewers() int {
	var n int
	s.viewers.Range(func(string, *previewConn) bool {
		n++
		return true
	})
	return n
}

// Broadcast sends strip to every viewer. Viewers that are still busy with
// an earlier frame miss this one.
func (s *PreviewServer) Broadcast(strip []RGB) {
	msg := make([]byte, 0, 3*len(strip))
	for _, c := range strip {
		msg = append(msg, c.R, c.G, c.B)
	}

	s.viewers.Range(func(_ string, v *previewConn) bool {
		v.queueFrame(msg)
		return true
	})
}

// KickAll closes every viewer connection with the given reason.
func (s *PreviewServer) KickAll(reason string) {
	if reason == "" {
		reason = "kicked"
	}
	s.viewers.Range(func(_ string, v *previewConn) bool {
		v.kick(reason)
		return true
	})
}

// Tee returns a PixelSink writing to sink that also broadcasts every
// committed strip to the viewers.
func (s *PreviewServer) Tee(sink PixelSink) PixelSink {
	return &previewSink{
		PixelSink: sink,
		server:    s,
		strip:     make([]RGB, sink.Len()),
	}
}

type previewSink struct {
	PixelSink
	server *PreviewServer
	strip  []RGB
}

func (p *previewSink) SetRGBAt(i int, color RGB) {
	if i >= 0 && i < len(p.strip) {
		p.strip[i] = color
	}
	p.PixelSink.SetRGBAt(i, color)
}

func (p *previewSink) Flush() error {
	err := p.PixelSink.Flush()
	p.server.Broadcast(p.strip)
	return err
}

func (p *previewSink) Clear() error {
	clear(p.strip)
	err := p.PixelSink.Clear()
	p.server.Broadcast(p.strip)
	return err
}
