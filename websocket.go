package povd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"golang.org/x/sync/errgroup"
)

type closeFrame struct {
	Code   ws.StatusCode
	Reason string
}

func (f closeFrame) encode() []byte {
	return ws.NewCloseFrameBody(f.Code, f.Reason)
}

// previewConn is the server side of one preview viewer websocket. It only
// writes frames; anything the client sends besides control frames is
// discarded.
type previewConn struct {
	frames chan []byte
	kicks  chan string

	wsconn io.ReadWriteCloser
	logger *slog.Logger
}

func newPreviewConn(wsconn io.ReadWriteCloser, logger *slog.Logger) *previewConn {
	return &previewConn{
		frames: make(chan []byte, 1),
		kicks:  make(chan string, 1),

		wsconn: wsconn,
		logger: logger,
	}
}

func (c *previewConn) queueFrame(msg []byte) {
	select {
	case c.frames <- msg:
	default:
	}
}

func (c *previewConn) kick(reason string) {
	select {
	case c.kicks <- reason:
	default:
	}
}

func (c *previewConn) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		<-ctx.Done()

		c.logger.DebugContext(ctx,
			"closing websocket",
			"error", ctx.Err().Error())

		if closeErr := c.wsconn.Close(); closeErr != nil {
			c.logger.WarnContext(ctx,
				"failed to close websocket",
				"error", closeErr.Error())

			return fmt.Errorf("failed to close websocket: %w", closeErr)
		}

		return nil
	})

	errg.Go(func() error {
		defer cancel()

		for {
			if err := wsDiscardData(c.wsconn, ws.StateServerSide); err != nil {
				var closedErr wsutil.ClosedError
				if errors.As(err, &closedErr) {
					c.logger.DebugContext(ctx,
						"received close frame from client")

					return nil
				}

				if ctx.Err() != nil {
					return ctx.Err()
				}

				return fmt.Errorf("failed to read from websocket: %w", err)
			}
		}
	})

	errg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()

			case msg := <-c.frames:
				if err := wsutil.WriteServerBinary(c.wsconn, msg); err != nil {
					return fmt.Errorf("failed to write to websocket: %w", err)
				}

			case reason := <-c.kicks:
				closeFrame := closeFrame{
					Code:   ws.StatusNormalClosure,
					Reason: reason,
				}

				c.logger.DebugContext(ctx,
					"sending close frame to client",
					"code", closeFrame.Code,
					"reason", closeFrame.Reason)

				if err := ws.WriteFrame(c.wsconn, ws.NewCloseFrame(closeFrame.encode())); err != nil {
					c.logger.WarnContext(ctx,
						"failed to write close frame",
						"error", err.Error())
				}

				// Give the client 2 seconds to answer the close frame, then
				// forcefully stop the context to close the connection.
				errg.Go(func() error {
					timer := time.NewTimer(2 * time.Second)
					defer timer.Stop()

					select {
					case <-timer.C:
						cancel()
					case <-ctx.Done():
					}
					return nil
				})

				return nil
			}
		}
	})

	return errg.Wait()
}

// wsDiscardData reads and drops one data message from src, answering any
// control frames that arrive before it.
func wsDiscardData(src io.ReadWriter, s ws.State) error {
	controlHandler := wsutil.ControlFrameHandler(src, s)
	rd := wsutil.Reader{
		Source:          src,
		State:           s,
		SkipHeaderCheck: false,
		OnIntermediate:  controlHandler,
	}
	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return err
		}
		if hdr.OpCode.IsControl() {
			if err := controlHandler(hdr, &rd); err != nil {
				return err
			}
			continue
		}
		return rd.Discard()
	}
}
