package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/successbyfailure/povd"
	"libdb.so/hrt"
)

type adminHandler struct {
	*chi.Mux
	runner  *povd.Runner
	preview *povd.PreviewServer // nil if disabled
	logger  *slog.Logger

	cfgMu   sync.Mutex
	cfg     config
	cfgPath string
}

func newAdminHandler(runner *povd.Runner, preview *povd.PreviewServer, cfg config, cfgPath string, logger *slog.Logger) *adminHandler {
	h := &adminHandler{
		Mux:     chi.NewRouter(),
		runner:  runner,
		preview: preview,
		logger:  logger,
		cfg:     cfg,
		cfgPath: cfgPath,
	}

	h.Use(hrt.Use(hrt.Opts{
		Encoder: hrt.CombinedEncoder{
			Encoder: hrt.JSONEncoder,
			Decoder: hrt.URLDecoder,
		},
		ErrorWriter: hrt.TextErrorWriter,
	}))

	h.Get("/status", hrt.Wrap(h.status))
	h.Post("/load", hrt.Wrap(h.load))
	h.Post("/unload", hrt.Wrap(h.unload))
	h.Post("/play", hrt.Wrap(h.play))
	h.Post("/pause", hrt.Wrap(h.pause))
	h.Post("/resume", hrt.Wrap(h.resume))
	h.Post("/stop", hrt.Wrap(h.stop))
	h.Patch("/settings", hrt.Wrap(h.patchSettings))
	h.Post("/motion", hrt.Wrap(h.motion))
	h.Post("/kick-all", hrt.Wrap(h.kickAll))

	return h
}

type emptyRequest struct{}

// do runs f on the engine goroutine and returns the engine status after it.
func (h *adminHandler) do(ctx context.Context, f func(e *povd.Engine) error) (povd.Status, error) {
	var status povd.Status
	var ferr error

	if err := h.runner.Do(ctx, func(e *povd.Engine) {
		ferr = f(e)
		status = e.Status()
	}); err != nil {
		return povd.Status{}, err
	}

	return status, engineError(ferr)
}

// engineError attaches an HTTP status to errors returned by the engine.
func engineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, povd.ErrState):
		return hrt.WrapHTTPError(http.StatusConflict, err)
	case errors.Is(err, povd.ErrSize), errors.Is(err, povd.ErrFormat):
		return hrt.WrapHTTPError(http.StatusUnprocessableEntity, err)
	case errors.Is(err, povd.ErrIO):
		return hrt.WrapHTTPError(http.StatusNotFound, err)
	default:
		return err
	}
}

func badRequest(format string, args ...any) error {
	return hrt.WrapHTTPError(http.StatusBadRequest, fmt.Errorf(format, args...))
}

func (h *adminHandler) status(ctx context.Context, _ emptyRequest) (povd.Status, error) {
	return h.do(ctx, func(*povd.Engine) error { return nil })
}

type loadRequest struct {
	Name string `query:"name"`
	Play string `query:"play"`
}

func (h *adminHandler) load(ctx context.Context, req loadRequest) (povd.Status, error) {
	if req.Name == "" {
		return povd.Status{}, badRequest("missing image name")
	}

	play, err := parseOptionalBool(req.Play, false)
	if err != nil {
		return povd.Status{}, badRequest("invalid play: %w", err)
	}

	status, err := h.do(ctx, func(e *povd.Engine) error {
		if err := e.LoadImage(req.Name); err != nil {
			return err
		}
		if play {
			return e.Play()
		}
		return nil
	})
	if err != nil {
		return status, err
	}

	h.updateConfig(func(c *config) { c.ActiveImage = status.Image })
	return status, nil
}

func (h *adminHandler) unload(ctx context.Context, _ emptyRequest) (povd.Status, error) {
	status, err := h.do(ctx, func(e *povd.Engine) error {
		e.UnloadImage()
		return nil
	})
	if err != nil {
		return status, err
	}

	h.updateConfig(func(c *config) { c.ActiveImage = "" })
	return status, nil
}

func (h *adminHandler) play(ctx context.Context, _ emptyRequest) (povd.Status, error) {
	return h.do(ctx, (*povd.Engine).Play)
}

func (h *adminHandler) pause(ctx context.Context, _ emptyRequest) (povd.Status, error) {
	return h.do(ctx, (*povd.Engine).Pause)
}

func (h *adminHandler) resume(ctx context.Context, _ emptyRequest) (povd.Status, error) {
	return h.do(ctx, (*povd.Engine).Resume)
}

func (h *adminHandler) stop(ctx context.Context, _ emptyRequest) (povd.Status, error) {
	return h.do(ctx, func(e *povd.Engine) error {
		e.Stop()
		return nil
	})
}

type patchSettingsRequest struct {
	Speed       string `query:"speed"`
	Loop        string `query:"loop"`
	Orientation string `query:"orientation"`
	Reverse     string `query:"reverse"`
}

// settingsPatch is a parsed patchSettingsRequest. Nil fields are left alone.
type settingsPatch struct {
	speed       *int
	loop        *bool
	orientation *povd.Orientation
	reverse     *bool
}

func (req patchSettingsRequest) parse() (settingsPatch, error) {
	var p settingsPatch

	if req.Speed != "" {
		speed, err := strconv.Atoi(req.Speed)
		if err != nil {
			return p, fmt.Errorf("invalid speed: %w", err)
		}
		p.speed = &speed
	}

	if req.Loop != "" {
		loop, err := strconv.ParseBool(req.Loop)
		if err != nil {
			return p, fmt.Errorf("invalid loop: %w", err)
		}
		p.loop = &loop
	}

	if req.Orientation != "" {
		o, err := povd.ParseOrientation(req.Orientation)
		if err != nil {
			return p, err
		}
		p.orientation = &o
	}

	if req.Reverse != "" {
		reverse, err := strconv.ParseBool(req.Reverse)
		if err != nil {
			return p, fmt.Errorf("invalid reverse: %w", err)
		}
		p.reverse = &reverse
	}

	return p, nil
}

func (p settingsPatch) apply(e *povd.Engine) {
	if p.speed != nil {
		e.SetSpeed(*p.speed)
	}
	if p.loop != nil {
		e.SetLoopMode(*p.loop)
	}
	if p.orientation != nil {
		e.SetOrientation(*p.orientation)
	}
	if p.reverse != nil {
		e.SetReverseDirection(*p.reverse)
	}
}

func (h *adminHandler) patchSettings(ctx context.Context, req patchSettingsRequest) (povd.Status, error) {
	patch, err := req.parse()
	if err != nil {
		return povd.Status{}, hrt.WrapHTTPError(http.StatusBadRequest, err)
	}

	status, err := h.do(ctx, func(e *povd.Engine) error {
		patch.apply(e)
		return nil
	})
	if err != nil {
		return status, err
	}

	h.updateConfig(func(c *config) {
		c.Speed = int(status.Speed)
		c.Loop = status.LoopMode
		c.Orientation = status.Orientation
	})
	return status, nil
}

type motionRequest struct {
	Moving string `query:"moving"`
	Sign   string `query:"sign"`
}

func (h *adminHandler) motion(ctx context.Context, req motionRequest) (povd.Status, error) {
	moving, err := strconv.ParseBool(req.Moving)
	if err != nil {
		return povd.Status{}, badRequest("invalid moving: %w", err)
	}

	var sign int
	if req.Sign != "" {
		sign, err = strconv.Atoi(req.Sign)
		if err != nil {
			return povd.Status{}, badRequest("invalid sign: %w", err)
		}
	}

	return h.do(ctx, func(e *povd.Engine) error {
		return povd.NewMotionGate(e).Apply(moving, sign)
	})
}

type kickAllRequest struct {
	Reason string `query:"reason"`
}

func (h *adminHandler) kickAll(ctx context.Context, req kickAllRequest) (hrt.None, error) {
	if h.preview == nil {
		return hrt.Empty, hrt.NewHTTPError(http.StatusNotFound, "preview server is disabled")
	}
	h.preview.KickAll(req.Reason)
	return hrt.Empty, nil
}

// updateConfig applies f to the config and writes it back to disk.
func (h *adminHandler) updateConfig(f func(c *config)) {
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()

	f(&h.cfg)

	if h.cfgPath == "" {
		return
	}
	if err := saveConfig(h.cfgPath, h.cfg); err != nil {
		h.logger.Error(
			"failed to save config",
			"path", h.cfgPath,
			"error", err)
	}
}

func parseOptionalBool(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}
