package main

import (
	"log/slog"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/successbyfailure/povd"
	"gopkg.in/typ.v4/sync2"
)

type sessionsHandler struct {
	runner  *povd.Runner
	numLEDs int
	logger  *slog.Logger

	sessions sync2.Map[string, *sessionInstance]
}

type sessionInstance struct {
	frame chan []povd.RGB
}

// queueFrame hands strip to the session, replacing a frame it has not sent
// yet.
func (s *sessionInstance) queueFrame(strip []povd.RGB) {
	for {
		select {
		case s.frame <- strip:
			return
		default:
		}
		select {
		case <-s.frame:
		default:
		}
	}
}

// broadcast sends a copy of strip to every session. It is used as the
// simulated strip's flush hook.
func (m *sessionsHandler) broadcast(strip []povd.RGB) {
	m.sessions.Range(func(_ string, s *sessionInstance) bool {
		s.queueFrame(append([]povd.RGB(nil), strip...))
		return true
	})
}

func (m *sessionsHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	wflush, ok := w.(writeFlusher)
	if !ok {
		http.Error(w, "server does not support flushing", http.StatusInternalServerError)
		return
	}

	var status povd.Status
	if err := m.runner.Do(r.Context(), func(e *povd.Engine) { status = e.Status() }); err != nil {
		http.Error(w, "simulator is not running", http.StatusServiceUnavailable)
		return
	}

	session := &sessionInstance{
		frame: make(chan []povd.RGB, 1),
	}

	token := m.addSession(session)
	defer m.sessions.Delete(token)

	m.logger.Info(
		"new session created",
		"token", token)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	init := viewerEventToSSE(ViewerInit{
		NumLEDs:      m.numLEDs,
		SessionToken: token,
		Status:       status,
	})
	writeSSE(wflush, init)

frameLoop:
	for {
		select {
		case <-r.Context().Done():
			break frameLoop
		case strip := <-session.frame:
			writeSSE(wflush, viewerEventToSSE(newViewerFrame(strip)))

			m.logger.Debug(
				"session frame sent",
				"token", token)
		}
	}

	m.logger.Info(
		"session has been closed",
		"token", token)
}

func (m *sessionsHandler) addSession(s *sessionInstance) string {
	for {
		uuid, err := uuid.NewV7()
		if err != nil {
			panic(err)
		}

		token := uuid.String()
		if _, collided := m.sessions.LoadOrStore(token, s); !collided {
			return token
		}
	}
}
