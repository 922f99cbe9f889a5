package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/successbyfailure/povd"
)

// ViewerEvent describes an SSE event sent to a simulator viewer.
type ViewerEvent interface {
	Type() ViewerEventType
}

// ViewerEventType is a type of message sent to the viewer.
type ViewerEventType string

const (
	ViewerEventTypeInit  ViewerEventType = "init"
	ViewerEventTypeFrame ViewerEventType = "frame"
)

// ViewerInit is the init message sent to the viewer.
type ViewerInit struct {
	NumLEDs      int         `json:"num_leds"`
	SessionToken string      `json:"session_token"`
	Status       povd.Status `json:"status"`
}

func (ViewerInit) Type() ViewerEventType {
	return ViewerEventTypeInit
}

// ViewerFrame is the frame message sent to the viewer.
// It contains the strip as [r, g, b] triplets.
type ViewerFrame struct {
	LEDColors []ledColor `json:"led_colors"`
}

func (ViewerFrame) Type() ViewerEventType {
	return ViewerEventTypeFrame
}

type ledColor [3]uint8

func newViewerFrame(strip []povd.RGB) ViewerFrame {
	colors := make([]ledColor, len(strip))
	for i, c := range strip {
		colors[i] = ledColor{c.R, c.G, c.B}
	}
	return ViewerFrame{LEDColors: colors}
}

type sseEvent struct {
	Type string
	Data any
}

type writeFlusher interface {
	io.Writer
	http.Flusher
}

func writeSSE(w writeFlusher, ev sseEvent) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data)
	w.Flush()
}

func viewerEventToSSE(event ViewerEvent) sseEvent {
	b, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return sseEvent{
		Type: string(event.Type()),
		Data: b,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
