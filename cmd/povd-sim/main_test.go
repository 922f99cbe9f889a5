package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"
	"github.com/successbyfailure/povd"
)

func TestSimulatorEvents(t *testing.T) {
	storage := povd.NewMemStorage()
	storage.Put("red.rgb", solidR565(3, 2, 0xF800))

	sim, err := newSimulator(simulatorOpts{
		Storage:  storage,
		NumLEDs:  2,
		Settings: povd.Settings{Speed: povd.MaxSpeed, Loop: true},
		Image:    "red.rgb",
		Logger:   slogt.New(t),
	})
	if err != nil {
		t.Fatal("failed to create simulator:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- sim.runner.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-runErr; err != nil {
			t.Error("runner error:", err)
		}
	})

	srv := httptest.NewServer(sim)
	defer srv.Close()

	reqCtx, reqCancel := context.WithTimeout(ctx, 10*time.Second)
	defer reqCancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", srv.URL+"/events", nil)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal("failed to get events:", err)
	}
	defer resp.Body.Close()

	assertEq(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := bufio.NewReader(resp.Body)

	typ, data := readSSE(t, events)
	assertEq(t, "init", typ)

	var init ViewerInit
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatal("failed to decode init event:", err)
	}
	assertEq(t, 2, init.NumLEDs)
	assertEq(t, "playing", init.Status.State)
	assertEq(t, "red.rgb", init.Status.Image)
	if init.SessionToken == "" {
		t.Error("init event has no session token")
	}

	typ, data = readSSE(t, events)
	assertEq(t, "frame", typ)
	assertEq(t, `{"led_colors":[[255,0,0],[255,0,0]]}`, string(data))
}

func TestSimulatorBadImage(t *testing.T) {
	_, err := newSimulator(simulatorOpts{
		Storage:  povd.NewMemStorage(),
		NumLEDs:  2,
		Settings: povd.DefaultSettings(),
		Image:    "missing.rgb",
		Logger:   slogt.New(t),
	})
	if err == nil {
		t.Fatal("expected error for a missing image")
	}
}

func readSSE(t *testing.T, r *bufio.Reader) (string, []byte) {
	t.Helper()

	var typ string
	var data []byte
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatal("failed to read event:", err)
		}
		line = strings.TrimSuffix(line, "\n")

		switch {
		case line == "":
			return typ, data
		case strings.HasPrefix(line, "event: "):
			typ = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = []byte(strings.TrimPrefix(line, "data: "))
		}
	}
}

func solidR565(w, h int, pixel uint16) []byte {
	var b bytes.Buffer
	b.WriteString("R565")
	binary.Write(&b, binary.LittleEndian, uint16(w))
	binary.Write(&b, binary.LittleEndian, uint16(h))
	for i := 0; i < w*h; i++ {
		binary.Write(&b, binary.LittleEndian, pixel)
	}
	return b.Bytes()
}

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}
