package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"sandfall/internal/app"
	"sandfall/internal/config"
	"sandfall/internal/sims/sand"

	"github.com/gorilla/websocket"
)

func TestFrameRoundTrip(t *testing.T) {
	cells := []uint8{1, 0, 3, 0, 0, 2}
	buf := EncodeFrame(3, 2, cells)
	if len(buf) != FrameHeaderSize+6 || buf[0] != 3 || buf[1] != 0 || buf[2] != 2 || buf[3] != 0 {
		t.Fatalf("header %v", buf[:FrameHeaderSize])
	}
	w, h, got, err := DecodeFrame(buf)
	if err != nil || w != 3 || h != 2 || !slices.Equal(got, cells) {
		t.Fatalf("decode %d %d %v %v", w, h, got, err)
	}
	if _, _, _, err := DecodeFrame(buf[:5]); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("truncated frame error = %v", err)
	}
	if _, _, _, err := DecodeFrame([]byte{1}); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("short header error = %v", err)
	}
}

func TestHelloListsPalette(t *testing.T) {
	hello := NewHello(4, 5, sand.DefaultRegistry())
	if hello.Type != "palette" || hello.Width != 4 || hello.Height != 5 {
		t.Fatalf("hello %+v", hello)
	}
	if len(hello.Elements) != sand.DefaultRegistry().Len() {
		t.Fatalf("%d palette entries", len(hello.Elements))
	}
	water := hello.Elements[sand.ElemWater]
	c := sand.DefaultRegistry().Lookup(sand.ElemWater).Color
	if water.Name != "WATR" || water.Color != [4]uint8{c.R, c.G, c.B, c.A} {
		t.Fatalf("water entry %+v", water)
	}
}

func TestApplyCommands(t *testing.T) {
	w := sand.New(10, 10)
	s := app.NewSession(w, 1, nil)

	changed, err := Apply(s, Command{Op: "paint", X: 5, Y: 5, Element: "DUST", Size: 1})
	if err != nil || !changed {
		t.Fatalf("paint: %v %v", changed, err)
	}
	if p, ok := w.Pmap(5, 5); !ok || p.Type != sand.ElemDust {
		t.Fatalf("painted cell %+v", p)
	}
	if changed, _ := Apply(s, Command{Op: "paint", X: 5, Y: 5, Size: 1}); changed {
		t.Fatal("painting an occupied cell should not report a change")
	}
	if _, err := Apply(s, Command{Op: "paint", Element: "PLASMA"}); err == nil {
		t.Fatal("unknown element should be rejected")
	}

	if _, err := Apply(s, Command{Op: "pause"}); err != nil || !s.Paused() {
		t.Fatal("pause should toggle the session")
	}
	Apply(s, Command{Op: "step"})
	if !s.Advance() || s.Advance() {
		t.Fatal("step should allow exactly one advance while paused")
	}

	if changed, err := Apply(s, Command{Op: "erase", X: 5, Y: 6, Size: 3}); err != nil || !changed {
		t.Fatalf("erase: %v %v", changed, err)
	}
	if w.PartCount() != 0 {
		t.Fatalf("PartCount %d after erase", w.PartCount())
	}

	if changed, err := Apply(s, Command{Op: "reset", Seed: 4}); err != nil || !changed || s.Seed() != 4 {
		t.Fatalf("reset: %v %v seed %d", changed, err, s.Seed())
	}
	if _, err := Apply(s, Command{Op: "explode"}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("unknown op error = %v", err)
	}
}

func TestSubmitQueueFull(t *testing.T) {
	s := NewServer(app.NewSession(sand.New(4, 4), 1, nil), config.StreamConfig{TPS: 30, QueueSize: 1}, nil)
	if !s.Submit(Command{Op: "pause"}) {
		t.Fatal("first submit should fit")
	}
	if s.Submit(Command{Op: "pause"}) {
		t.Fatal("second submit should report a full queue")
	}
}

func TestServerStreamsFramesAndAppliesCommands(t *testing.T) {
	world := sand.New(8, 6)
	session := app.NewSession(world, 1, nil)
	srv := NewServer(session, config.StreamConfig{TPS: 100, WriteTimeout: time.Second, QueueSize: 8}, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Hello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	if hello.Width != 8 || hello.Height != 6 || len(hello.Elements) == 0 {
		t.Fatalf("hello %+v", hello)
	}

	if err := conn.WriteJSON(Command{Op: "paint", X: 3, Y: 0, Element: "BRCK", Size: 1}); err != nil {
		t.Fatal(err)
	}
	found := false
	for i := 0; i < 200 && !found; i++ {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if kind != websocket.BinaryMessage {
			t.Fatalf("unexpected message type %d", kind)
		}
		w, h, cells, err := DecodeFrame(data)
		if err != nil || w != 8 || h != 6 {
			t.Fatalf("frame %dx%d: %v", w, h, err)
		}
		found = cells[3] == uint8(sand.ElemBrick)
	}
	if !found {
		t.Fatal("painted brick never appeared in a frame")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	if srv.Clients() != 0 {
		t.Fatalf("%d clients still registered", srv.Clients())
	}
}

func TestFrameAtLargestWorld(t *testing.T) {
	world := sand.NewWithConfig(sand.Config{Width: sand.MaxDimension + 1, Height: 1})
	size := world.Size()
	w, h, cells, err := DecodeFrame(EncodeFrame(size.W, size.H, world.Cells()))
	if err != nil || w != sand.MaxDimension || h != 1 || len(cells) != sand.MaxDimension {
		t.Fatalf("decode %dx%d (%d cells): %v", w, h, len(cells), err)
	}
}
