package stream

import (
	"errors"
	"fmt"

	"sandfall/internal/app"
)

// ErrUnknownCommand is returned for an unrecognised command op.
var ErrUnknownCommand = errors.New("stream: unknown command")

// Command is a client request, decoded from JSON.
type Command struct {
	Op      string `json:"op"`
	X       int    `json:"x,omitempty"`
	Y       int    `json:"y,omitempty"`
	Element string `json:"element,omitempty"`
	Size    int    `json:"size,omitempty"`
	Seed    int64  `json:"seed,omitempty"`
}

// Apply runs cmd against the session. It reports whether the world changed
// visibly and thus needs a new frame.
func Apply(s *app.Session, cmd Command) (bool, error) {
	switch cmd.Op {
	case "paint":
		if cmd.Element != "" && !s.SelectName(cmd.Element) {
			return false, fmt.Errorf("paint: unknown element %q", cmd.Element)
		}
		setBrush(s, cmd.Size)
		return s.Paint(cmd.X, cmd.Y) > 0, nil
	case "erase":
		setBrush(s, cmd.Size)
		return s.Erase(cmd.X, cmd.Y) > 0, nil
	case "pause":
		s.TogglePause()
		return false, nil
	case "step":
		s.RequestStep()
		return false, nil
	case "reset":
		s.Reset(cmd.Seed)
		return true, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
}

func setBrush(s *app.Session, size int) {
	if size > 0 {
		s.World().SetBrushSize(size)
	}
}
