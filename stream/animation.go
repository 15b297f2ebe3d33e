package stream

import "github.com/matt-g-everett/ledmagnet/frame"

// An Animation implements a way to render a specific animation into a frame.
type Animation interface {
	Render(f *Frame, info frame.Info)
}
