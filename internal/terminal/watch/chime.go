package watch

import "io"

// Chime is the short audio cue played when a new alert surfaces. It is
// strictly best effort: implementations must never return an error or
// panic, since a missing audio capability is not a defect.
type Chime interface {
	Play()
}

// BellChime rings the terminal bell on the given writer.
type BellChime struct {
	w io.Writer
}

func NewBellChime(w io.Writer) *BellChime {
	return &BellChime{w: w}
}

func (c *BellChime) Play() {
	if c == nil || c.w == nil {
		return
	}
	defer func() { _ = recover() }()
	_, _ = c.w.Write([]byte("\a"))
}

// SilentChime is used when no audio sink is available.
type SilentChime struct{}

func (SilentChime) Play() {}
