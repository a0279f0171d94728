package tui

import (
	"bytes"
	"sync"

	"github.com/vito/midterm"
)

// Vterm keeps the output of one task in a virtual terminal so that progress bars and
// colors render as the task drew them. It shows Height rows starting at Offset.
type Vterm struct {
	mu     sync.Mutex
	vt     *midterm.Terminal
	buf    bytes.Buffer
	Offset int
	Width  int
	Height int
}

// NewVterm creates an empty terminal that grows with its output.
func NewVterm() *Vterm {
	return &Vterm{vt: midterm.NewAutoResizingTerminal(), Height: 1}
}

// Write feeds task output to the terminal. A view scrolled to the bottom follows new output.
func (v *Vterm) Write(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	atBottom := v.Offset >= v.maxOffset()
	n, err := v.vt.Write(p)
	if atBottom {
		v.Offset = v.maxOffset()
	}
	return n, err
}

// Resize sets the visible area. Values below one are raised to one.
func (v *Vterm) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	atBottom := v.Offset >= v.maxOffset()
	v.Width = max(width, 1)
	v.Height = max(height, 1)
	v.vt.ResizeX(v.Width)
	if atBottom {
		v.Offset = v.maxOffset()
	}
	v.clamp()
}

// Scroll moves the view by delta rows. Negative values scroll up.
func (v *Vterm) Scroll(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Offset += delta
	v.clamp()
}

// ScrollTo moves the view to the first row, or to the last page when bottom is set.
func (v *Vterm) ScrollTo(bottom bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Offset = 0
	if bottom {
		v.Offset = v.maxOffset()
	}
}

// Page returns the number of rows one page scroll moves.
func (v *Vterm) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Height
}

// Lines returns the number of rows written so far.
func (v *Vterm) Lines() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vt.UsedHeight()
}

// View renders the visible rows.
func (v *Vterm) View() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.clamp()
	v.buf.Reset()
	used := v.vt.UsedHeight()
	for row := v.Offset; row < v.Offset+v.Height && row < used; row++ {
		if row > v.Offset {
			v.buf.WriteByte('\n')
		}
		_ = v.vt.RenderLine(&v.buf, row)
	}
	return v.buf.String()
}

func (v *Vterm) clamp() {
	v.Offset = min(max(v.Offset, 0), v.maxOffset())
}

func (v *Vterm) maxOffset() int {
	return max(v.vt.UsedHeight()-v.Height, 0)
}
