package sandbox

import (
	"fmt"
	"strings"
	"sync"
)

// Halt is the generation flag of one document. Once stopped, the
// processor finishes the current region and copies the rest verbatim.
type Halt struct {
	stopped bool
}

// Stop halts generation for the rest of the document.
func (h *Halt) Stop() { h.stopped = true }

// Stopped reports whether generation was halted.
func (h *Halt) Stopped() bool { return h != nil && h.stopped }

// Frame is the evaluation context of one region.
type Frame struct {
	InFile   string
	OutFile  string
	Offset   int    // document line of the begin marker
	Previous string // old output of the region, then the new output
	Halt     *Halt

	evalOffset int
	line       int // compiled line of the statement running
	code       []string
	lineNos    []int
	out        strings.Builder
}

// NewFrame creates the context for the region beginning at offset.
func NewFrame(inFile, outFile string, offset int, halt *Halt) *Frame {
	return &Frame{
		InFile:     inFile,
		OutFile:    outFile,
		Offset:     offset,
		Halt:       halt,
		evalOffset: offset,
	}
}

// SnippetID is the "+offset" id shown in diagnostics. While the snippet
// runs it accounts for the host preamble line.
func (f *Frame) SnippetID() string {
	return fmt.Sprintf("+%d", f.evalOffset)
}

// Emit appends snippet output.
func (f *Frame) Emit(s string) {
	f.out.WriteString(s)
}

// docLine maps a line of the compiled unit to its document line.
func (f *Frame) docLine(compiled int) int {
	i := compiled + f.evalOffset - f.Offset - 1
	switch {
	case len(f.lineNos) == 0 || i < 0:
		return f.Offset
	case i >= len(f.lineNos):
		return f.lineNos[len(f.lineNos)-1]
	default:
		return f.lineNos[i]
	}
}

// listing returns the snippet lines prefixed with their document line.
func (f *Frame) listing() []string {
	out := make([]string, len(f.code))
	for i, l := range f.code {
		doc := f.Offset + i + 1
		if i < len(f.lineNos) {
			doc = f.lineNos[i]
		}
		out[i] = fmt.Sprintf("#%d (%s, line %d): %s", doc, f.SnippetID(), i+1+f.Offset-f.evalOffset, l)
	}
	return out
}

// Stack holds the frames of nested evaluations, innermost last.
type Stack struct {
	mu     sync.Mutex
	frames []*Frame
}

// Push makes f the current frame. The returned release pops it and must
// be called exactly once, in LIFO order.
func (s *Stack) Push(f *Frame) (release func()) {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			n := len(s.frames)
			if n == 0 || s.frames[n-1] != f {
				panic("sandbox: frame released out of order")
			}
			s.frames[n-1] = nil
			s.frames = s.frames[:n-1]
		})
	}
}

// Top returns the current frame, or nil outside an evaluation.
func (s *Stack) Top() *Frame {
	return s.At(0)
}

// At returns the frame depth levels below the top, clamped to the
// outermost frame.
func (s *Stack) At(depth int) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.frames)
	if n == 0 {
		return nil
	}
	if depth < 0 {
		depth = 0
	}
	if depth >= n {
		depth = n - 1
	}
	return s.frames[n-1-depth]
}

// Depth is the number of active frames.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}
