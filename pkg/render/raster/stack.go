package raster

// Stack is an immutable stack of transforms. Every operation returns a new
// Stack and leaves the receiver untouched, so a caller holding an older value
// can never observe a transform pushed by someone else.
//
// The zero value is a stack holding only the identity transform.
type Stack struct {
	frames []Matrix
}

// NewStack returns a stack whose only frame is the identity.
func NewStack() Stack {
	return Stack{frames: []Matrix{Identity()}}
}

// Top returns the current transform.
func (s Stack) Top() Matrix {
	if len(s.frames) == 0 {
		return Identity()
	}
	return s.frames[len(s.frames)-1]
}

// Depth returns the number of frames, counting the base frame.
func (s Stack) Depth() int {
	if len(s.frames) == 0 {
		return 1
	}
	return len(s.frames)
}

// Then returns a stack whose top frame is Top() * m, i.e. m is applied to
// coordinates before the existing transform.
func (s Stack) Then(m Matrix) Stack {
	top := s.Top().Multiply(m)
	frames := s.copyFrames(0)
	frames[len(frames)-1] = top
	return Stack{frames: frames}
}

// Push returns a stack with a new scope whose transform starts as Top().
// Changes made through Then on the result are discarded by Pop.
func (s Stack) Push() Stack {
	frames := s.copyFrames(1)
	frames[len(frames)-1] = s.Top()
	return Stack{frames: frames}
}

// Pop returns the stack without its innermost scope. Popping the base frame
// returns the base frame unchanged.
func (s Stack) Pop() Stack {
	if len(s.frames) <= 1 {
		return s
	}
	frames := make([]Matrix, len(s.frames)-1)
	copy(frames, s.frames)
	return Stack{frames: frames}
}

func (s Stack) copyFrames(extra int) []Matrix {
	base := s.frames
	if len(base) == 0 {
		base = []Matrix{Identity()}
	}
	frames := make([]Matrix, len(base)+extra)
	copy(frames, base)
	return frames
}
