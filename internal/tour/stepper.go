package tour

// Stepper is a playback cursor over a trace. It starts on the last step,
// which is the finished tour.
type Stepper struct {
	trace Trace
	index int
}

// NewStepper positions a cursor at the end of trace.
func NewStepper(trace Trace) *Stepper {
	s := &Stepper{trace: trace}
	s.index = s.last()
	return s
}

func (s *Stepper) last() int {
	if len(s.trace) == 0 {
		return 0
	}
	return len(s.trace) - 1
}

func (s *Stepper) First() Step {
	s.index = 0
	return s.Current()
}

func (s *Stepper) Prev() Step {
	if s.index > 0 {
		s.index--
	}
	return s.Current()
}

func (s *Stepper) Next() Step {
	if s.index < s.last() {
		s.index++
	}
	return s.Current()
}

func (s *Stepper) Last() Step {
	s.index = s.last()
	return s.Current()
}

// Current returns the step under the cursor, or the zero Step for an empty
// trace.
func (s *Stepper) Current() Step {
	st, _ := s.trace.At(s.index)
	return st
}

func (s *Stepper) Index() int { return s.index }
func (s *Stepper) Len() int   { return len(s.trace) }

// CanBack reports whether Prev would move.
func (s *Stepper) CanBack() bool { return s.index > 0 }

// CanForward reports whether Next would move.
func (s *Stepper) CanForward() bool { return s.index < s.last() }
