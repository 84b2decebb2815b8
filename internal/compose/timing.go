package compose

import "github.com/videobgremover/videobgremover-go/pkg/util"

// Window is a resolved half-open interval [Start, End) on the scene
// timeline. An unset bound means the layer runs to that edge of the
// scene.
type Window struct {
	Start    float64
	End      float64
	HasStart bool
	HasEnd   bool
}

// resolveTiming combines the three optional timing fields into one
// window. Any two of start, end and duration determine the third; all
// three must agree exactly.
func resolveTiming(start, end, duration *float64) (Window, error) {
	if start != nil && *start < 0 {
		return Window{}, configErrorf("timing", "start must not be negative, got %g", *start)
	}
	if end != nil && *end < 0 {
		return Window{}, configErrorf("timing", "end must not be negative, got %g", *end)
	}
	if duration != nil && *duration <= 0 {
		return Window{}, configErrorf("timing", "duration must be positive, got %g", *duration)
	}

	var w Window
	switch {
	case start == nil && end == nil && duration == nil:
		return w, nil
	case start != nil && end != nil && duration != nil:
		if *start+*duration != *end {
			return Window{}, configErrorf("timing", "start %g + duration %g does not match end %g",
				*start, *duration, *end)
		}
		w = Window{Start: *start, End: *end, HasStart: true, HasEnd: true}
	case start != nil && end != nil:
		w = Window{Start: *start, End: *end, HasStart: true, HasEnd: true}
	case start != nil && duration != nil:
		w = Window{Start: *start, End: *start + *duration, HasStart: true, HasEnd: true}
	case end != nil && duration != nil:
		s := *end - *duration
		if s < 0 {
			return Window{}, configErrorf("timing", "duration %g reaches before the scene start (end %g)",
				*duration, *end)
		}
		w = Window{Start: s, End: *end, HasStart: true, HasEnd: true}
	case start != nil:
		w = Window{Start: *start, HasStart: true}
	case end != nil:
		w = Window{End: *end, HasStart: true, HasEnd: true}
	case duration != nil:
		w = Window{End: *duration, HasStart: true, HasEnd: true}
	}
	if w.HasEnd && w.End <= w.Start {
		return Window{}, configErrorf("timing", "end %g must be after start %g", w.End, w.Start)
	}
	return w, nil
}

// enablePredicate renders the window as an overlay enable expression.
// The interval is half-open: a layer ending at t=5 and one starting at
// t=5 never share a frame. An unbounded window needs no predicate.
func (w Window) enablePredicate() string {
	lower := w.HasStart && w.Start > 0
	upper := w.HasEnd
	switch {
	case lower && upper:
		return "gte(t," + util.FormatFloat(w.Start) + ")*lt(t," + util.FormatFloat(w.End) + ")"
	case lower:
		return "gte(t," + util.FormatFloat(w.Start) + ")"
	case upper:
		return "lt(t," + util.FormatFloat(w.End) + ")"
	default:
		return ""
	}
}
