package input

// Sample is the pointer state a polling front-end reads once per frame or per
// terminal mouse report.
type Sample struct {
	X, Y float64

	// Down is whether the primary button is held.
	Down bool

	// Inside is whether the pointer is over the viewport. Coordinates of
	// samples outside are ignored.
	Inside bool

	// DeltaY is the wheel movement since the previous sample, in Event.DeltaY
	// convention.
	DeltaY float64
}

// Poller turns successive Samples into Events for front-ends that report
// pointer state rather than pointer events.
type Poller struct {
	prev    Sample
	started bool
}

// Events returns the events that explain the change from the previous sample
// to s, in the order they should be handled.
func (p *Poller) Events(s Sample) []Event {
	prev, started := p.prev, p.started
	p.prev, p.started = s, true

	if !s.Inside {
		if started && prev.Inside {
			return []Event{{Kind: Leave}}
		}
		return nil
	}

	var events []Event
	if started && prev.Inside && (s.X != prev.X || s.Y != prev.Y) {
		events = append(events, Event{Kind: Move, X: s.X, Y: s.Y})
	}

	switch {
	case s.Down && !prev.Down:
		events = append(events, Event{Kind: Press, X: s.X, Y: s.Y})
	case !s.Down && prev.Down:
		events = append(events, Event{Kind: Release, X: s.X, Y: s.Y})
	}

	if s.DeltaY != 0 {
		events = append(events, Event{Kind: Wheel, X: s.X, Y: s.Y, DeltaY: s.DeltaY})
	}
	return events
}
