package voiceover

// Tracker ties one voiceover to the scene timeline. Times are in
// seconds of rendered animation.
type Tracker struct {
	Path            string
	DurationSeconds float64
	StartSeconds    float64
}

func (t *Tracker) EndSeconds() float64 {
	return t.StartSeconds + t.DurationSeconds
}

// Remaining reports how much of the voiceover is still playing at
// scene time now, plus buff seconds of padding. Never negative, so an
// animation can always wait on it.
func (t *Tracker) Remaining(now, buff float64) float64 {
	d := t.EndSeconds() - now + buff
	if d < 0 {
		return 0
	}
	return d
}
