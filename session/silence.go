package session

import "time"

const (
	// silenceWarnAfter is how much uninterrupted silence triggers the
	// "no voice detected" warning.
	silenceWarnAfter = 8 * time.Second

	// speechRMSThreshold separates narration from room noise. Matches
	// the level meters in the front-ends.
	speechRMSThreshold = 0.01
)

type silenceEvent int

const (
	silenceNone silenceEvent = iota
	silenceWarn
	silenceCleared
	silenceAutoStop
)

// silenceMonitor watches the captured stream for dead air. It counts
// samples rather than wall-clock time so behavior is deterministic
// under test. Auto-stop only fires when a timeout is configured; the
// warning fires regardless.
type silenceMonitor struct {
	warnFrames uint64
	stopFrames uint64 // 0 = auto-stop disabled

	silentRun uint64
	warned    bool
}

func newSilenceMonitor(sampleRate uint32, timeout time.Duration) *silenceMonitor {
	m := &silenceMonitor{
		warnFrames: uint64(silenceWarnAfter.Seconds() * float64(sampleRate)),
	}
	if timeout > 0 {
		m.stopFrames = uint64(timeout.Seconds() * float64(sampleRate))
	}
	return m
}

// Feed accounts one captured buffer and reports the resulting event,
// if any.
func (m *silenceMonitor) Feed(frames uint64, rms float64) silenceEvent {
	if rms >= speechRMSThreshold {
		m.silentRun = 0
		if m.warned {
			m.warned = false
			return silenceCleared
		}
		return silenceNone
	}

	m.silentRun += frames

	if m.stopFrames > 0 && m.silentRun >= m.stopFrames {
		return silenceAutoStop
	}
	if !m.warned && m.silentRun >= m.warnFrames {
		m.warned = true
		return silenceWarn
	}
	return silenceNone
}
