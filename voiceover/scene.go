package voiceover

import (
	"path/filepath"
	"strings"
)

// Subcaption is a caption line scheduled against the scene timeline.
type Subcaption struct {
	Text            string
	OffsetSeconds   float64
	DurationSeconds float64
}

// Scene sequences voiceovers against a running animation clock. It is
// the glue a rendering front-end drives: Advance as animations play,
// Voiceover around each narrated block.
type Scene struct {
	svc     *Service
	time    float64
	voiceID int

	// CreateSubcaption controls whether each voiceover also emits
	// wrapped caption lines spread over its duration.
	CreateSubcaption bool
	SubcaptionMaxLen int
	SubcaptionBuff   float64

	subcaptions []Subcaption
	current     *Tracker
}

func NewScene(svc *Service) *Scene {
	return &Scene{
		svc:              svc,
		voiceID:          -1,
		CreateSubcaption: true,
		SubcaptionMaxLen: 70,
		SubcaptionBuff:   0.1,
	}
}

// Time reports the scene clock in seconds.
func (s *Scene) Time() float64 { return s.time }

// Advance moves the scene clock forward, mirroring animation playback.
func (s *Scene) Advance(seconds float64) {
	if seconds > 0 {
		s.time += seconds
	}
}

// Voiceover records (or reuses) the take for text and runs fn with a
// tracker scoped to it. When fn returns, the scene clock is pushed to
// the end of the narration so the next block never overlaps it.
func (s *Scene) Voiceover(text string, fn func(*Tracker) error) error {
	s.voiceID++
	entry, err := s.svc.Generate(text, s.voiceID)
	if err != nil {
		return err
	}
	dur, err := s.svc.Duration(entry)
	if err != nil {
		return err
	}
	tracker := &Tracker{
		Path:            filepath.Join(s.svc.CacheDir(), entry.FinalAudio),
		DurationSeconds: dur,
		StartSeconds:    s.time,
	}
	s.current = tracker
	if s.CreateSubcaption {
		s.addWrappedSubcaption(text, tracker.StartSeconds, dur)
	}

	defer func() {
		if end := tracker.EndSeconds(); s.time < end {
			s.time = end
		}
		s.current = nil
	}()
	return fn(tracker)
}

// WaitForVoiceover advances the clock past the current narration.
func (s *Scene) WaitForVoiceover() {
	if s.current != nil && s.time < s.current.EndSeconds() {
		s.time = s.current.EndSeconds()
	}
}

// Subcaptions returns every caption emitted so far, in timeline order.
func (s *Scene) Subcaptions() []Subcaption { return s.subcaptions }

// addWrappedSubcaption splits content into chunks of at most maxLen
// characters, never breaking inside a word, and spreads the narration
// duration over the chunks proportionally to their length.
func (s *Scene) addWrappedSubcaption(content string, offset, duration float64) {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return
	}
	chunks := wrapText(content, s.SubcaptionMaxLen)

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	at := offset
	for _, c := range chunks {
		share := duration * float64(len(c)) / float64(total)
		s.subcaptions = append(s.subcaptions, Subcaption{
			Text:            c,
			OffsetSeconds:   at,
			DurationSeconds: share - s.SubcaptionBuff,
		})
		at += share
	}
}

func wrapText(content string, maxLen int) []string {
	words := strings.Fields(content)
	var chunks []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+1+len(w) > maxLen {
			chunks = append(chunks, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
	}
	if line.Len() > 0 {
		chunks = append(chunks, line.String())
	}
	return chunks
}
