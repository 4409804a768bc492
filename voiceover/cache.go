package voiceover

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const cacheFile = "cache.json"

// InputData identifies a cached take: the text that was read and the
// capture settings in effect when it was recorded.
type InputData struct {
	InputText string        `json:"input_text"`
	Config    CaptureConfig `json:"config"`
}

type CaptureConfig struct {
	SampleRate uint32 `json:"sample_rate"`
	Channels   uint32 `json:"channels"`
	Format     string `json:"format"`
}

// CacheEntry maps one voiceover slot to its files on disk. File names
// are relative to the cache dir. FinalAudio differs from OriginalAudio
// only when a global speed adjustment was applied.
type CacheEntry struct {
	InputData     InputData `json:"input_data"`
	OriginalAudio string    `json:"original_audio"`
	FinalAudio    string    `json:"final_audio"`
}

func loadCache(dir string) ([]CacheEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func saveCache(dir string, entries []CacheEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}

// storeEntry appends entry at slot voiceID, or replaces the slot when
// its input no longer matches. Replacing removes the stale audio files
// so the cache dir never accumulates takes nothing references.
func storeEntry(dir string, entry CacheEntry, voiceID int) error {
	entries, err := loadCache(dir)
	if err != nil {
		return err
	}
	if voiceID >= 0 && voiceID < len(entries) {
		old := entries[voiceID]
		if old.InputData == entry.InputData {
			return nil
		}
		removeTakeFiles(dir, old)
		entries[voiceID] = entry
	} else {
		entries = append(entries, entry)
	}
	return saveCache(dir, entries)
}

// cachedEntry returns the slot's entry when its input still matches.
// Out-of-range slots fall back to scanning the whole cache, so a scene
// edited to reorder voiceovers still reuses existing takes.
func cachedEntry(dir string, input InputData, voiceID int) (CacheEntry, bool) {
	entries, err := loadCache(dir)
	if err != nil {
		return CacheEntry{}, false
	}
	if voiceID >= 0 && voiceID < len(entries) {
		if entries[voiceID].InputData == input {
			return entries[voiceID], true
		}
		return CacheEntry{}, false
	}
	for _, e := range entries {
		if e.InputData == input {
			return e, true
		}
	}
	return CacheEntry{}, false
}

func removeTakeFiles(dir string, e CacheEntry) {
	if e.OriginalAudio != "" {
		os.Remove(filepath.Join(dir, e.OriginalAudio))
	}
	if e.FinalAudio != "" && e.FinalAudio != e.OriginalAudio {
		os.Remove(filepath.Join(dir, e.FinalAudio))
	}
}
