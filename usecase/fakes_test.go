package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/sikap/domain/entities"
	"github.com/satriahrh/sikap/domain/repositories"
	"github.com/satriahrh/sikap/internal/audio"
)

var testFormat = beep.Format{SampleRate: 16000, NumChannels: 1, Precision: 2}

// newSteppedTrack builds a track whose segments each hold a distinct constant level,
// so every encoded segment clip is unique.
func newSteppedTrack(t *testing.T, segments, width int) *audio.Track {
	t.Helper()
	total := segments * width
	pos := 0
	streamer := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < total {
			v := float64(pos/width+1) * 0.1
			samples[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})

	track, err := audio.NewTrack(testFormat, streamer)
	require.NoError(t, err)
	return track
}

// clipIndex maps every encoded segment clip, and the full track, to its index
func clipIndex(t *testing.T, track *audio.Track, n int) map[string]int {
	t.Helper()
	segments, err := track.Segments(n)
	require.NoError(t, err)

	index := map[string]int{string(track.Bytes()): entities.FullTrackIndex}
	for _, s := range segments {
		clip, err := track.Encode(s)
		require.NoError(t, err)
		index[string(clip)] = s.Index
	}
	return index
}

type fakeRecognizer struct {
	clips  map[string]int
	scores func(index int) ([]entities.EmotionScore, error)

	mu    sync.Mutex
	calls []int
}

func (f *fakeRecognizer) Recognize(ctx context.Context, wav []byte) ([]entities.EmotionScore, error) {
	index, ok := f.clips[string(wav)]
	if !ok {
		return nil, fmt.Errorf("unknown clip")
	}
	f.mu.Lock()
	f.calls = append(f.calls, index)
	f.mu.Unlock()
	return f.scores(index)
}

type fakeSpeechToText struct {
	clips      map[string]int
	transcribe func(index int) (string, error)
}

func (f *fakeSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	index, ok := f.clips[string(audioData)]
	if !ok {
		return "", fmt.Errorf("unknown clip")
	}
	return f.transcribe(index)
}

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// segmentScores reports four emotions whose strongest one is named after the segment
func segmentScores(index int) ([]entities.EmotionScore, error) {
	return []entities.EmotionScore{
		{Name: "Calmness", Score: 0.2},
		{Name: fmt.Sprintf("E%d", index), Score: 0.9},
		{Name: "Interest", Score: 0.5},
		{Name: "Doubt", Score: 0.1},
	}, nil
}

func segmentText(index int) (string, error) {
	if index == entities.FullTrackIndex {
		return "the whole answer", nil
	}
	return fmt.Sprintf("part %d", index), nil
}
