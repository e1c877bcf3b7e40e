package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/entities"
	"github.com/satriahrh/sikap/internal/traits"
)

func TestAnalysisService_PreservesSegmentOrder(t *testing.T) {
	track := newSteppedTrack(t, 6, 800)
	clips := clipIndex(t, track, 6)

	svc := NewAnalysisService(
		&fakeRecognizer{clips: clips, scores: segmentScores},
		&fakeSpeechToText{clips: clips, transcribe: segmentText},
		AnalysisConfig{Segments: 6},
		zaptest.NewLogger(t),
	)

	result, err := svc.Analyze(context.Background(), "Tell me about yourself", track)
	require.NoError(t, err)
	require.NoError(t, result.Validate())
	require.Equal(t, 6, result.Segments())

	for i := 0; i < 6; i++ {
		require.Len(t, result.Emotions[i], entities.TopEmotions)
		assert.Equal(t, fmt.Sprintf("E%d", i), result.Emotions[i][0].Name)
		assert.Equal(t, "Interest", result.Emotions[i][1].Name)
		assert.Equal(t, "Calmness", result.Emotions[i][2].Name)
		assert.Equal(t, entities.NewTranscript(fmt.Sprintf("part %d", i)), result.Transcripts[i])
	}
	assert.Equal(t, entities.NewTranscript("the whole answer"), result.FullTranscript)
	assert.Equal(t, "Tell me about yourself", result.Question)
	assert.Empty(t, result.Failures)
}

func TestAnalysisService_IsolatesSegmentFailure(t *testing.T) {
	track := newSteppedTrack(t, 6, 800)
	clips := clipIndex(t, track, 6)

	recognizer := &fakeRecognizer{clips: clips, scores: func(index int) ([]entities.EmotionScore, error) {
		if index == 3 {
			return nil, fmt.Errorf("%w: connection reset", domain.ErrAffectService)
		}
		return segmentScores(index)
	}}
	stt := &fakeSpeechToText{clips: clips, transcribe: func(index int) (string, error) {
		if index == 3 {
			return "", domain.ErrNoSpeechDetected
		}
		return segmentText(index)
	}}

	svc := NewAnalysisService(recognizer, stt, AnalysisConfig{Segments: 6}, zaptest.NewLogger(t))
	result, err := svc.Analyze(context.Background(), "q", track)
	require.NoError(t, err)

	require.Len(t, result.Emotions, 6)
	require.Len(t, result.Transcripts, 6)
	assert.True(t, result.Emotions[3].IsEmpty())
	assert.False(t, result.Transcripts[3].Available)

	for _, i := range []int{0, 1, 2, 4, 5} {
		assert.Len(t, result.Emotions[i], 3, "segment %d", i)
		assert.True(t, result.Transcripts[i].Available, "segment %d", i)
	}

	require.Len(t, result.Failures, 2)
	assert.Equal(t, 3, result.Failures[0].Index)
	assert.Equal(t, entities.FailureStageEmotion, result.Failures[0].Stage)
	assert.Equal(t, entities.FailureStageTranscription, result.Failures[1].Stage)
	assert.Contains(t, result.Failures[1].Reason, "no speech")

	// The empty slot still counts towards the averages, as zero
	agg, err := traits.Aggregate(result.Emotions)
	require.NoError(t, err)
	assert.Equal(t, 6, agg.Segments())
	assert.InDelta(t, 5*0.5/6, agg.Average["Interest"], 1e-9)
	assert.InDelta(t, 5*0.2/6, agg.Average["Calmness"], 1e-9)
	assert.InDelta(t, 0.9/6, agg.Average["E0"], 1e-9)
	assert.NotContains(t, agg.Average, "E3")
	assert.Equal(t, 0.0, agg.Sequence("Interest")[3])

	global, err := newTestRanker(t).Global(result.Emotions)
	require.NoError(t, err)
	require.Len(t, global, traits.DefaultTopN)
	for i, score := range global {
		assert.GreaterOrEqual(t, score.Score, traits.MinScore)
		assert.LessOrEqual(t, score.Score, traits.MaxScore)
		if i > 0 {
			assert.GreaterOrEqual(t, global[i-1].Score, score.Score)
		}
	}
}

func TestAnalysisService_FullTrackFailure(t *testing.T) {
	track := newSteppedTrack(t, 6, 800)
	clips := clipIndex(t, track, 6)

	stt := &fakeSpeechToText{clips: clips, transcribe: func(index int) (string, error) {
		if index == entities.FullTrackIndex {
			return "", fmt.Errorf("%w: quota exceeded", domain.ErrTranscriptionService)
		}
		return segmentText(index)
	}}

	svc := NewAnalysisService(&fakeRecognizer{clips: clips, scores: segmentScores}, stt, AnalysisConfig{Segments: 6}, zaptest.NewLogger(t))
	result, err := svc.Analyze(context.Background(), "q", track)
	require.NoError(t, err)

	assert.False(t, result.FullTranscript.Available)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, entities.FullTrackIndex, result.Failures[0].Index)
	assert.Contains(t, result.Failures[0].Reason, "quota exceeded")
}

func TestAnalysisService_RunsSegmentsConcurrently(t *testing.T) {
	const n = 6
	track := newSteppedTrack(t, n, 800)
	clips := clipIndex(t, track, n)

	// Every call waits until all n segment calls have started
	var mu sync.Mutex
	started := 0
	allStarted := make(chan struct{})
	recognizer := &fakeRecognizer{clips: clips, scores: func(index int) ([]entities.EmotionScore, error) {
		mu.Lock()
		started++
		if started == n {
			close(allStarted)
		}
		mu.Unlock()

		select {
		case <-allStarted:
			return segmentScores(index)
		case <-time.After(5 * time.Second):
			return nil, errors.New("segments were not analyzed concurrently")
		}
	}}

	svc := NewAnalysisService(recognizer, &fakeSpeechToText{clips: clips, transcribe: segmentText}, AnalysisConfig{Segments: n}, zaptest.NewLogger(t))
	result, err := svc.Analyze(context.Background(), "q", track)
	require.NoError(t, err)
	assert.Empty(t, result.Failures)
	assert.Len(t, recognizer.calls, n)
}

func TestAnalysisService_InvalidSegmentCount(t *testing.T) {
	track := newSteppedTrack(t, 1, 100)
	svc := NewAnalysisService(&fakeRecognizer{}, &fakeSpeechToText{}, AnalysisConfig{Segments: 0}, zaptest.NewLogger(t))

	_, err := svc.Analyze(context.Background(), "q", track)
	assert.True(t, errors.Is(err, domain.ErrInvalidSegmentCount))
}

func TestAnalysisService_AnalyzeSegmentsOverridesCount(t *testing.T) {
	track := newSteppedTrack(t, 6, 800)
	clips := clipIndex(t, track, 3)

	svc := NewAnalysisService(
		&fakeRecognizer{clips: clips, scores: segmentScores},
		&fakeSpeechToText{clips: clips, transcribe: segmentText},
		AnalysisConfig{Segments: 6},
		zaptest.NewLogger(t),
	)

	result, err := svc.AnalyzeSegments(context.Background(), "Why Go?", track, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Segments())
	assert.Empty(t, result.Failures)
	assert.Equal(t, 6, svc.Segments())
}

func TestAnalysisService_RejectsOversizedSegmentCount(t *testing.T) {
	track := newSteppedTrack(t, 6, 800)
	recognizer := &fakeRecognizer{}
	svc := NewAnalysisService(recognizer, &fakeSpeechToText{}, AnalysisConfig{Segments: 6, MaxSegments: 8}, zaptest.NewLogger(t))

	_, err := svc.AnalyzeSegments(context.Background(), "q", track, 9)
	assert.True(t, errors.Is(err, domain.ErrInvalidSegmentCount))

	_, err = svc.AnalyzeSegments(context.Background(), "q", track, 50_000_000)
	assert.True(t, errors.Is(err, domain.ErrInvalidSegmentCount))

	// Within the limit but more segments than samples
	short := newSteppedTrack(t, 1, 4)
	_, err = svc.AnalyzeSegments(context.Background(), "q", short, 6)
	assert.True(t, errors.Is(err, domain.ErrInvalidSegmentCount))
	assert.Empty(t, recognizer.calls)
}
