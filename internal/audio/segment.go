package audio

import (
	"fmt"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/entities"
)

// DefaultSegments is the number of segments an answer is split into unless configured otherwise.
const DefaultSegments = 6

// Segment splits a track of length samples into n equal, contiguous segments.
// The length%n trailing samples are dropped. Every segment holds at least one sample.
func Segment(length, n int) ([]entities.AudioSegment, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: must be at least 1, got %d", domain.ErrInvalidSegmentCount, n)
	}
	if n > length {
		return nil, fmt.Errorf("%w: %d segments exceed the %d samples of the track", domain.ErrInvalidSegmentCount, n, length)
	}

	width := length / n
	segments := make([]entities.AudioSegment, n)
	for i := 0; i < n; i++ {
		segments[i] = entities.AudioSegment{
			Index: i,
			Start: i * width,
			End:   (i + 1) * width,
		}
	}
	return segments, nil
}
