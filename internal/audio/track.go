package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/orcaman/writerseeker"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/entities"
)

// pcmPrecision is the sample width, in bytes, of every clip handed to the speech services.
const pcmPrecision = 2

// Track is a fully decoded WAV recording held as 16-bit PCM
type Track struct {
	buffer *beep.Buffer
	raw    []byte
}

// Decode reads a WAV file into memory. 8, 24 and 32-bit input is converted to 16-bit.
func Decode(data []byte) (*Track, error) {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode wav: %v", domain.ErrInvalidAudio, err)
	}
	defer streamer.Close()

	original := format.Precision
	format.Precision = pcmPrecision
	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read wav samples: %v", domain.ErrInvalidAudio, err)
	}

	t := &Track{buffer: buffer, raw: data}
	if original != pcmPrecision {
		if t.raw, err = t.encodeRange(0, buffer.Len()); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NewTrack renders a streamer into a track, encoding it as 16-bit WAV
func NewTrack(format beep.Format, streamer beep.Streamer) (*Track, error) {
	format.Precision = pcmPrecision
	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	t := &Track{buffer: buffer}
	raw, err := t.encodeRange(0, buffer.Len())
	if err != nil {
		return nil, err
	}
	t.raw = raw
	return t, nil
}

// Len returns the number of samples per channel
func (t *Track) Len() int {
	return t.buffer.Len()
}

// SampleRate returns the sample rate in Hz
func (t *Track) SampleRate() int {
	return int(t.buffer.Format().SampleRate)
}

// Format returns the decoded audio format
func (t *Track) Format() beep.Format {
	return t.buffer.Format()
}

// Bytes returns the track as a 16-bit WAV file; 16-bit input is returned unchanged
func (t *Track) Bytes() []byte {
	return t.raw
}

// Segments splits the track into n segments
func (t *Track) Segments(n int) ([]entities.AudioSegment, error) {
	return Segment(t.Len(), n)
}

// Encode renders one segment as a standalone WAV file
func (t *Track) Encode(segment entities.AudioSegment) ([]byte, error) {
	if segment.Start < 0 || segment.End > t.Len() || segment.Start > segment.End {
		return nil, fmt.Errorf("segment %d range [%d, %d) outside track of %d samples",
			segment.Index, segment.Start, segment.End, t.Len())
	}
	return t.encodeRange(segment.Start, segment.End)
}

func (t *Track) encodeRange(from, to int) ([]byte, error) {
	out := &writerseeker.WriterSeeker{}
	if err := wav.Encode(out, t.buffer.Streamer(from, to), t.buffer.Format()); err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	data, err := io.ReadAll(out.BytesReader())
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded wav: %w", err)
	}
	return data, nil
}
