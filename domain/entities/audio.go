package entities

// AudioSegment is the sample range [Start, End) of a source track.
type AudioSegment struct {
	Index int `json:"index"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of samples covered by the segment
func (s AudioSegment) Len() int {
	return s.End - s.Start
}
