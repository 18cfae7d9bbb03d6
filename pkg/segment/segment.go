// Package segment turns an ordered day of frames into encodable groups
// and app attribution spans.
package segment

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/papercomputeco/playback/pkg/frame"
)

// NewID returns a 20-hex-char segment identifier.
func NewID() string {
	var b [10]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("segment: reading random id: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

// Group splits frames into consecutive segments of at most maxPerSegment
// frames, starting a new segment whenever the frame resolution changes so
// a single video never mixes display formats. Frames must already be in
// timeline order. maxPerSegment <= 0 disables the count limit and yields
// a single group per resolution run.
func Group(frames []frame.Event, maxPerSegment int) [][]frame.Event {
	if len(frames) == 0 {
		return nil
	}

	var (
		groups  [][]frame.Event
		current []frame.Event
		curW    int
		curH    int
	)

	for _, f := range frames {
		if len(current) == 0 {
			current = []frame.Event{f}
			curW, curH = f.Width, f.Height
			continue
		}

		reachedMax := maxPerSegment > 0 && len(current) >= maxPerSegment
		sizeChanged := f.Width != curW || f.Height != curH

		if reachedMax || sizeChanged {
			groups = append(groups, current)
			current = []frame.Event{f}
			curW, curH = f.Width, f.Height
			continue
		}
		current = append(current, f)
	}

	return append(groups, current)
}

// Span is a maximal run of consecutive frames attributed to one app.
type Span struct {
	AppID   *string
	StartTS float64
	EndTS   float64
}

// AppSpans run-length encodes the frames' app attribution. Adjacent
// frames with the same app id (including both-nil) share a span; the span
// covers the first through last frame timestamp of the run.
func AppSpans(frames []frame.Event) []Span {
	if len(frames) == 0 {
		return nil
	}

	var spans []Span
	cur := Span{AppID: frames[0].AppID, StartTS: frames[0].Timestamp, EndTS: frames[0].Timestamp}

	for _, f := range frames[1:] {
		if sameApp(cur.AppID, f.AppID) {
			cur.EndTS = f.Timestamp
			continue
		}
		spans = append(spans, cur)
		cur = Span{AppID: f.AppID, StartTS: f.Timestamp, EndTS: f.Timestamp}
	}

	return append(spans, cur)
}

func sameApp(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
