package anim

import (
	"errors"
	"fmt"
)

// ErrEmptyClip is returned for a clip without channels.
var ErrEmptyClip = errors.New("clip has no channels")

// Clip is a named set of channels played together.
//
// Start is the earliest first keyframe. End is the earliest last keyframe,
// the point where the first channel runs out. Duration is the latest last
// keyframe.
type Clip struct {
	Name     string
	Channels []Channel
	Start    float32
	End      float32
	Duration float32
}

// NewClip validates channels and derives the clip's time range.
func NewClip(name string, channels []Channel) (*Clip, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("clip %q: %w", name, ErrEmptyClip)
	}

	c := &Clip{Name: name, Channels: channels}
	for i := range channels {
		ch := &channels[i]
		if ch.Len() == 0 {
			return nil, fmt.Errorf("clip %q channel %d: %w", name, i, ErrEmptyChannel)
		}
		want := len(ch.Vectors)
		if ch.Property == Rotation {
			want = len(ch.Rotations)
		}
		if want != ch.Len() {
			return nil, fmt.Errorf("clip %q channel %d: %w", name, i, ErrKeyframeMismatch)
		}

		if i == 0 {
			c.Start, c.End, c.Duration = ch.Start(), ch.End(), ch.End()
			continue
		}
		c.Start = min(c.Start, ch.Start())
		c.End = min(c.End, ch.End())
		c.Duration = max(c.Duration, ch.End())
	}
	return c, nil
}

// Exhausted reports whether any channel has run out of keyframes at t.
func (c *Clip) Exhausted(t float32) bool {
	return t > c.End
}

// Targets returns the distinct nodes the clip animates, in first-seen order.
func (c *Clip) Targets() []int {
	seen := make(map[int]bool, len(c.Channels))
	var out []int
	for i := range c.Channels {
		n := c.Channels[i].Node
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// String returns a short summary for logs.
func (c *Clip) String() string {
	return fmt.Sprintf("%s (%d channels, %.3fs..%.3fs)", c.Name, len(c.Channels), c.Start, c.Duration)
}
