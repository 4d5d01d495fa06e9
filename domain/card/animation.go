package card

import (
	"math"

	"youtube-card/domain/model"
)

const (
	springMass      = 1.0
	springDamping   = 10.0
	springStiffness = 100.0
	springThreshold = 0.005

	slideFrames = 30
	slideOffset = 20
)

// Per-element entry delays, in frames.
const (
	DelayContainer = 0
	DelayThumbnail = 5
	DelayTitle     = 10
	DelayChannel   = 15
	DelayStats     = 20
)

// Motion is the animated state of one element. OffsetY is in design units.
type Motion struct {
	Opacity float64
	OffsetY float64
}

var rest = Motion{Opacity: 1}

// Animation carries the per-element state of one frame.
type Animation struct {
	Container Motion
	Thumbnail Motion
	Title     Motion
	Channel   Motion
	Stats     Motion
	// ProgressBar overrides the theme percentage when set.
	ProgressBar *float64
}

// FrameAnimation computes the animation state of frame for a clip of total frames.
func FrameAnimation(theme model.Theme, frame, fps, total int) Animation {
	start := 100.0
	if theme.Options.ProgressBar != nil {
		start = *theme.Options.ProgressBar
	}
	end := math.Min(100, start+float64(total)/float64(maxInt(fps, 1)))
	progress := Interpolate(float64(frame), [2]float64{0, float64(total)}, [2]float64{start, end})

	return Animation{
		Container:   Slide(frame, fps, DelayContainer, total),
		Thumbnail:   Slide(frame, fps, DelayThumbnail, total),
		Title:       Slide(frame, fps, DelayTitle, total),
		Channel:     Slide(frame, fps, DelayChannel, total),
		Stats:       Slide(frame, fps, DelayStats, total),
		ProgressBar: &progress,
	}
}

// Slide is the enter/leave fade of an element delayed by delay frames.
func Slide(frame, fps, delay, total int) Motion {
	enterStart := delay
	enterEnd := enterStart + slideFrames
	leaveStart := total - slideFrames - delay

	p := 1.0
	switch {
	case frame < enterEnd:
		p = Spring(float64(frame-enterStart), float64(fps), slideFrames)
	case frame > leaveStart:
		p = Spring(float64(slideFrames-(frame-leaveStart)), float64(fps), slideFrames)
	}
	return Motion{Opacity: p, OffsetY: slideOffset * (1 - p)}
}

// Spring is a damped spring from 0 to 1 stretched to settle at duration frames, clamped to [0,1].
func Spring(frame, fps, duration float64) float64 {
	if fps <= 0 || duration <= 0 {
		return 1
	}
	if frame <= 0 {
		return 0
	}
	natural := springSettleFrames(fps)
	t := frame * natural / duration / fps
	return clamp(springAt(t), 0, 1)
}

// springAt is the closed-form position of the spring released at 0 towards 1 after t seconds.
func springAt(t float64) float64 {
	omega0 := math.Sqrt(springStiffness / springMass)
	zeta := springDamping / (2 * math.Sqrt(springStiffness*springMass))
	switch {
	case zeta < 1:
		omega1 := omega0 * math.Sqrt(1-zeta*zeta)
		envelope := math.Exp(-zeta * omega0 * t)
		return 1 - envelope*(math.Cos(omega1*t)+(zeta*omega0/omega1)*math.Sin(omega1*t))
	case zeta == 1:
		return 1 - math.Exp(-omega0*t)*(1+omega0*t)
	default:
		r := omega0 * math.Sqrt(zeta*zeta-1)
		a := -zeta*omega0 + r
		b := -zeta*omega0 - r
		return 1 - (b*math.Exp(a*t)-a*math.Exp(b*t))/(b-a)
	}
}

// springSettleFrames is the frame count after which the oscillation envelope stays within springThreshold of rest.
func springSettleFrames(fps float64) float64 {
	omega0 := math.Sqrt(springStiffness / springMass)
	zeta := springDamping / (2 * math.Sqrt(springStiffness*springMass))
	if zeta >= 1 {
		zeta = 0.99
	}
	seconds := math.Log(1/(springThreshold*math.Sqrt(1-zeta*zeta))) / (zeta * omega0)
	return math.Ceil(seconds * fps)
}

// Interpolate maps x from the input range onto the output range, clamped on both sides.
func Interpolate(x float64, in, out [2]float64) float64 {
	if in[1] == in[0] {
		return out[1]
	}
	ratio := clamp((x-in[0])/(in[1]-in[0]), 0, 1)
	return out[0] + ratio*(out[1]-out[0])
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
