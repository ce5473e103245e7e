package astro

import (
	"time"

	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/rise"
)

const (
	scanStep      = 10 * time.Minute
	bisectionIter = 20
)

// horizon returns the geocentric airless altitude at which b's upper limb
// touches the apparent horizon. The Moon's depends on its distance at from.
func horizon(b Body, from time.Time) float64 {
	switch b {
	case Sun:
		return rise.Stdh0Solar.Rad() * rad2deg
	case Moon:
		_, _, km := moonposition.Position(JulianDay(from))
		return rise.Stdh0Lunar(moonposition.Parallax(km)).Rad() * rad2deg
	default:
		return rise.Stdh0Stellar.Rad() * rad2deg
	}
}

// Events holds the first rise and set after the search start; nil means the
// body did not cross the horizon in that direction within the window.
type Events struct {
	Rise *time.Time
	Set  *time.Time
}

// RiseSet scans [from, from+window) for the first rising and setting of b.
// Circumpolar and never-rising bodies yield nil events.
func RiseSet(b Body, from time.Time, window time.Duration, obs Observer) Events {
	h0 := horizon(b, from)
	f := func(t time.Time) float64 {
		hz, _ := geometric(b, t, obs)
		return hz.Altitude - h0
	}

	var ev Events
	prevT := from
	prev := f(prevT)
	end := from.Add(window)
	for t := from.Add(scanStep); !t.After(end) && (ev.Rise == nil || ev.Set == nil); t = t.Add(scanStep) {
		cur := f(t)
		switch {
		case prev < 0 && cur >= 0 && ev.Rise == nil:
			at := bisect(f, prevT, t)
			ev.Rise = &at
		case prev >= 0 && cur < 0 && ev.Set == nil:
			at := bisect(f, prevT, t)
			ev.Set = &at
		}
		prevT, prev = t, cur
	}
	return ev
}

// bisect narrows a sign change of f in [lo, hi] to about a second.
func bisect(f func(time.Time) float64, lo, hi time.Time) time.Time {
	flo := f(lo)
	for k := 0; k < bisectionIter; k++ {
		mid := lo.Add(hi.Sub(lo) / 2)
		fm := f(mid)
		if (fm >= 0) == (flo >= 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return lo.Add(hi.Sub(lo) / 2).Truncate(time.Second)
}
