// Package audio synthesises the game's sound cues. Every cue is generated
// procedurally with beep streamers, so there are no asset files to load.
package audio

import (
	"encoding/binary"
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// DefaultSampleRate matches the ebiten audio context created by the game shell.
const DefaultSampleRate = beep.SampleRate(44100)

// Wave is an oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
)

// sweep is an oscillator whose frequency moves from f0 to f1 over its
// duration, exponentially or linearly.
type sweep struct {
	f0, f1   float64
	expo     bool
	wave     Wave
	rate     beep.SampleRate
	rng      *rand.Rand
	phase    float64
	position int
	length   int
}

func newSweep(f0, f1 float64, expo bool, d time.Duration, w Wave, rate beep.SampleRate, rng *rand.Rand) *sweep {
	return &sweep{f0: f0, f1: f1, expo: expo, wave: w, rate: rate, rng: rng, length: rate.N(d)}
}

func tone(freq float64, d time.Duration, w Wave, rate beep.SampleRate, rng *rand.Rand) *sweep {
	return newSweep(freq, freq, false, d, w, rate, rng)
}

func (s *sweep) freq() float64 {
	if s.length <= 1 || s.f0 == s.f1 {
		return s.f0
	}
	t := float64(s.position) / float64(s.length-1)
	if s.expo && s.f0 > 0 && s.f1 > 0 {
		return s.f0 * math.Pow(s.f1/s.f0, t)
	}
	return s.f0 + (s.f1-s.f0)*t
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.position >= s.length {
			return i, i > 0
		}
		var v float64
		switch s.wave {
		case WaveSine:
			v = math.Sin(2 * math.Pi * s.phase)
		case WaveSquare:
			v = 1
			if s.phase >= 0.5 {
				v = -1
			}
		case WaveSaw:
			v = 2 * (s.phase - 0.5)
		case WaveTriangle:
			v = 4*math.Abs(s.phase-0.5) - 1
		case WaveNoise:
			v = s.rng.Float64()*2 - 1
		}
		samples[i][0] = v
		samples[i][1] = v

		s.phase += s.freq() / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// gainCurve multiplies a stream by a gain computed from the sample position.
type gainCurve struct {
	streamer beep.Streamer
	position int
	length   int
	gain     func(t float64) float64
}

func shape(s beep.Streamer, d time.Duration, rate beep.SampleRate, gain func(t float64) float64) beep.Streamer {
	return &gainCurve{streamer: s, length: rate.N(d), gain: gain}
}

func (g *gainCurve) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = g.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		t := 1.0
		if g.length > 0 {
			t = math.Min(1, float64(g.position)/float64(g.length))
		}
		v := g.gain(t)
		samples[i][0] *= v
		samples[i][1] *= v
		g.position++
	}
	return n, ok
}

func (g *gainCurve) Err() error { return g.streamer.Err() }

// expDecay falls from 1 to floor over the clip, like an exponential ramp.
func expDecay(floor float64) func(float64) float64 {
	return func(t float64) float64 { return math.Pow(floor, t) }
}

// volume wraps s in a linear gain; 0 or less is silent.
func volume(s beep.Streamer, v float64) beep.Streamer {
	if v <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(v)}
}

// Synth builds cue streamers at a fixed sample rate and master volume.
type Synth struct {
	Rate   beep.SampleRate
	Master float64
	rng    *rand.Rand
}

// NewSynth returns a synth with master volume 0.3.
func NewSynth(rate beep.SampleRate) *Synth {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Synth{
		Rate:   rate,
		Master: 0.3,
		rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- noise, not security
	}
}

// Streamer returns a fresh, finite streamer for c, or nil for CueNone.
func (s *Synth) Streamer(c Cue) beep.Streamer {
	st, d := s.voice(c)
	if st == nil {
		return nil
	}
	return beep.Take(s.Rate.N(d), st)
}

func (s *Synth) voice(c Cue) (beep.Streamer, time.Duration) {
	r := s.Rate
	switch c {
	case CueShoot:
		d := 200 * time.Millisecond
		osc := newSweep(800, 100, true, d, WaveSine, r, s.rng)
		return volume(shape(osc, d, r, expDecay(0.02)), s.Master*0.5), d
	case CueExplode:
		d := 500 * time.Millisecond
		noise := tone(0, d, WaveNoise, r, s.rng)
		rumble := newSweep(120, 40, true, d, WaveSine, r, s.rng)
		mixed := beep.Mix(volume(noise, 0.6), volume(rumble, 0.4))
		return volume(shape(mixed, d, r, expDecay(0.01)), s.Master), d
	case CueSelect:
		d := 100 * time.Millisecond
		return volume(shape(tone(600, d, WaveSquare, r, s.rng), d, r, expDecay(0.05)), s.Master*0.2), d
	case CuePowerup:
		d := 500 * time.Millisecond
		osc := newSweep(400, 1200, false, d, WaveSine, r, s.rng)
		return volume(shape(osc, d, r, func(t float64) float64 {
			if t < 0.2 {
				return t / 0.2
			}
			return (1 - t) / 0.8
		}), s.Master), d
	case CueWarning:
		d := 100 * time.Millisecond
		beepOn := func() beep.Streamer { return tone(600, d, WaveSaw, r, s.rng) }
		return volume(beep.Seq(beepOn(), beep.Silence(r.N(d)), beepOn()), s.Master), 3 * d
	case CueGameStart:
		return s.chord([]float64{261.63, 329.63, 392.00}, time.Second), time.Second
	case CueGameOver:
		return s.chord([]float64{220.00, 196.00, 185.00}, 2*time.Second), 2 * time.Second
	default:
		return nil, 0
	}
}

func (s *Synth) chord(freqs []float64, d time.Duration) beep.Streamer {
	voices := make([]beep.Streamer, len(freqs))
	for i, f := range freqs {
		voices[i] = shape(tone(f, d, WaveTriangle, s.Rate, s.rng), d, s.Rate, expDecay(0.03))
	}
	return volume(beep.Mix(voices...), s.Master*0.3)
}

// Render synthesises c to interleaved 16-bit little-endian stereo PCM, the
// format ebiten's audio players take.
func (s *Synth) Render(c Cue) []byte {
	st := s.Streamer(c)
	if st == nil {
		return nil
	}
	var out []byte
	buf := make([][2]float64, 512)
	for {
		n, ok := st.Stream(buf)
		for _, smp := range buf[:n] {
			out = binary.LittleEndian.AppendUint16(out, uint16(toInt16(smp[0])))
			out = binary.LittleEndian.AppendUint16(out, uint16(toInt16(smp[1])))
		}
		if !ok {
			return out
		}
	}
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(v * math.MaxInt16)
}
