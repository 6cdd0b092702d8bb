package game

import (
	eaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/rs/zerolog"

	"github.com/Garsondee/Void-Harvest/internal/audio"
)

// maxVoices caps concurrent players so a battle cannot pile up hundreds of
// overlapping shots.
const maxVoices = 12

// soundBoard plays pre-rendered cue PCM through ebiten's audio context.
type soundBoard struct {
	ctx     *eaudio.Context
	pcm     map[audio.Cue][]byte
	playing []*eaudio.Player
	log     zerolog.Logger
}

func newSoundBoard(log zerolog.Logger) *soundBoard {
	ctx := eaudio.CurrentContext()
	if ctx == nil {
		ctx = eaudio.NewContext(int(audio.DefaultSampleRate))
	}
	synth := audio.NewSynth(audio.DefaultSampleRate)
	pcm := make(map[audio.Cue][]byte)
	for _, c := range audio.AllCues() {
		pcm[c] = synth.Render(c)
	}
	log.Debug().Int("cues", len(pcm)).Msg("audio cues rendered")
	return &soundBoard{ctx: ctx, pcm: pcm, log: log}
}

// play starts c. Failures are logged and dropped.
func (b *soundBoard) play(c audio.Cue) {
	data, ok := b.pcm[c]
	if !ok || len(data) == 0 {
		b.log.Debug().Str("cue", c.String()).Msg("no pcm for cue")
		return
	}
	b.reap()
	if len(b.playing) >= maxVoices {
		return
	}
	p := b.ctx.NewPlayerFromBytes(data)
	p.Play()
	b.playing = append(b.playing, p)
}

// reap drops finished players.
func (b *soundBoard) reap() {
	kept := b.playing[:0]
	for _, p := range b.playing {
		if p.IsPlaying() {
			kept = append(kept, p)
			continue
		}
		if err := p.Close(); err != nil {
			b.log.Debug().Err(err).Msg("close audio player")
		}
	}
	clear(b.playing[len(kept):])
	b.playing = kept
}
