// Package sound renders short feedback tones as 16-bit mono PCM. The output
// writer is expected to be a real-time audio sink (a pipe into a player such
// as aplay); a nil writer makes every call a no-op.
package sound

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"
)

const SampleRate = 8000

// Tone frequencies for the three effects.
const (
	clickHz     = 800
	swapStartHz = 440
	swapEndHz   = 880
)

// victoryHz is a C-E-G-C arpeggio.
var victoryHz = []float64{523.25, 659.25, 783.99, 1046.50}

type Player struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
}

func NewPlayer(out io.Writer) *Player {
	return &Player{out: out, enabled: true}
}

// SetEnabled toggles all playback; the flag is the player's only state.
func (p *Player) SetEnabled(enabled bool) {
	p.mu.Lock()
	p.enabled = enabled
	p.mu.Unlock()
}

func (p *Player) Click() {
	p.play(func() { p.sweep(clickHz, clickHz, 100*time.Millisecond, 0.3) })
}

func (p *Player) Swap() {
	p.play(func() { p.sweep(swapStartHz, swapEndHz, 200*time.Millisecond, 0.5) })
}

func (p *Player) Victory() {
	p.play(func() {
		for _, hz := range victoryHz {
			p.sweep(hz, hz, 100*time.Millisecond, 0.2)
		}
	})
}

func (p *Player) play(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.out == nil {
		return
	}
	f()
}

// sweep writes a sine tone gliding from f0 to f1 with an exponential decay
// envelope. Caller holds the lock.
func (p *Player) sweep(f0, f1 float64, dur time.Duration, gain float64) {
	n := int(float64(SampleRate) * dur.Seconds())
	buf := make([]byte, 2*n)
	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		freq := f0 + (f1-f0)*t
		phase += 2 * math.Pi * freq / SampleRate
		env := gain * math.Pow(0.01/gain, t)
		sample := int16(env * math.Sin(phase) * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(sample))
	}
	_, _ = p.out.Write(buf)
}
