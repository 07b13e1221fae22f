package apu

// envPhase is the ADSR state. Stringer output is used in the rpc status
// snapshot.
type envPhase uint8

//go:generate go tool stringer -type=envPhase -trimprefix=env
const (
	envIdle envPhase = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// Envelope is the per-channel ADSR unit, clocked at 256 Hz.
//
// Attack raises the volume by one every A+1 ticks, so it hits full volume
// (15) after exactly 15*(A+1) ticks. Decay lowers it to the sustain level
// every D+1 ticks, sustain holds, release fades to zero every R+1 ticks.
type Envelope struct {
	a, d, s, r uint8

	phase envPhase
	vol   uint8
	ticks uint8
}

// load splits the ADSR register: A in bits 0-3, D in 4-7, S in 8-11,
// R in 12-15.
func (e *Envelope) load(adsr uint16) {
	e.a = uint8(adsr) & 0x0F
	e.d = uint8(adsr>>4) & 0x0F
	e.s = uint8(adsr>>8) & 0x0F
	e.r = uint8(adsr>>12) & 0x0F
}

func (e *Envelope) keyOn() {
	e.phase = envAttack
	e.vol = 0
	e.ticks = 0
}

func (e *Envelope) keyOff() {
	if e.phase != envIdle {
		e.phase = envRelease
		e.ticks = 0
	}
}

// Volume is the current 4-bit envelope volume.
func (e *Envelope) Volume() uint8 { return e.vol }

// active reports whether the channel is audible (drives CTL bit 7).
func (e *Envelope) active() bool {
	return e.phase != envIdle
}

func (e *Envelope) mute() {
	e.phase = envIdle
	e.vol = 0
}

// tick advances the envelope by one 256 Hz step.
func (e *Envelope) tick() {
	switch e.phase {
	case envAttack:
		e.ticks++
		if e.ticks >= e.a+1 {
			e.ticks = 0
			e.vol++
			if e.vol >= 15 {
				e.vol = 15
				e.phase = envDecay
			}
		}
	case envDecay:
		if e.vol <= e.s {
			e.vol = e.s
			e.phase = envSustain
			return
		}
		e.ticks++
		if e.ticks >= e.d+1 {
			e.ticks = 0
			e.vol--
		}
	case envRelease:
		e.ticks++
		if e.ticks >= e.r+1 {
			e.ticks = 0
			if e.vol > 0 {
				e.vol--
			}
			if e.vol == 0 {
				e.phase = envIdle
			}
		}
	}
}
