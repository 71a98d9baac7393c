// Package apu emulates the console's programmable sound generator: two
// pulse channels, triangle, noise, DMC, and the frame sequencer that clocks
// their envelope, sweep and length units. It advances one tick per CPU
// cycle and emits 8-bit unsigned mono PCM at 44.1 kHz in 735-sample blocks,
// one block per video frame.
package apu

import "github.com/ktakagaki/nescore/internal/logx"

// SampleRate is the output sample rate in Hz.
const SampleRate = 44100

// SamplesPerFrame is the block size handed to the sink (one 60 Hz frame).
const SamplesPerFrame = 735

// samplePeriod is how many CPU cycles separate two output samples
// (~1.79 MHz / 40 is about 44.7 kHz, slightly above SampleRate).
const samplePeriod = 40

// Frame sequencer phase boundaries in CPU cycles since the sequence start.
var (
	seqPhases4 = [4]uint32{7457, 14913, 22371, 29828}
	seqPhases5 = [5]uint32{7457, 14913, 22371, 29829, 37281}
)

// Sink receives completed audio blocks. The slice is reused; consumers that
// keep the data past the call must copy it.
type Sink func(samples []uint8)

// APU is the sound generator. It owns all channel state; the DMC's sample
// fetches go through the memory reader wired in by the console.
type APU struct {
	pulse1 pulse
	pulse2 pulse
	tri    triangle
	noise  noise
	dmc    dmc

	fiveStep   bool
	irqInhibit bool
	frameIRQ   bool
	seqPhase   int
	seqCycle   uint32

	cycle    uint64
	apuCycle uint64

	out      [SamplesPerFrame]uint8
	outIndex int
	ready    bool
	sink     Sink
	readMem  func(uint16) uint8
}

func New() *APU {
	a := &APU{}
	a.pulse1.negateExtra = 1
	a.noise.shift = 1
	a.dmc.bitsLeft = 8
	return a
}

// Reset returns the channels and sequencer to power-on state. The output
// buffer position is kept so the sample cadence stays continuous.
func (a *APU) Reset() {
	*a = APU{sink: a.sink, readMem: a.readMem, outIndex: a.outIndex}
	a.pulse1.negateExtra = 1
	a.noise.shift = 1
	a.dmc.bitsLeft = 8
}

// SetAudioSink installs the consumer for completed sample blocks.
func (a *APU) SetAudioSink(s Sink) { a.sink = s }

// SetMemoryReader wires the bus read used for DMC sample fetches.
func (a *APU) SetMemoryReader(read func(uint16) uint8) { a.readMem = read }

// WriteReg handles CPU writes in 0x4000-0x4017.
func (a *APU) WriteReg(addr uint16, v uint8) {
	switch addr {
	case 0x4000:
		a.pulse1.writeControl(v)
	case 0x4001:
		a.pulse1.writeSweep(v)
	case 0x4002:
		a.pulse1.writeTimerLow(v)
	case 0x4003:
		a.pulse1.writeTimerHigh(v)
	case 0x4004:
		a.pulse2.writeControl(v)
	case 0x4005:
		a.pulse2.writeSweep(v)
	case 0x4006:
		a.pulse2.writeTimerLow(v)
	case 0x4007:
		a.pulse2.writeTimerHigh(v)
	case 0x4008:
		a.tri.writeControl(v)
	case 0x400A:
		a.tri.writeTimerLow(v)
	case 0x400B:
		a.tri.writeTimerHigh(v)
	case 0x400C:
		a.noise.writeControl(v)
	case 0x400E:
		a.noise.writeMode(v)
	case 0x400F:
		a.noise.writeLength(v)
	case 0x4010:
		a.dmc.writeControl(v)
	case 0x4011:
		a.dmc.writeLoad(v)
	case 0x4012:
		a.dmc.writeAddr(v)
	case 0x4013:
		a.dmc.writeLength(v)
	case 0x4015:
		a.writeStatus(v)
	case 0x4017:
		a.writeFrameCounter(v)
	}
}

func (a *APU) writeStatus(v uint8) {
	a.pulse1.setEnabled(v&0x01 != 0)
	a.pulse2.setEnabled(v&0x02 != 0)
	a.tri.setEnabled(v&0x04 != 0)
	a.noise.setEnabled(v&0x08 != 0)
	a.dmc.setEnabled(v&0x10 != 0)
	a.dmc.irqPending = false
}

// ReadStatus serves 0x4015: per-channel length status plus the IRQ flags.
// Reading clears the frame IRQ flag.
func (a *APU) ReadStatus() uint8 {
	var v uint8
	if a.pulse1.length > 0 {
		v |= 0x01
	}
	if a.pulse2.length > 0 {
		v |= 0x02
	}
	if a.tri.length > 0 {
		v |= 0x04
	}
	if a.noise.length > 0 {
		v |= 0x08
	}
	if a.dmc.bytesLeft > 0 {
		v |= 0x10
	}
	if a.frameIRQ {
		v |= 0x40
	}
	if a.dmc.irqPending {
		v |= 0x80
	}
	a.frameIRQ = false
	return v
}

func (a *APU) writeFrameCounter(v uint8) {
	a.fiveStep = v&0x80 != 0
	a.irqInhibit = v&0x40 != 0
	a.seqPhase = 0
	a.seqCycle = 0
	if a.fiveStep {
		a.quarterClock()
		a.halfClock()
	}
	if a.irqInhibit {
		a.frameIRQ = false
	}
	logx.Tracef(logx.APU, "frame counter: mode=%d inhibit=%v", v>>7, a.irqInhibit)
}

// IRQPending reports the level of the APU's IRQ line (frame counter or DMC).
func (a *APU) IRQPending() bool { return a.frameIRQ || a.dmc.irqPending }

func (a *APU) quarterClock() {
	a.pulse1.env.clock()
	a.pulse2.env.clock()
	a.noise.env.clock()
	a.tri.clockLinear()
}

func (a *APU) halfClock() {
	a.pulse1.clockSweep()
	a.pulse1.clockLength()
	a.pulse2.clockSweep()
	a.pulse2.clockLength()
	a.tri.clockLength()
	a.noise.clockLength()
}

// stepSequencer compares the cycle-within-sequence counter against the
// absolute phase boundaries rather than approximating with a modulus, so
// the quarter/half clocks land on the documented cycles.
func (a *APU) stepSequencer() {
	a.seqCycle++
	if a.fiveStep {
		if a.seqCycle != seqPhases5[a.seqPhase] {
			return
		}
		// Phase 3 (29829) is the silent step; 37281 clocks quarter+half.
		switch a.seqPhase {
		case 0, 2:
			a.quarterClock()
		case 1, 4:
			a.quarterClock()
			a.halfClock()
		}
		a.seqPhase++
		if a.seqPhase == len(seqPhases5) {
			a.seqPhase = 0
			a.seqCycle = 0
		}
		return
	}
	if a.seqCycle != seqPhases4[a.seqPhase] {
		return
	}
	switch a.seqPhase {
	case 0, 2:
		a.quarterClock()
	case 1:
		a.quarterClock()
		a.halfClock()
	case 3:
		a.quarterClock()
		a.halfClock()
		if !a.irqInhibit {
			a.frameIRQ = true
		}
	}
	a.seqPhase++
	if a.seqPhase == len(seqPhases4) {
		a.seqPhase = 0
		a.seqCycle = 0
	}
}

// Step advances the APU by one CPU cycle.
func (a *APU) Step() {
	a.cycle++
	a.tri.stepTimer()
	a.dmc.stepTimer(a.readMem)
	if a.cycle%2 == 0 {
		a.apuCycle++
		a.pulse1.stepTimer()
		a.pulse2.stepTimer()
		a.noise.stepTimer()
	}
	if a.cycle%samplePeriod == 0 {
		a.emitSample()
	}
	a.stepSequencer()
}

// Run advances the APU by the given number of CPU cycles.
func (a *APU) Run(cycles int) {
	for i := 0; i < cycles; i++ {
		a.Step()
	}
}

func (a *APU) emitSample() {
	p := pulseMix[a.pulse1.out()+a.pulse2.out()]
	t := tndMix[3*uint16(a.tri.out())+2*uint16(a.noise.out())+uint16(a.dmc.output)]
	a.out[a.outIndex] = uint8((p + t) * 255)
	a.outIndex++
	if a.outIndex == len(a.out) {
		a.outIndex = 0
		a.ready = true
		if a.sink != nil {
			a.sink(a.out[:])
		}
	}
}

// Cycles returns how many CPU-rate ticks the APU has consumed.
func (a *APU) Cycles() uint64 { return a.cycle }

// AudioReady reports whether a full block has been produced since the last
// TakeAudio.
func (a *APU) AudioReady() bool { return a.ready }

// TakeAudio returns the most recent completed block and clears the ready
// flag. Intended for hosts that poll instead of installing a sink.
func (a *APU) TakeAudio() []uint8 {
	a.ready = false
	return a.out[:]
}
