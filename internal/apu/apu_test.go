package apu

import "testing"

func TestLengthCounterLoad(t *testing.T) {
	a := New()
	a.WriteReg(0x4015, 0x01)
	a.WriteReg(0x4003, 1<<3) // length index 1
	if a.pulse1.length != 254 {
		t.Errorf("length = %d, want 254", a.pulse1.length)
	}

	// A disabled channel refuses the load.
	a.WriteReg(0x4015, 0x00)
	if a.pulse1.length != 0 {
		t.Errorf("disable did not clear length: %d", a.pulse1.length)
	}
	a.WriteReg(0x4003, 1<<3)
	if a.pulse1.length != 0 {
		t.Errorf("disabled channel loaded length %d", a.pulse1.length)
	}
}

func TestPulseDutyOutput(t *testing.T) {
	a := New()
	a.WriteReg(0x4015, 0x01)
	a.WriteReg(0x4000, 0x97) // duty 2 (50%), constant volume 7
	a.WriteReg(0x4002, 0x40) // timer 0x40, above the silence floor
	a.WriteReg(0x4003, 0x08) // load length, reset phase
	if got := a.pulse1.out(); got != 0 {
		t.Errorf("phase 0 of 50%% duty = %d, want 0", got)
	}
	// Advance one waveform step: timer+1 APU cycles.
	for i := 0; i <= 0x40; i++ {
		a.pulse1.stepTimer()
	}
	if got := a.pulse1.out(); got != 7 {
		t.Errorf("phase 1 of 50%% duty = %d, want volume 7", got)
	}
}

func TestSweepSilence(t *testing.T) {
	p := &pulse{enabled: true, length: 10, timer: 7}
	if !p.sweepSilence() {
		t.Error("timer below 8 must silence the channel")
	}
	p.timer = 0x700
	if !p.sweepSilence() {
		t.Error("overflowing sweep target must silence the channel")
	}
	p.sweepNegate = true
	if p.sweepSilence() {
		t.Error("negate mode cannot overflow upward")
	}
	p.sweepNegate = false
	p.timer = 0x200
	p.sweepShift = 2
	if p.sweepSilence() {
		t.Error("in-range timer reported silent")
	}
}

func TestSweepNegateAsymmetry(t *testing.T) {
	a := New()
	a.pulse1.timer = 0x100
	a.pulse1.sweepOn = true
	a.pulse1.sweepNegate = true
	a.pulse1.sweepShift = 4
	a.pulse2.timer = 0x100
	a.pulse2.sweepOn = true
	a.pulse2.sweepNegate = true
	a.pulse2.sweepShift = 4

	// With a zero divider period both channels adjust on the first clock.
	a.pulse1.clockSweep()
	a.pulse2.clockSweep()

	if a.pulse1.timer != 0x100-0x10-1 {
		t.Errorf("pulse1 timer = %#x, want one's-complement negate", a.pulse1.timer)
	}
	if a.pulse2.timer != 0x100-0x10 {
		t.Errorf("pulse2 timer = %#x, want two's-complement negate", a.pulse2.timer)
	}
}

func TestFrameIRQTiming(t *testing.T) {
	a := New()
	a.Run(29827)
	if a.frameIRQ {
		t.Fatal("frame IRQ raised before the final phase boundary")
	}
	a.Step()
	if !a.frameIRQ {
		t.Fatal("frame IRQ not raised at cycle 29828")
	}
	if !a.IRQPending() {
		t.Fatal("IRQPending does not reflect the frame flag")
	}
	// Reading 0x4015 reports and clears it.
	if v := a.ReadStatus(); v&0x40 == 0 {
		t.Error("status read missing frame IRQ bit")
	}
	if a.frameIRQ {
		t.Error("status read did not clear the frame IRQ")
	}
}

func TestFrameIRQInhibit(t *testing.T) {
	a := New()
	a.WriteReg(0x4017, 0x40)
	a.Run(40000)
	if a.frameIRQ {
		t.Error("inhibited frame IRQ was raised")
	}
}

func TestFiveStepImmediateClock(t *testing.T) {
	a := New()
	a.WriteReg(0x4015, 0x01)
	a.WriteReg(0x4000, 0x00) // envelope active, halt clear
	a.WriteReg(0x4003, 1<<3) // length 254
	a.WriteReg(0x4017, 0x80)
	if a.pulse1.length != 253 {
		t.Errorf("length after 5-step select = %d, want immediate half clock", a.pulse1.length)
	}
}

func TestEnvelopeDecay(t *testing.T) {
	var e envelope
	e.volume = 0 // divider period 0: decay drops every clock
	e.start = true
	e.clock()
	if e.decay != 15 {
		t.Fatalf("decay after start = %d, want 15", e.decay)
	}
	for i := 0; i < 15; i++ {
		e.clock()
	}
	if e.decay != 0 {
		t.Errorf("decay after full run = %d, want 0", e.decay)
	}
	e.clock()
	if e.decay != 0 {
		t.Errorf("non-looping envelope restarted: %d", e.decay)
	}
	e.loop = true
	e.clock()
	if e.decay != 15 {
		t.Errorf("looping envelope did not reload: %d", e.decay)
	}
}

func TestNoiseLFSRModes(t *testing.T) {
	n := &noise{shift: 1, timer: 0}
	n.stepTimer()
	// Feedback from bits 0^1 of 0x0001 is 1, shifted into bit 14.
	if n.shift != 0x4000 {
		t.Errorf("shift = %#x, want 0x4000", n.shift)
	}

	n = &noise{shift: 0x41, mode: true, timer: 0}
	n.stepTimer()
	// Mode 1 taps bit 6: 1^1 = 0.
	if n.shift != 0x20 {
		t.Errorf("mode-1 shift = %#x, want 0x20", n.shift)
	}
}

func TestSampleCadence(t *testing.T) {
	a := New()
	var blocks int
	var blockLen int
	a.SetAudioSink(func(s []uint8) {
		blocks++
		blockLen = len(s)
	})

	// One sample lands every 40 CPU cycles; a full block is 735 samples.
	a.Run(SamplesPerFrame*40 - 1)
	if blocks != 0 {
		t.Fatalf("sink fired early (%d blocks)", blocks)
	}
	a.Step()
	if blocks != 1 {
		t.Fatalf("sink fired %d times, want 1", blocks)
	}
	if blockLen != SamplesPerFrame {
		t.Errorf("block length = %d, want %d", blockLen, SamplesPerFrame)
	}
	if !a.AudioReady() {
		t.Error("AudioReady false after a completed block")
	}
	a.TakeAudio()
	if a.AudioReady() {
		t.Error("TakeAudio did not clear the ready flag")
	}
}

func TestDMCSampleFetch(t *testing.T) {
	a := New()
	mem := make([]uint8, 0x10000)
	mem[0xC000] = 0xFF // all raise bits
	a.SetMemoryReader(func(addr uint16) uint8 { return mem[addr] })

	a.WriteReg(0x4012, 0x00) // sample at 0xC000
	a.WriteReg(0x4013, 0x00) // length 1 byte
	a.WriteReg(0x4011, 0x00)
	a.WriteReg(0x4010, 0x0F) // fastest rate, no IRQ, no loop
	a.WriteReg(0x4015, 0x10)

	// Run long enough for the idle shift register to drain and then all 8
	// bits of the fetched byte to clock through.
	a.Run(2000)
	if a.dmc.output != 16 {
		t.Errorf("delta output = %d, want 16 after eight raises", a.dmc.output)
	}
}

func TestStatusChannelBits(t *testing.T) {
	a := New()
	a.WriteReg(0x4015, 0x0F)
	a.WriteReg(0x4003, 1<<3)
	a.WriteReg(0x4007, 1<<3)
	a.WriteReg(0x400B, 1<<3)
	a.WriteReg(0x400F, 1<<3)
	if v := a.ReadStatus(); v&0x0F != 0x0F {
		t.Errorf("status = %#x, want all four length bits", v)
	}
	a.WriteReg(0x4015, 0x00)
	if v := a.ReadStatus(); v&0x1F != 0 {
		t.Errorf("status after disable = %#x, want clear", v)
	}
}
