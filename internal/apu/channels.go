package apu

// Length counter values indexed by bits 3-7 of the length/timer-high write.
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// The four 8-step pulse duty patterns.
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 25% negated
}

var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Noise timer periods, NTSC, indexed by the low nibble of 0x400E.
var noisePeriods = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// DMC fetch periods in CPU cycles, NTSC.
var dmcRates = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// Nonlinear mixer lookup. pulseMix is indexed by pulse1+pulse2 (0..30),
// tndMix by 3*triangle + 2*noise + dmc (0..202).
var (
	pulseMix [31]float32
	tndMix   [203]float32
)

func init() {
	for i := 1; i < len(pulseMix); i++ {
		pulseMix[i] = 95.52 / (8128.0/float32(i) + 100)
	}
	for i := 1; i < len(tndMix); i++ {
		tndMix[i] = 163.67 / (24329.0/float32(i) + 100)
	}
}

// envelope implements the shared decay unit used by the pulse and noise
// channels. volume doubles as the divider period; when constant is set the
// channel outputs volume directly instead of the decaying level.
type envelope struct {
	constant bool
	volume   uint8
	loop     bool
	start    bool
	counter  uint8
	decay    uint8
}

func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.decay = 0x0F
		e.counter = e.volume
		return
	}
	if e.counter > 0 {
		e.counter--
		return
	}
	e.counter = e.volume
	if e.decay > 0 {
		e.decay--
	} else if e.loop {
		e.decay = 0x0F
	}
}

func (e *envelope) out() uint8 {
	if e.constant {
		return e.volume
	}
	return e.decay
}

// pulse is one square-wave channel. negateExtra is the sweep's negate-mode
// asymmetry: pulse 1 subtracts one more than pulse 2 does.
type pulse struct {
	enabled     bool
	duty        int
	dutyPhase   int
	lengthHalt  bool
	length      uint8
	env         envelope
	sweepOn     bool
	sweepNegate bool
	sweepReload bool
	sweepPeriod uint8
	sweepShift  uint8
	sweepCount  uint8
	timer       uint16
	counter     uint16
	negateExtra uint16
}

func (p *pulse) writeControl(v uint8) {
	p.duty = int(v >> 6)
	p.lengthHalt = v&0x20 != 0
	p.env.loop = p.lengthHalt
	p.env.constant = v&0x10 != 0
	p.env.volume = v & 0x0F
}

func (p *pulse) writeSweep(v uint8) {
	p.sweepPeriod = v >> 4 & 7
	p.sweepNegate = v&0x08 != 0
	p.sweepShift = v & 7
	p.sweepReload = true
	p.sweepOn = v&0x80 != 0 && p.sweepShift != 0
}

func (p *pulse) writeTimerLow(v uint8) {
	p.timer = p.timer&0xFF00 | uint16(v)
}

func (p *pulse) writeTimerHigh(v uint8) {
	p.timer = p.timer&0x00FF | uint16(v&7)<<8
	if p.enabled {
		p.length = lengthTable[v>>3]
	}
	p.counter = p.timer
	p.dutyPhase = 0
	p.env.start = true
}

func (p *pulse) setEnabled(on bool) {
	p.enabled = on
	if !on {
		p.length = 0
	}
}

// stepTimer advances the waveform; called once per APU cycle.
func (p *pulse) stepTimer() {
	if p.counter > 0 {
		p.counter--
		return
	}
	p.counter = p.timer
	p.dutyPhase = (p.dutyPhase + 1) & 7
}

func (p *pulse) clockSweep() {
	if p.sweepReload {
		p.sweepCount = p.sweepPeriod
		p.sweepReload = false
		return
	}
	if p.sweepCount > 0 {
		p.sweepCount--
		return
	}
	p.sweepCount = p.sweepPeriod
	if p.sweepOn && !p.sweepSilence() {
		delta := p.timer >> p.sweepShift
		if p.sweepNegate {
			p.timer -= delta + p.negateExtra
		} else {
			p.timer += delta
		}
	}
}

func (p *pulse) clockLength() {
	if !p.lengthHalt && p.length > 0 {
		p.length--
	}
}

// sweepSilence mutes the channel when the timer is ultrasonic or the sweep
// target would overflow the 11-bit timer.
func (p *pulse) sweepSilence() bool {
	if p.timer < 8 {
		return true
	}
	return !p.sweepNegate && p.timer+p.timer>>p.sweepShift > 0x7FF
}

func (p *pulse) out() uint8 {
	if !p.enabled || p.length == 0 || p.sweepSilence() {
		return 0
	}
	if dutyTable[p.duty][p.dutyPhase] == 0 {
		return 0
	}
	return p.env.out()
}

// triangle runs its timer at CPU rate and steps a fixed 32-entry sequence
// gated by both the length counter and the linear counter.
type triangle struct {
	enabled      bool
	control      bool
	linearReload uint8
	linearFlag   bool
	linear       uint8
	length       uint8
	timer        uint16
	counter      uint16
	phase        int
}

func (t *triangle) writeControl(v uint8) {
	t.control = v&0x80 != 0
	t.linearReload = v & 0x7F
}

func (t *triangle) writeTimerLow(v uint8) {
	t.timer = t.timer&0xFF00 | uint16(v)
}

func (t *triangle) writeTimerHigh(v uint8) {
	t.timer = t.timer&0x00FF | uint16(v&7)<<8
	if t.enabled {
		t.length = lengthTable[v>>3]
	}
	t.counter = t.timer
	t.linearFlag = true
}

func (t *triangle) setEnabled(on bool) {
	t.enabled = on
	if !on {
		t.length = 0
	}
}

func (t *triangle) stepTimer() {
	if t.counter > 0 {
		t.counter--
		return
	}
	t.counter = t.timer
	if t.length > 0 && t.linear > 0 {
		t.phase = (t.phase + 1) & 31
	}
}

func (t *triangle) clockLinear() {
	if t.linearFlag {
		t.linear = t.linearReload
	} else if t.linear > 0 {
		t.linear--
	}
	if !t.control {
		t.linearFlag = false
	}
}

func (t *triangle) clockLength() {
	if !t.control && t.length > 0 {
		t.length--
	}
}

func (t *triangle) out() uint8 {
	if !t.enabled || t.length == 0 || t.linear == 0 {
		return 0
	}
	return triangleSequence[t.phase]
}

// noise clocks a 15-bit LFSR whose tap moves between bit 1 and bit 6.
type noise struct {
	enabled    bool
	mode       bool
	lengthHalt bool
	length     uint8
	env        envelope
	timer      uint16
	counter    uint16
	shift      uint16
}

func (n *noise) writeControl(v uint8) {
	n.lengthHalt = v&0x20 != 0
	n.env.loop = n.lengthHalt
	n.env.constant = v&0x10 != 0
	n.env.volume = v & 0x0F
}

func (n *noise) writeMode(v uint8) {
	n.mode = v&0x80 != 0
	n.timer = noisePeriods[v&0x0F]
}

func (n *noise) writeLength(v uint8) {
	if n.enabled {
		n.length = lengthTable[v>>3]
	}
	n.env.start = true
}

func (n *noise) setEnabled(on bool) {
	n.enabled = on
	if !on {
		n.length = 0
	}
}

func (n *noise) stepTimer() {
	if n.counter > 0 {
		n.counter--
		return
	}
	n.counter = n.timer
	tap := n.shift >> 1
	if n.mode {
		tap = n.shift >> 6
	}
	feedback := (n.shift ^ tap) & 1
	n.shift = n.shift>>1 | feedback<<14
}

func (n *noise) clockLength() {
	if !n.lengthHalt && n.length > 0 {
		n.length--
	}
}

func (n *noise) out() uint8 {
	if !n.enabled || n.length == 0 || n.shift&1 != 0 {
		return 0
	}
	return n.env.out()
}

// dmc plays delta-modulated samples fetched from CPU address space. Fetches
// go through the reader the console wires in; the CPU stall cycles a real
// fetch would cost are not modeled.
type dmc struct {
	enabled    bool
	irqEnable  bool
	loop       bool
	rate       uint16
	counter    uint16
	output     uint8
	sampleAddr uint16
	sampleLen  uint16
	curAddr    uint16
	bytesLeft  uint16
	shift      uint8
	bitsLeft   int
	silence    bool
	buffer     uint8
	bufferFull bool
	irqPending bool
}

func (d *dmc) writeControl(v uint8) {
	d.irqEnable = v&0x80 != 0
	d.loop = v&0x40 != 0
	d.rate = dmcRates[v&0x0F]
	if !d.irqEnable {
		d.irqPending = false
	}
}

func (d *dmc) writeLoad(v uint8) { d.output = v & 0x7F }

func (d *dmc) writeAddr(v uint8) { d.sampleAddr = 0xC000 | uint16(v)<<6 }

func (d *dmc) writeLength(v uint8) { d.sampleLen = uint16(v)<<4 | 1 }

func (d *dmc) setEnabled(on bool) {
	d.enabled = on
	if !on {
		d.bytesLeft = 0
	} else if d.bytesLeft == 0 {
		d.restart()
	}
}

func (d *dmc) restart() {
	d.curAddr = d.sampleAddr
	d.bytesLeft = d.sampleLen
}

func (d *dmc) stepTimer(read func(uint16) uint8) {
	if !d.enabled {
		return
	}
	d.fillBuffer(read)
	if d.counter > 0 {
		d.counter--
		return
	}
	d.counter = d.rate
	if !d.silence {
		if d.shift&1 != 0 {
			if d.output <= 125 {
				d.output += 2
			}
		} else if d.output >= 2 {
			d.output -= 2
		}
	}
	d.shift >>= 1
	d.bitsLeft--
	if d.bitsLeft <= 0 {
		d.bitsLeft = 8
		if d.bufferFull {
			d.shift = d.buffer
			d.bufferFull = false
			d.silence = false
		} else {
			d.silence = true
		}
	}
}

func (d *dmc) fillBuffer(read func(uint16) uint8) {
	if d.bufferFull || d.bytesLeft == 0 || read == nil {
		return
	}
	d.buffer = read(d.curAddr)
	d.bufferFull = true
	if d.curAddr == 0xFFFF {
		d.curAddr = 0x8000
	} else {
		d.curAddr++
	}
	d.bytesLeft--
	if d.bytesLeft == 0 {
		if d.loop {
			d.restart()
		} else if d.irqEnable {
			d.irqPending = true
		}
	}
}
