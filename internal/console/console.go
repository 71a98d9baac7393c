// Package console is the top-level facade: it loads a cartridge, wires the
// CPU/PPU/APU/Bus/Mapper engine together, and paces execution against wall
// time so the host can drive it with a simple run loop.
package console

import (
	"github.com/ktakagaki/nescore/internal/apu"
	"github.com/ktakagaki/nescore/internal/bus"
	"github.com/ktakagaki/nescore/internal/cpu"
	"github.com/ktakagaki/nescore/internal/input"
	"github.com/ktakagaki/nescore/internal/logx"
	"github.com/ktakagaki/nescore/internal/mapper"
	"github.com/ktakagaki/nescore/internal/ppu"
	"github.com/ktakagaki/nescore/internal/rom"
)

// CPUFrequency is the NTSC CPU clock in Hz (~1.7898 cycles per microsecond).
const CPUFrequency = 1789773

// Console owns every component. The mapper is the one piece shared between
// the CPU (through the bus) and the PPU (for pattern fetches).
type Console struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Bus    *bus.Bus
	Mapper mapper.Mapper
	Image  *rom.Image

	frame [ppu.FrameBytes]uint8

	// budgetRem carries the sub-cycle remainder between Run calls and
	// cycleDebt the overshoot from finishing instructions past the budget,
	// so the long-run average stays at exactly CPUFrequency.
	budgetRem uint64
	cycleDebt uint64
}

// New loads the ROM at path and builds a powered-down console around it.
// Construction errors (missing file, bad image, unsupported mapper)
// propagate; after that the core only fails on a fatal CPU halt.
func New(path string) (*Console, error) {
	img, err := rom.Load(path)
	if err != nil {
		return nil, err
	}
	return fromImage(img)
}

// NewFromImage builds a console around an already-decoded image.
func NewFromImage(img *rom.Image) (*Console, error) {
	return fromImage(img)
}

func fromImage(img *rom.Image) (*Console, error) {
	m, err := mapper.New(img)
	if err != nil {
		return nil, err
	}
	p := ppu.New(m)
	a := apu.New()
	b := bus.New(m, p, a)
	a.SetMemoryReader(b.Read)
	c := &Console{
		CPU:    cpu.New(b),
		PPU:    p,
		APU:    a,
		Bus:    b,
		Mapper: m,
		Image:  img,
	}
	logx.Infof("loaded cartridge: mapper %d, %d KiB PRG, %d KiB CHR, %s mirroring",
		img.Header.MapperID(), len(img.PRG)/1024, len(img.CHR)/1024, img.Header.Mirroring())
	return c, nil
}

// Powerup applies the documented power-on CPU state and fetches the reset
// vector.
func (c *Console) Powerup() {
	c.CPU.Powerup()
}

// Reset asserts the reset line on CPU, PPU and APU.
func (c *Console) Reset() {
	c.CPU.Reset()
	c.PPU.Reset()
	c.APU.Reset()
}

// UpdateController changes one button on one of the two pads.
func (c *Console) UpdateController(pad int, b input.Button, pressed bool) {
	c.Bus.Pads[pad&1].Set(b, pressed)
}

// SetAudioSink installs the consumer for 735-sample audio blocks.
func (c *Console) SetAudioSink(s apu.Sink) {
	c.APU.SetAudioSink(s)
}

// Run converts elapsed wall time into a CPU cycle budget and executes it.
// It returns the completed frame when one finished during the slice, or nil.
// A fatal CPU halt surfaces as the error and ends the session.
func (c *Console) Run(elapsedMicros uint64) ([]uint8, error) {
	total := elapsedMicros*CPUFrequency + c.budgetRem
	budget := total / 1e6
	c.budgetRem = total % 1e6
	if budget <= c.cycleDebt {
		c.cycleDebt -= budget
		return c.takeFrame(), nil
	}
	budget -= c.cycleDebt
	start := c.CPU.Cycles
	if err := c.CPU.Run(int64(budget)); err != nil {
		return nil, err
	}
	c.cycleDebt = (c.CPU.Cycles - start) - budget
	return c.takeFrame(), nil
}

// RunFrame executes until the PPU completes the next frame. Useful for
// headless operation and tests, where wall time is irrelevant.
func (c *Console) RunFrame() ([]uint8, error) {
	for !c.PPU.FrameReady() {
		if err := c.CPU.Run(1); err != nil {
			return nil, err
		}
	}
	return c.takeFrame(), nil
}

func (c *Console) takeFrame() []uint8 {
	if !c.PPU.FrameReady() {
		return nil
	}
	c.PPU.CopyFrame(c.frame[:])
	return c.frame[:]
}
