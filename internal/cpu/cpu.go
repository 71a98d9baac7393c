// Package cpu implements the 6502 core: the full 256-opcode dispatch,
// documented and undocumented instructions, interrupt entry, and the run
// loop that advances the PPU three dots and the APU one tick per CPU cycle.
package cpu

import (
	"errors"
	"fmt"

	"github.com/ktakagaki/nescore/internal/bus"
	"github.com/ktakagaki/nescore/internal/logx"
)

// ErrHalted is returned once a JAM/HLT opcode executes. Only a reset or a
// fresh powerup recovers the core.
var ErrHalted = errors.New("cpu: halted by jam opcode")

// Status flag bits.
const (
	flagC  uint8 = 1 << 0
	flagZ  uint8 = 1 << 1
	flagI  uint8 = 1 << 2
	flagD  uint8 = 1 << 3 // decimal mode is inert on this part
	flagB4 uint8 = 1 << 4 // stack copies only
	flagB5 uint8 = 1 << 5 // stack copies only, always set on push
	flagV  uint8 = 1 << 6
	flagN  uint8 = 1 << 7
)

// Interrupt vectors.
const (
	vectorNMI   = 0xFFFA
	vectorReset = 0xFFFC
	vectorIRQ   = 0xFFFE
)

// CPU is the processor state plus its bus. Cycles counts every cycle since
// powerup or the last reset; both set it back to zero.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	S  uint8
	P  uint8
	PC uint16

	Cycles uint64

	bus *bus.Bus

	// prevNMI is the edge detector for the PPU's NMI line, sampled once
	// before each instruction.
	prevNMI bool

	// pageCross is set while resolving an addressing mode and consulted by
	// the operand load for the +1 read penalty. It never survives past the
	// current instruction.
	pageCross bool

	halted bool
	haltOp uint8
	haltPC uint16

	// dmaTicked is how many of the last Step's cycles were already applied
	// to the PPU/APU inside an OAM DMA transfer; Run subtracts it so those
	// cycles are not replayed.
	dmaTicked uint64
}

// New binds a CPU to its bus with documented power-on register values.
func New(b *bus.Bus) *CPU {
	return &CPU{bus: b, P: 0x34, S: 0xFD}
}

// Bus exposes the bus for the console facade.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// Powerup applies the documented power-on state and loads PC from the reset
// vector.
func (c *CPU) Powerup() {
	c.A, c.X, c.Y = 0, 0, 0
	c.P = 0x34
	c.S = 0xFD
	c.Cycles = 0
	c.prevNMI = false
	c.halted = false
	c.PC = c.bus.Read16(vectorReset)
	logx.Tracef(logx.CPU, "powerup: PC=$%04X", c.PC)
}

// Reset asserts the reset line: I set, stack pointer dropped by 3 (never
// reloaded to a fixed value), PC refetched from the reset vector.
func (c *CPU) Reset() {
	c.P |= flagI
	c.S -= 3
	c.prevNMI = false
	c.halted = false
	c.PC = c.bus.Read16(vectorReset)
	c.Cycles = 0
}

// Step executes one instruction, servicing interrupts first, and returns
// the cycles consumed. The NMI line is edge-detected here, so an NMI raised
// mid-instruction is observed at the next boundary.
func (c *CPU) Step() (uint64, error) {
	if c.halted {
		return 0, c.haltError()
	}
	start := c.Cycles
	c.dmaTicked = 0

	nmi := c.bus.PendingNMI()
	if nmi && !c.prevNMI {
		c.serviceNMI()
	}
	c.prevNMI = nmi

	if c.P&flagI == 0 && c.bus.PendingIRQ() {
		c.serviceIRQ()
	}

	op := c.fetch()
	c.pageCross = false
	c.exec(op)
	c.Cycles += uint64(opCycles[op])

	if c.bus.TakeDMAStall() {
		stall := uint64(513)
		if start&1 == 1 {
			stall++
		}
		c.Cycles += stall
		// 256 byte pairs were ticked through the bus during the transfer.
		c.dmaTicked = 512
	}

	if c.halted {
		return c.Cycles - start, c.haltError()
	}
	return c.Cycles - start, nil
}

// Run executes instructions until the cycle budget is exhausted, advancing
// the PPU by 3 dots and the APU by 1 tick per cycle. Cycles already applied
// during an OAM DMA are not replayed.
func (c *CPU) Run(budget int64) error {
	for budget > 0 {
		cycles, err := c.Step()
		if err != nil {
			return err
		}
		budget -= int64(cycles)
		tick := int(cycles - c.dmaTicked)
		c.bus.PPU.Run(3 * tick)
		c.bus.APU.Run(tick)
	}
	return nil
}

func (c *CPU) haltError() error {
	return fmt.Errorf("%w: opcode $%02X at $%04X", ErrHalted, c.haltOp, c.haltPC)
}

func (c *CPU) serviceNMI() {
	logx.Tracef(logx.CPU, "nmi: PC=$%04X", c.PC)
	c.push16(c.PC)
	c.push(c.P | flagB5)
	c.setFlag(flagI, true)
	c.PC = c.bus.Read16(vectorNMI)
	c.Cycles += 7
}

func (c *CPU) serviceIRQ() {
	c.push16(c.PC)
	c.push(c.P | flagB4 | flagB5)
	c.setFlag(flagI, true)
	c.PC = c.bus.Read16(vectorIRQ)
	c.Cycles += 7
}

// Memory helpers.

func (c *CPU) read(addr uint16) uint8     { return c.bus.Read(addr) }
func (c *CPU) write(addr uint16, v uint8) { c.bus.Write(addr, v) }
func (c *CPU) read16(addr uint16) uint16  { return c.bus.Read16(addr) }

func (c *CPU) fetch() uint8 {
	v := c.read(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	v := c.read16(c.PC)
	c.PC += 2
	return v
}

// Stack helpers. The stack lives in page 1.

func (c *CPU) push(v uint8) {
	c.write(0x100|uint16(c.S), v)
	c.S--
}

func (c *CPU) pop() uint8 {
	c.S++
	return c.read(0x100 | uint16(c.S))
}

func (c *CPU) push16(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// Flag helpers.

func (c *CPU) setFlag(flag uint8, on bool) {
	if on {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

func (c *CPU) getFlag(flag uint8) bool { return c.P&flag != 0 }

func (c *CPU) carry() uint8 { return c.P & flagC }

// setZN updates Z and N from a result and passes it through.
func (c *CPU) setZN(v uint8) uint8 {
	c.setFlag(flagZ, v == 0)
	c.setFlag(flagN, v&0x80 != 0)
	return v
}

func (c *CPU) notePageCross(from, to uint16) {
	if from&0xFF00 != to&0xFF00 {
		c.pageCross = true
	}
}
