// Package bus routes CPU memory accesses across RAM, the PPU and APU
// register files, the gamepads, and the cartridge mapper.
package bus

import (
	"github.com/ktakagaki/nescore/internal/apu"
	"github.com/ktakagaki/nescore/internal/input"
	"github.com/ktakagaki/nescore/internal/mapper"
	"github.com/ktakagaki/nescore/internal/ppu"
)

// Bus owns the 2 KiB work RAM and dispatches everything else. The PPU and
// APU are exported so the CPU can advance them against its cycle count.
type Bus struct {
	ram    [0x800]uint8
	mapper mapper.Mapper
	PPU    *ppu.PPU
	APU    *apu.APU
	Pads   [2]*input.Gamepad

	mapperIRQ mapper.IRQSource
	dmaStall  bool
}

// New wires the bus. The mapper is shared with the PPU, which reads pattern
// data from it directly.
func New(m mapper.Mapper, p *ppu.PPU, a *apu.APU) *Bus {
	b := &Bus{
		mapper: m,
		PPU:    p,
		APU:    a,
		Pads:   [2]*input.Gamepad{input.New(), input.New()},
	}
	b.mapperIRQ, _ = m.(mapper.IRQSource)
	return b
}

// Read decodes a CPU read. PPU register reads are side-effectful; see the
// ppu package.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.ReadReg(addr & 7)
	case addr == 0x4015:
		return b.APU.ReadStatus()
	case addr == 0x4016:
		return b.Pads[0].Read()
	case addr == 0x4017:
		return b.Pads[1].Read()
	case addr < 0x4020:
		return 0
	default:
		return b.mapper.LoadPRG(addr)
	}
}

// Read16 performs a little-endian 16-bit read as two byte reads.
func (b *Bus) Read16(addr uint16) uint16 {
	lo := uint16(b.Read(addr))
	hi := uint16(b.Read(addr + 1))
	return hi<<8 | lo
}

// Write decodes a CPU write.
func (b *Bus) Write(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = v
	case addr < 0x4000:
		b.PPU.WriteReg(addr&7, v)
	case addr == 0x4014:
		b.oamDMA(v)
	case addr == 0x4016:
		b.Pads[0].Write(v)
		b.Pads[1].Write(v)
	case addr <= 0x4017:
		b.APU.WriteReg(addr, v)
	case addr < 0x4020:
		// Reserved test registers; ignored.
	default:
		b.mapper.StorePRG(addr, v)
	}
}

// oamDMA copies a 256-byte page into PPU OAM one byte pair at a time,
// advancing the PPU and APU during the transfer so sprite timing holds up.
// The CPU folds in the 513/514-cycle stall after the instruction.
func (b *Bus) oamDMA(page uint8) {
	src := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.PPU.WriteReg(4, b.Read(src+uint16(i)))
		b.PPU.Run(6)
		b.APU.Run(2)
	}
	b.dmaStall = true
}

// TakeDMAStall reports and clears the pending DMA stall marker.
func (b *Bus) TakeDMAStall() bool {
	s := b.dmaStall
	b.dmaStall = false
	return s
}

// PendingNMI exposes the PPU's NMI line for the CPU's edge detector.
func (b *Bus) PendingNMI() bool { return b.PPU.PendingNMI() }

// PendingIRQ is the level of the shared IRQ line: APU frame counter or DMC,
// or the mapper's scanline counter.
func (b *Bus) PendingIRQ() bool {
	if b.APU.IRQPending() {
		return true
	}
	return b.mapperIRQ != nil && b.mapperIRQ.IRQPending()
}
