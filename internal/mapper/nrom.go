package mapper

import "github.com/ktakagaki/nescore/internal/rom"

// NROM (mapper 0): no bank switching. 16 KiB images are mirrored into both
// halves of 0x8000-0xFFFF; an 8 KiB RAM window sits below 0x8000, mirrored
// into 0x6000-0x7FFF. Mirroring is fixed by the header.
type NROM struct {
	prg    []byte
	chr    []byte
	chrRAM bool
	ram    [0x2000]uint8
	nt     [4]uint16
}

func newNROM(img *rom.Image) *NROM {
	return &NROM{
		prg:    img.PRG,
		chr:    img.CHR,
		chrRAM: img.CHRRAM,
		nt:     headerMirroring(img),
	}
}

func (m *NROM) LoadPRG(addr uint16) uint8 {
	if addr < 0x8000 {
		return m.ram[addr&0x1FFF]
	}
	if len(m.prg) > rom.PRGBankSize {
		return m.prg[addr&0x7FFF]
	}
	return m.prg[addr&0x3FFF]
}

func (m *NROM) StorePRG(addr uint16, v uint8) {
	if addr < 0x8000 {
		m.ram[addr&0x1FFF] = v
	}
	// Writes into the ROM window are ignored, as on a real NROM board.
}

func (m *NROM) LoadCHR(addr uint16) uint8 { return m.chr[addr] }

func (m *NROM) StoreCHR(addr uint16, v uint8) {
	if m.chrRAM {
		m.chr[addr] = v
	}
}

func (m *NROM) NTMirroring() [4]uint16 { return m.nt }
