package mapper

import (
	"github.com/ktakagaki/nescore/internal/logx"
	"github.com/ktakagaki/nescore/internal/rom"
)

// MMC1 (mapper 1): a 5-bit serial port behind 0x8000-0xFFFF. Five writes
// shift one register value in LSB first; bit 7 of any write resets the shift
// register and forces PRG mode 3. The control register selects mirroring,
// PRG banking mode and CHR banking mode.
type MMC1 struct {
	prg    []byte
	chr    []byte
	chrRAM bool
	ram    [0x2000]uint8

	shift   uint8
	count   int
	control uint8
	chr0    uint8
	chr1    uint8
	prgBank uint8
}

func newMMC1(img *rom.Image) *MMC1 {
	return &MMC1{
		prg:    img.PRG,
		chr:    img.CHR,
		chrRAM: img.CHRRAM,
		shift:  0x10,
		// Power-on: last PRG bank fixed at 0xC000 (mode 3).
		control: 0x0C,
	}
}

func (m *MMC1) prgBankCount() int { return len(m.prg) / rom.PRGBankSize }

func (m *MMC1) LoadPRG(addr uint16) uint8 {
	if addr < 0x8000 {
		return m.ram[addr&0x1FFF]
	}
	bank := int(m.prgBank) % m.prgBankCount()
	switch (m.control >> 2) & 3 {
	case 0, 1: // 32 KiB, ignore low bit
		base := (bank &^ 1) * rom.PRGBankSize
		return m.prg[base+int(addr&0x7FFF)]
	case 2: // first bank fixed at 0x8000, switch at 0xC000
		if addr < 0xC000 {
			return m.prg[addr&0x3FFF]
		}
		return m.prg[bank*rom.PRGBankSize+int(addr&0x3FFF)]
	default: // switch at 0x8000, last bank fixed at 0xC000
		if addr < 0xC000 {
			return m.prg[bank*rom.PRGBankSize+int(addr&0x3FFF)]
		}
		last := m.prgBankCount() - 1
		return m.prg[last*rom.PRGBankSize+int(addr&0x3FFF)]
	}
}

func (m *MMC1) StorePRG(addr uint16, v uint8) {
	if addr < 0x8000 {
		m.ram[addr&0x1FFF] = v
		return
	}
	if v&0x80 != 0 {
		m.shift = 0x10
		m.count = 0
		m.control |= 0x0C
		return
	}
	m.shift = m.shift>>1 | (v&1)<<4
	m.count++
	if m.count < 5 {
		return
	}
	value := m.shift & 0x1F
	m.shift = 0x10
	m.count = 0
	switch (addr >> 13) & 3 {
	case 0:
		m.control = value
		logx.Tracef(logx.Mapper, "mmc1 control=%#02x", value)
	case 1:
		m.chr0 = value
	case 2:
		m.chr1 = value
	case 3:
		m.prgBank = value & 0x0F
	}
}

func (m *MMC1) chrOffset(addr uint16) int {
	bankCount := len(m.chr) / 0x1000
	if m.control&0x10 == 0 {
		// 8 KiB mode, low bit of chr0 ignored
		base := int(m.chr0&^1) % bankCount * 0x1000
		return base + int(addr)
	}
	// two independent 4 KiB banks
	if addr < 0x1000 {
		return int(m.chr0)%bankCount*0x1000 + int(addr)
	}
	return int(m.chr1)%bankCount*0x1000 + int(addr&0x0FFF)
}

func (m *MMC1) LoadCHR(addr uint16) uint8 { return m.chr[m.chrOffset(addr)] }

func (m *MMC1) StoreCHR(addr uint16, v uint8) {
	if m.chrRAM {
		m.chr[m.chrOffset(addr)] = v
	}
}

func (m *MMC1) NTMirroring() [4]uint16 {
	switch m.control & 3 {
	case 0:
		return mirrorSingleLow
	case 1:
		return mirrorSingleHigh
	case 2:
		return mirrorVertical
	default:
		return mirrorHorizontal
	}
}
