package mapper

import "github.com/ktakagaki/nescore/internal/rom"

// UxROM (mapper 2): a switchable 16 KiB PRG bank at 0x8000 with the last
// bank fixed at 0xC000. CHR is always 8 KiB of RAM on these boards.
type UxROM struct {
	prg    []byte
	chr    []byte
	chrRAM bool
	bank   int
	nt     [4]uint16
}

func newUxROM(img *rom.Image) *UxROM {
	return &UxROM{
		prg:    img.PRG,
		chr:    img.CHR,
		chrRAM: img.CHRRAM,
		nt:     headerMirroring(img),
	}
}

func (m *UxROM) bankCount() int { return len(m.prg) / rom.PRGBankSize }

func (m *UxROM) LoadPRG(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		return 0
	case addr < 0xC000:
		return m.prg[m.bank*rom.PRGBankSize+int(addr&0x3FFF)]
	default:
		last := m.bankCount() - 1
		return m.prg[last*rom.PRGBankSize+int(addr&0x3FFF)]
	}
}

func (m *UxROM) StorePRG(addr uint16, v uint8) {
	if addr >= 0x8000 {
		m.bank = int(v) % m.bankCount()
	}
}

func (m *UxROM) LoadCHR(addr uint16) uint8 { return m.chr[addr] }

func (m *UxROM) StoreCHR(addr uint16, v uint8) {
	if m.chrRAM {
		m.chr[addr] = v
	}
}

func (m *UxROM) NTMirroring() [4]uint16 { return m.nt }
