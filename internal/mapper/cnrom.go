package mapper

import "github.com/ktakagaki/nescore/internal/rom"

// CNROM (mapper 3): fixed PRG, switchable 8 KiB CHR bank selected by writes
// anywhere in the ROM window. Bus conflicts on real boards AND the written
// value with ROM contents; emulation takes the written value as-is.
type CNROM struct {
	prg  []byte
	chr  []byte
	bank int
	nt   [4]uint16
}

func newCNROM(img *rom.Image) *CNROM {
	return &CNROM{
		prg: img.PRG,
		chr: img.CHR,
		nt:  headerMirroring(img),
	}
}

func (m *CNROM) LoadPRG(addr uint16) uint8 {
	if addr < 0x8000 {
		return 0
	}
	if len(m.prg) > rom.PRGBankSize {
		return m.prg[addr&0x7FFF]
	}
	return m.prg[addr&0x3FFF]
}

func (m *CNROM) StorePRG(addr uint16, v uint8) {
	if addr >= 0x8000 {
		m.bank = int(v&3) % (len(m.chr) / rom.CHRBankSize)
	}
}

func (m *CNROM) LoadCHR(addr uint16) uint8 {
	return m.chr[m.bank*rom.CHRBankSize+int(addr)]
}

func (m *CNROM) StoreCHR(addr uint16, v uint8) {
	// CHR is ROM on CNROM boards.
}

func (m *CNROM) NTMirroring() [4]uint16 { return m.nt }
