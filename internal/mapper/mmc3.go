package mapper

import (
	"github.com/ktakagaki/nescore/internal/logx"
	"github.com/ktakagaki/nescore/internal/rom"
)

const mmc3PRGBankSize = 0x2000 // 8 KiB PRG windows
const mmc3CHRBankSize = 0x400  // 1 KiB CHR windows

// MMC3 (mapper 4): eight bank registers behind a bank-select/bank-data pair,
// runtime mirroring control, PRG RAM at 0x6000, and a scanline IRQ counter
// clocked by rising edges on PPU address line 12.
type MMC3 struct {
	prg    []byte
	chr    []byte
	chrRAM bool
	ram    [0x2000]uint8

	bankSelect uint8
	bankRegs   [8]uint8
	nt         [4]uint16

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnabled bool
	irqPending bool

	prevA12   bool
	lowStreak int
}

func newMMC3(img *rom.Image) *MMC3 {
	return &MMC3{
		prg:    img.PRG,
		chr:    img.CHR,
		chrRAM: img.CHRRAM,
		nt:     headerMirroring(img),
	}
}

func (m *MMC3) prgBankCount() int { return len(m.prg) / mmc3PRGBankSize }
func (m *MMC3) chrBankCount() int { return len(m.chr) / mmc3CHRBankSize }

// prgBank resolves one of the four 8 KiB CPU windows to a bank index.
func (m *MMC3) prgBank(window int) int {
	n := m.prgBankCount()
	swap := m.bankSelect&0x40 != 0
	switch window {
	case 0:
		if swap {
			return n - 2
		}
		return int(m.bankRegs[6]) % n
	case 1:
		return int(m.bankRegs[7]) % n
	case 2:
		if swap {
			return int(m.bankRegs[6]) % n
		}
		return n - 2
	default:
		return n - 1
	}
}

func (m *MMC3) LoadPRG(addr uint16) uint8 {
	if addr < 0x6000 {
		return 0
	}
	if addr < 0x8000 {
		return m.ram[addr&0x1FFF]
	}
	window := int(addr-0x8000) / mmc3PRGBankSize
	return m.prg[m.prgBank(window)*mmc3PRGBankSize+int(addr)&0x1FFF]
}

func (m *MMC3) StorePRG(addr uint16, v uint8) {
	switch {
	case addr < 0x6000:
	case addr < 0x8000:
		m.ram[addr&0x1FFF] = v
	case addr < 0xA000:
		if addr&1 == 0 {
			m.bankSelect = v
		} else {
			m.bankRegs[m.bankSelect&7] = v
		}
	case addr < 0xC000:
		if addr&1 == 0 {
			if v&1 == 0 {
				m.nt = mirrorVertical
			} else {
				m.nt = mirrorHorizontal
			}
		}
		// Odd writes set PRG-RAM protection; not enforced.
	case addr < 0xE000:
		if addr&1 == 0 {
			m.irqLatch = v
		} else {
			m.irqReload = true
		}
	default:
		if addr&1 == 0 {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
}

// chrBank resolves a pattern address to a 1 KiB bank index.
func (m *MMC3) chrBank(addr uint16) int {
	window := int(addr) / mmc3CHRBankSize // 0..7
	if m.bankSelect&0x80 != 0 {
		window ^= 4
	}
	var bank uint8
	switch window {
	case 0:
		bank = m.bankRegs[0] &^ 1
	case 1:
		bank = m.bankRegs[0] | 1
	case 2:
		bank = m.bankRegs[1] &^ 1
	case 3:
		bank = m.bankRegs[1] | 1
	default:
		bank = m.bankRegs[window-2]
	}
	return int(bank) % m.chrBankCount()
}

func (m *MMC3) LoadCHR(addr uint16) uint8 {
	return m.chr[m.chrBank(addr)*mmc3CHRBankSize+int(addr)&0x3FF]
}

func (m *MMC3) StoreCHR(addr uint16, v uint8) {
	if m.chrRAM {
		m.chr[m.chrBank(addr)*mmc3CHRBankSize+int(addr)&0x3FF] = v
	}
}

func (m *MMC3) NTMirroring() [4]uint16 { return m.nt }

// NotifyA12 observes the pattern address of a PPU CHR fetch. A rising edge
// on A12 clocks the IRQ counter, but only after A12 has stayed low for a few
// fetches; this filters the sprite-fetch toggling within one scanline.
func (m *MMC3) NotifyA12(addr uint16) {
	high := addr&0x1000 != 0
	if !high {
		m.prevA12 = false
		m.lowStreak++
		return
	}
	if !m.prevA12 && m.lowStreak >= 3 {
		m.clockIRQ()
	}
	m.prevA12 = true
	m.lowStreak = 0
}

func (m *MMC3) clockIRQ() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
		logx.Tracef(logx.Mapper, "mmc3 irq asserted (latch=%d)", m.irqLatch)
	}
}

func (m *MMC3) IRQPending() bool { return m.irqPending }

func (m *MMC3) AckIRQ() { m.irqPending = false }
