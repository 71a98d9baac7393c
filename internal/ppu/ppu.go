// Package ppu emulates the picture processing unit at dot granularity: the
// background fetch pipeline, sprite evaluation, the scroll register pair
// v/t/x/w, and the NMI line raised at vertical blank.
package ppu

import (
	"fmt"

	"github.com/ktakagaki/nescore/internal/logx"
	"github.com/ktakagaki/nescore/internal/mapper"
)

// Frame geometry.
const (
	FrameWidth  = 256
	FrameHeight = 240
	// FrameBytes is the size of one BGRA frame buffer.
	FrameBytes = FrameWidth * FrameHeight * 4

	dotsPerLine   = 340 // last dot index; 341 dots per scanline
	visibleLines  = 240
	vblankLine    = 241
	preRenderLine = 261
)

// Register indexes (CPU address mod 8).
const (
	regCtrl = iota
	regMask
	regStatus
	regOAMAddr
	regOAMData
	regScroll
	regAddr
	regData
)

// PPUCTRL bits.
const (
	ctrlNMIEnable = 1 << 7
)

// PPUMASK bits.
const (
	maskGrayscale  = 1 << 0
	maskShowBGLeft = 1 << 1
	maskShowSpLeft = 1 << 2
	maskShowBG     = 1 << 3
	maskShowSp     = 1 << 4
)

// PPUSTATUS bits.
const (
	statusOverflow = 1 << 5
	statusSprite0  = 1 << 6
	statusVBlank   = 1 << 7
)

// OAM attribute bits.
const (
	oamPriority = 1 << 5
	oamFlipH    = 1 << 6
	oamFlipV    = 1 << 7
)

// PPU holds all rendering state. It owns its nametable RAM, palette RAM and
// OAM; pattern data comes from the shared mapper.
type PPU struct {
	mapper mapper.Mapper
	a12    mapper.A12Watcher

	ctrl    uint8
	mask    uint8
	status  uint8
	oamAddr uint8

	nt      [0x800]uint8
	palette [32]uint8
	oam     [256]uint8
	secOAM  [32]uint8

	secIndex        int
	spriteCount     int
	nextSpriteCount int
	sp0Line         bool
	sp0LineNext     bool

	vramIncr       uint16
	sprPatternBase uint16
	bgPatternBase  uint16
	spriteH        int

	dot      int
	scanline int
	oddFrame bool
	dotCount uint64

	// Background pipeline: latched fetch bytes and the 64-bit shift
	// accumulator of prefetched 4-bit pixels.
	ntByte   uint8
	atByte   uint8
	bgLow    uint8
	bgHigh   uint8
	tileData uint64

	// Sprite latches for up to 8 sprites on the next line.
	spLow  uint8
	spHigh uint8
	spAttr uint8
	spX    [8]uint8
	spData [8]uint32
	spPrio [8]uint8

	readBuffer uint8

	v uint16
	t uint16
	x uint8
	w bool

	frame      [FrameBytes]uint8
	frameReady bool
	frameCount uint64
}

// New builds a PPU bound to the cartridge mapper.
func New(m mapper.Mapper) *PPU {
	p := &PPU{
		mapper:   m,
		spriteH:  8,
		vramIncr: 1,
		dot:      dotsPerLine,
		scanline: visibleLines,
	}
	p.a12, _ = m.(mapper.A12Watcher)
	return p
}

// Reset returns timing and scroll state to power-on values. Video memory
// contents are left alone, as on hardware.
func (p *PPU) Reset() {
	p.dot = dotsPerLine
	p.scanline = visibleLines
	p.oddFrame = false
	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.frameReady = false
	p.spriteCount = 0
	p.nextSpriteCount = 0
	p.secIndex = 0
	p.ctrl = 0
	p.mask = 0
	p.vramIncr = 1
	p.sprPatternBase = 0
	p.bgPatternBase = 0
	p.spriteH = 8
}

// PendingNMI reports the level of the NMI line: NMI enabled and VBlank set.
// The CPU edge-detects this before each instruction.
func (p *PPU) PendingNMI() bool {
	return p.ctrl&ctrlNMIEnable != 0 && p.status&statusVBlank != 0
}

// FrameReady reports whether a completed frame is waiting to be copied.
func (p *PPU) FrameReady() bool { return p.frameReady }

// CopyFrame copies the completed frame into dst (BGRA, 256x240x4 bytes) and
// clears the ready flag, completing the single-writer hand-off.
func (p *PPU) CopyFrame(dst []uint8) {
	copy(dst, p.frame[:])
	p.frameReady = false
}

// WriteReg handles CPU writes to the eight registers.
func (p *PPU) WriteReg(reg uint16, v uint8) {
	switch reg {
	case regCtrl:
		p.ctrl = v
		if v&0x04 == 0 {
			p.vramIncr = 1
		} else {
			p.vramIncr = 32
		}
		p.sprPatternBase = uint16(v&0x08) << 9
		p.bgPatternBase = uint16(v&0x10) << 8
		if v&0x20 == 0 {
			p.spriteH = 8
		} else {
			p.spriteH = 16
		}
		p.t = p.t&0xF3FF | uint16(v&3)<<10
	case regMask:
		p.mask = v
	case regStatus:
		// Read-only.
	case regOAMAddr:
		p.oamAddr = v
	case regOAMData:
		p.oam[p.oamAddr] = v
		p.oamAddr++
	case regScroll:
		if !p.w {
			p.t = p.t&0xFFE0 | uint16(v)>>3
			p.x = v & 7
		} else {
			p.t = p.t&0x8FFF | uint16(v&0x07)<<12
			p.t = p.t&0xFC1F | uint16(v&0xF8)<<2
		}
		p.w = !p.w
	case regAddr:
		if !p.w {
			p.t = p.t&0x80FF | uint16(v&0x3F)<<8
		} else {
			p.t = p.t&0xFF00 | uint16(v)
			p.v = p.t
		}
		p.w = !p.w
	case regData:
		p.store(p.v, v)
		p.v += p.vramIncr
	}
}

// ReadReg handles CPU reads. PPUSTATUS clears VBlank and the write toggle;
// PPUDATA reads through the delay buffer except in the palette region.
func (p *PPU) ReadReg(reg uint16) uint8 {
	switch reg {
	case regStatus:
		v := p.status
		p.status &^= statusVBlank
		p.w = false
		return v
	case regOAMData:
		return p.oam[p.oamAddr]
	case regData:
		value := p.load(p.v)
		if p.v&0x3FFF < 0x3F00 {
			value, p.readBuffer = p.readBuffer, value
		} else {
			p.readBuffer = p.load(p.v - 0x1000)
		}
		p.v += p.vramIncr
		return value
	}
	return 0
}

// mirrorNT maps a nametable address through the mapper's 4-entry table.
func (p *PPU) mirrorNT(addr uint16) uint16 {
	table := p.mapper.NTMirroring()
	return table[(addr>>10)&3] + addr&0x3FF
}

// paletteIndex folds the sprite-backdrop aliases 0x10/14/18/1C onto the
// backdrop entries.
func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx >= 16 && idx%4 == 0 {
		idx -= 16
	}
	return idx
}

func (p *PPU) load(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.loadCHR(addr)
	case addr < 0x3F00:
		return p.nt[p.mirrorNT(addr)&0x7FF]
	default:
		return p.palette[paletteIndex(addr)]
	}
}

func (p *PPU) store(addr uint16, v uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.mapper.StoreCHR(addr, v)
	case addr < 0x3F00:
		p.nt[p.mirrorNT(addr)&0x7FF] = v
	default:
		p.palette[paletteIndex(addr)] = v
	}
}

func (p *PPU) loadCHR(addr uint16) uint8 {
	if p.a12 != nil {
		p.a12.NotifyA12(addr)
	}
	return p.mapper.LoadCHR(addr)
}

// checkBounds panics on out-of-range internal coordinates; reaching it means
// an implementation bug, not bad guest code.
func (p *PPU) checkBounds(x, y int) {
	if x < 0 || x >= FrameWidth || y < 0 || y >= FrameHeight {
		panic(fmt.Sprintf("ppu: invalid access: pixel (%d,%d) outside frame", x, y))
	}
}

func (p *PPU) putPixel(x, y int, palIdx uint8) {
	p.checkBounds(x, y)
	c := masterPalette[palIdx&0x3F]
	off := (y*FrameWidth + x) * 4
	p.frame[off] = c[2]
	p.frame[off+1] = c[1]
	p.frame[off+2] = c[0]
	p.frame[off+3] = 0xFF
}

// Frame returns how many frames have completed since power-on.
func (p *PPU) Frame() uint64 { return p.frameCount }

// Dots returns the running dot counter, 3 per CPU cycle.
func (p *PPU) Dots() uint64 { return p.dotCount }

func (p *PPU) logFrame() {
	logx.Tracef(logx.PPU, "frame %d complete (odd=%v)", p.frameCount, p.oddFrame)
}
