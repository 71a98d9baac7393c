// Package mapper implements cartridge bank switching. A Mapper translates
// CPU program-window and PPU pattern-window addresses into the cartridge's
// PRG/CHR banks and reports the nametable arrangement.
package mapper

import (
	"errors"
	"fmt"

	"github.com/ktakagaki/nescore/internal/rom"
)

// ErrUnsupported is returned when the image names a mapper id outside the
// supported set.
var ErrUnsupported = errors.New("mapper: unsupported mapper id")

// Mapper is the cartridge-side bus contract. LoadPRG/StorePRG serve the CPU
// window 0x4020-0xFFFF; LoadCHR/StoreCHR serve the PPU pattern window
// 0x0000-0x1FFF. NTMirroring returns base offsets into the PPU's 2 KiB
// nametable RAM for the four logical nametables.
type Mapper interface {
	LoadPRG(addr uint16) uint8
	StorePRG(addr uint16, v uint8)
	LoadCHR(addr uint16) uint8
	StoreCHR(addr uint16, v uint8)
	NTMirroring() [4]uint16
}

// IRQSource is implemented by mappers with a scanline counter (MMC3). The
// bus polls IRQPending; the line stays asserted until the game disables the
// IRQ (a write to 0xE000) or AckIRQ is called.
type IRQSource interface {
	IRQPending() bool
	AckIRQ()
}

// A12Watcher is implemented by mappers clocked by PPU address line 12. The
// PPU reports the pattern address of every CHR fetch; the mapper filters
// rising edges itself.
type A12Watcher interface {
	NotifyA12(addr uint16)
}

// New constructs the mapper named by the image header.
func New(img *rom.Image) (Mapper, error) {
	id := img.Header.MapperID()
	switch id {
	case 0:
		return newNROM(img), nil
	case 1:
		return newMMC1(img), nil
	case 2:
		return newUxROM(img), nil
	case 3:
		return newCNROM(img), nil
	case 4:
		return newMMC3(img), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupported, id)
}

var (
	mirrorHorizontal = [4]uint16{0, 0, 0x400, 0x400}
	mirrorVertical   = [4]uint16{0, 0x400, 0, 0x400}
	mirrorSingleLow  = [4]uint16{0, 0, 0, 0}
	mirrorSingleHigh = [4]uint16{0x400, 0x400, 0x400, 0x400}
)

// headerMirroring maps the header flag to a fixed nametable table, for
// mappers without mirroring control of their own.
func headerMirroring(img *rom.Image) [4]uint16 {
	if img.Header.Mirroring() == rom.Vertical {
		return mirrorVertical
	}
	return mirrorHorizontal
}
