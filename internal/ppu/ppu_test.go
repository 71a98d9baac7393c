package ppu

import (
	"testing"

	"github.com/ktakagaki/nescore/internal/mapper"
	"github.com/ktakagaki/nescore/internal/rom"
)

// testPPU builds a PPU over an NROM cartridge with 8 KiB of CHR-RAM.
func testPPU(t *testing.T) *PPU {
	t.Helper()
	img := &rom.Image{PRG: make([]byte, rom.PRGBankSize), CHR: make([]byte, rom.CHRBankSize), CHRRAM: true}
	m, err := mapper.New(img)
	if err != nil {
		t.Fatal(err)
	}
	return New(m)
}

func TestStatusReadClearsVBlankAndToggle(t *testing.T) {
	p := testPPU(t)
	p.status = statusVBlank | statusSprite0
	p.w = true

	v := p.ReadReg(regStatus)
	if v&statusVBlank == 0 {
		t.Error("read did not report VBlank")
	}
	if p.status&statusVBlank != 0 {
		t.Error("VBlank still set after read")
	}
	if p.w {
		t.Error("write toggle still set after read")
	}
	if p.status&statusSprite0 == 0 {
		t.Error("sprite-0 flag must survive a status read")
	}
}

func TestAddrPairSetsV(t *testing.T) {
	p := testPPU(t)
	p.WriteReg(regAddr, 0x21)
	p.WriteReg(regAddr, 0x08)
	if p.v != 0x2108 {
		t.Errorf("v = %#04x, want 0x2108", p.v)
	}
	if p.v != p.t {
		t.Errorf("v (%#04x) != t (%#04x) after an address pair", p.v, p.t)
	}
}

func TestStatusReadRestartsAddrToggle(t *testing.T) {
	p := testPPU(t)
	p.WriteReg(regAddr, 0x20)
	p.WriteReg(regAddr, 0x00)
	if p.v != 0x2000 {
		t.Fatalf("v = %#04x, want 0x2000", p.v)
	}
	p.ReadReg(regStatus)
	p.WriteReg(regAddr, 0x21)
	p.WriteReg(regAddr, 0x23)
	if p.v != 0x2123 {
		t.Errorf("v = %#04x, want 0x2123 after toggle restart", p.v)
	}
}

func TestScrollWrites(t *testing.T) {
	p := testPPU(t)
	p.WriteReg(regScroll, 0x7D) // coarse X 15, fine X 5
	if p.t&0x1F != 15 {
		t.Errorf("coarse X = %d, want 15", p.t&0x1F)
	}
	if p.x != 5 {
		t.Errorf("fine X = %d, want 5", p.x)
	}
	p.WriteReg(regScroll, 0x5E) // fine Y 6, coarse Y 11
	if p.t != 0x616F {
		t.Errorf("t = %#04x, want 0x616f", p.t)
	}
	if p.w {
		t.Error("toggle must return low after the second write")
	}
}

func TestCtrlWritesNametableBits(t *testing.T) {
	p := testPPU(t)
	p.WriteReg(regCtrl, 0x03)
	if p.t&0x0C00 != 0x0C00 {
		t.Errorf("t nametable bits = %#04x, want both set", p.t&0x0C00)
	}
	if p.vramIncr != 1 {
		t.Errorf("increment = %d, want 1", p.vramIncr)
	}
	p.WriteReg(regCtrl, 0x04)
	if p.vramIncr != 32 {
		t.Errorf("increment = %d, want 32", p.vramIncr)
	}
	p.WriteReg(regCtrl, 0x20)
	if p.spriteH != 16 {
		t.Errorf("sprite height = %d, want 16", p.spriteH)
	}
}

func TestDataReadBuffered(t *testing.T) {
	p := testPPU(t)
	p.WriteReg(regAddr, 0x20)
	p.WriteReg(regAddr, 0x00)
	p.WriteReg(regData, 0xAB)
	p.WriteReg(regData, 0xCD)

	p.WriteReg(regAddr, 0x20)
	p.WriteReg(regAddr, 0x00)
	p.ReadReg(regData) // priming read returns the stale buffer
	if got := p.ReadReg(regData); got != 0xAB {
		t.Errorf("first buffered read = %#x, want 0xAB", got)
	}
	if got := p.ReadReg(regData); got != 0xCD {
		t.Errorf("second buffered read = %#x, want 0xCD", got)
	}
}

func TestPaletteReadImmediate(t *testing.T) {
	p := testPPU(t)
	p.WriteReg(regAddr, 0x3F)
	p.WriteReg(regAddr, 0x01)
	p.WriteReg(regData, 0x2A)

	p.WriteReg(regAddr, 0x3F)
	p.WriteReg(regAddr, 0x01)
	if got := p.ReadReg(regData); got != 0x2A {
		t.Errorf("palette read = %#x, want immediate 0x2A", got)
	}
}

func TestPaletteMirrors(t *testing.T) {
	p := testPPU(t)
	aliases := [][2]uint16{
		{0x3F10, 0x3F00},
		{0x3F14, 0x3F04},
		{0x3F18, 0x3F08},
		{0x3F1C, 0x3F0C},
	}
	for i, pair := range aliases {
		v := uint8(i + 1)
		p.store(pair[0], v)
		if got := p.load(pair[1]); got != v {
			t.Errorf("store %#04x: load %#04x = %#x, want %#x", pair[0], pair[1], got, v)
		}
		p.store(pair[1], v^0x3F)
		if got := p.load(pair[0]); got != v^0x3F {
			t.Errorf("mirror not symmetric at %#04x", pair[0])
		}
	}
}

func TestOAMAddrAutoIncrement(t *testing.T) {
	p := testPPU(t)
	p.WriteReg(regOAMAddr, 5)
	p.WriteReg(regOAMData, 0x42)
	if p.oam[5] != 0x42 {
		t.Errorf("oam[5] = %#x", p.oam[5])
	}
	if p.oamAddr != 6 {
		t.Errorf("oamAddr = %d, want 6", p.oamAddr)
	}
	p.WriteReg(regOAMAddr, 5)
	if got := p.ReadReg(regOAMData); got != 0x42 {
		t.Errorf("OAMDATA read = %#x", got)
	}
	if p.oamAddr != 5 {
		t.Error("OAMDATA read must not advance the address")
	}
}

func TestVRAMIncrement32(t *testing.T) {
	p := testPPU(t)
	p.WriteReg(regCtrl, 0x04)
	p.WriteReg(regAddr, 0x20)
	p.WriteReg(regAddr, 0x00)
	p.WriteReg(regData, 1)
	p.WriteReg(regData, 2)
	if p.nt[0] != 1 || p.nt[32] != 2 {
		t.Errorf("nt[0]=%d nt[32]=%d, want column writes 32 apart", p.nt[0], p.nt[32])
	}
}

func TestNametableMirroringThroughMapper(t *testing.T) {
	p := testPPU(t)
	// Horizontal mirroring: 0x2000 and 0x2400 share a table.
	p.store(0x2005, 0x11)
	if got := p.load(0x2405); got != 0x11 {
		t.Errorf("horizontal mirror load = %#x, want 0x11", got)
	}
	if got := p.load(0x2805); got == 0x11 {
		t.Error("0x2800 must map to the second table under horizontal mirroring")
	}
}
