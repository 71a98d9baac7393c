package cpu

import "testing"

func TestLAX(t *testing.T) {
	c := testCPU(t, nil)
	c.write(0x0040, 0xC3)
	loadRAM(c, 0x0500, []byte{0xA7, 0x40}) // LAX $40
	step(t, c)
	if c.A != 0xC3 || c.X != 0xC3 {
		t.Errorf("A=%#x X=%#x, want both 0xC3", c.A, c.X)
	}
	if !c.getFlag(flagN) {
		t.Error("N must follow the loaded value")
	}
}

func TestSAX(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0x87, 0x40}) // SAX $40
	c.A = 0xF0
	c.X = 0x3C
	p := c.P
	step(t, c)
	if got := c.read(0x0040); got != 0x30 {
		t.Errorf("mem = %#x, want A&X", got)
	}
	if c.P != p {
		t.Error("SAX must not touch flags")
	}
}

func TestSLO(t *testing.T) {
	c := testCPU(t, nil)
	c.write(0x0040, 0xC1)
	loadRAM(c, 0x0500, []byte{0x07, 0x40}) // SLO $40
	c.A = 0x01
	step(t, c)
	if got := c.read(0x0040); got != 0x82 {
		t.Errorf("mem = %#x, want shifted 0x82", got)
	}
	if c.A != 0x83 {
		t.Errorf("A = %#x, want OR result", c.A)
	}
	if !c.getFlag(flagC) {
		t.Error("shifted-out bit must land in carry")
	}
}

func TestRLA(t *testing.T) {
	c := testCPU(t, nil)
	c.write(0x0040, 0x40)
	loadRAM(c, 0x0500, []byte{0x27, 0x40}) // RLA $40
	c.A = 0xFF
	c.setFlag(flagC, true)
	step(t, c)
	if got := c.read(0x0040); got != 0x81 {
		t.Errorf("mem = %#x, want rotated 0x81", got)
	}
	if c.A != 0x81 {
		t.Errorf("A = %#x, want AND result", c.A)
	}
}

func TestSRE(t *testing.T) {
	c := testCPU(t, nil)
	c.write(0x0040, 0x03)
	loadRAM(c, 0x0500, []byte{0x47, 0x40}) // SRE $40
	c.A = 0xFF
	step(t, c)
	if got := c.read(0x0040); got != 0x01 {
		t.Errorf("mem = %#x, want 0x01", got)
	}
	if c.A != 0xFE {
		t.Errorf("A = %#x, want EOR result", c.A)
	}
	if !c.getFlag(flagC) {
		t.Error("shifted-out bit must land in carry")
	}
}

func TestRRA(t *testing.T) {
	c := testCPU(t, nil)
	c.write(0x0040, 0x03)
	loadRAM(c, 0x0500, []byte{0x67, 0x40}) // RRA $40
	c.A = 0x10
	c.setFlag(flagC, false)
	step(t, c)
	// 0x03 rotates to 0x01 with carry out; ADC adds 0x01 + carry 1.
	if got := c.read(0x0040); got != 0x01 {
		t.Errorf("mem = %#x, want 0x01", got)
	}
	if c.A != 0x12 {
		t.Errorf("A = %#x, want 0x12", c.A)
	}
}

func TestDCP(t *testing.T) {
	c := testCPU(t, nil)
	c.write(0x0040, 0x11)
	loadRAM(c, 0x0500, []byte{0xC7, 0x40}) // DCP $40
	c.A = 0x10
	step(t, c)
	if got := c.read(0x0040); got != 0x10 {
		t.Errorf("mem = %#x, want decremented 0x10", got)
	}
	if !c.getFlag(flagZ) || !c.getFlag(flagC) {
		t.Error("compare against decremented value must set Z and C")
	}
}

func TestISC(t *testing.T) {
	c := testCPU(t, nil)
	c.write(0x0040, 0x0F)
	loadRAM(c, 0x0500, []byte{0xE7, 0x40}) // ISC $40
	c.A = 0x20
	c.setFlag(flagC, true)
	step(t, c)
	if got := c.read(0x0040); got != 0x10 {
		t.Errorf("mem = %#x, want incremented 0x10", got)
	}
	if c.A != 0x10 {
		t.Errorf("A = %#x, want subtraction result", c.A)
	}
}

func TestANC(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0x0B, 0x80}) // ANC #$80
	c.A = 0xFF
	step(t, c)
	if c.A != 0x80 {
		t.Errorf("A = %#x", c.A)
	}
	if !c.getFlag(flagC) || !c.getFlag(flagN) {
		t.Error("ANC must copy N into C")
	}
}

func TestALR(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0x4B, 0xFF}) // ALR #$FF
	c.A = 0x03
	step(t, c)
	if c.A != 0x01 {
		t.Errorf("A = %#x, want AND-then-shift", c.A)
	}
	if !c.getFlag(flagC) {
		t.Error("bit shifted out of the AND result sets carry")
	}
}

func TestARR(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0x6B, 0xFF}) // ARR #$FF
	c.A = 0xC0
	c.setFlag(flagC, true)
	step(t, c)
	// 0xC0 >> 1 with carry in: 0xE0. C follows bit 6, V = bit6 ^ bit5.
	if c.A != 0xE0 {
		t.Errorf("A = %#x, want 0xE0", c.A)
	}
	if !c.getFlag(flagC) {
		t.Error("ARR carry must follow result bit 6")
	}
	if c.getFlag(flagV) {
		t.Error("ARR overflow = bit6 xor bit5, both set here")
	}
}

func TestAXS(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0xCB, 0x10}) // AXS #$10
	c.A = 0xFF
	c.X = 0x0F
	step(t, c)
	// X = (A & X) - imm = 0x0F - 0x10 borrows.
	if c.X != 0xFF {
		t.Errorf("X = %#x, want 0xFF", c.X)
	}
	if c.getFlag(flagC) {
		t.Error("borrow must clear carry")
	}
}

func TestLXA(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0xAB, 0x11}) // LXA #$11
	c.A = 0x00
	step(t, c)
	// (A | 0xEE) & imm = 0x00.
	if c.A != 0x00 || c.X != 0x00 {
		t.Errorf("A=%#x X=%#x, want 0", c.A, c.X)
	}
	if !c.getFlag(flagZ) {
		t.Error("Z must be set")
	}
}

func TestLAS(t *testing.T) {
	c := testCPU(t, nil)
	c.write(0x0310, 0x0F)
	loadRAM(c, 0x0500, []byte{0xBB, 0x00, 0x03}) // LAS $0300,Y
	c.Y = 0x10
	c.S = 0xF3
	step(t, c)
	if c.A != 0x03 || c.X != 0x03 || c.S != 0x03 {
		t.Errorf("A=%#x X=%#x S=%#x, want all 0x03", c.A, c.X, c.S)
	}
}

func TestSKBSKWConsumeOperands(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0x80, 0x12, 0x04, 0x34, 0x0C, 0x00, 0x03})
	step(t, c)
	if c.PC != 0x0502 {
		t.Errorf("SKB: PC = %#04x, want 0x0502", c.PC)
	}
	step(t, c)
	if c.PC != 0x0504 {
		t.Errorf("NOP zp: PC = %#04x, want 0x0504", c.PC)
	}
	step(t, c)
	if c.PC != 0x0507 {
		t.Errorf("SKW: PC = %#04x, want 0x0507", c.PC)
	}
}

func TestSKWPageCrossPenalty(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0x1C, 0xF0, 0x02}) // NOP $02F0,X
	c.X = 0x20
	if got := step(t, c); got != 5 {
		t.Errorf("NOP abs,X across page = %d cycles, want 5", got)
	}
}

func TestEBIsSBC(t *testing.T) {
	c := testCPU(t, nil)
	loadRAM(c, 0x0500, []byte{0xEB, 0x01}) // SBC #$01 (undocumented alias)
	c.A = 0x10
	c.setFlag(flagC, true)
	step(t, c)
	if c.A != 0x0F {
		t.Errorf("A = %#x, want 0x0F", c.A)
	}
}

func TestAllJamOpcodesHalt(t *testing.T) {
	jams := []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2}
	for _, op := range jams {
		c := testCPU(t, nil)
		loadRAM(c, 0x0500, []byte{op})
		if _, err := c.Step(); err == nil {
			t.Errorf("opcode %#02x did not halt", op)
		}
	}
}
