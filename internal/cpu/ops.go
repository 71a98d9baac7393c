package cpu

// exec dispatches one opcode. Every entry of the table maps to a body;
// nothing falls through silently.
func (c *CPU) exec(op uint8) {
	switch op {
	// ADC
	case 0x69:
		c.adc(modeImmediate)
	case 0x65:
		c.adc(modeZeroPage)
	case 0x75:
		c.adc(modeZeroPageX)
	case 0x6D:
		c.adc(modeAbsolute)
	case 0x7D:
		c.adc(modeAbsoluteX)
	case 0x79:
		c.adc(modeAbsoluteY)
	case 0x61:
		c.adc(modeIndirectX)
	case 0x71:
		c.adc(modeIndirectY)

	// AND
	case 0x29:
		c.and(modeImmediate)
	case 0x25:
		c.and(modeZeroPage)
	case 0x35:
		c.and(modeZeroPageX)
	case 0x2D:
		c.and(modeAbsolute)
	case 0x3D:
		c.and(modeAbsoluteX)
	case 0x39:
		c.and(modeAbsoluteY)
	case 0x21:
		c.and(modeIndirectX)
	case 0x31:
		c.and(modeIndirectY)

	// ASL
	case 0x0A:
		c.asl(modeAccumulator)
	case 0x06:
		c.asl(modeZeroPage)
	case 0x16:
		c.asl(modeZeroPageX)
	case 0x0E:
		c.asl(modeAbsolute)
	case 0x1E:
		c.asl(modeAbsoluteX)

	// Branches
	case 0x90:
		c.branch(!c.getFlag(flagC))
	case 0xB0:
		c.branch(c.getFlag(flagC))
	case 0xF0:
		c.branch(c.getFlag(flagZ))
	case 0x30:
		c.branch(c.getFlag(flagN))
	case 0xD0:
		c.branch(!c.getFlag(flagZ))
	case 0x10:
		c.branch(!c.getFlag(flagN))
	case 0x50:
		c.branch(!c.getFlag(flagV))
	case 0x70:
		c.branch(c.getFlag(flagV))

	// BIT
	case 0x24:
		c.bit(modeZeroPage)
	case 0x2C:
		c.bit(modeAbsolute)

	// BRK
	case 0x00:
		c.brk()

	// Flag operations
	case 0x18:
		c.setFlag(flagC, false)
	case 0x38:
		c.setFlag(flagC, true)
	case 0x58:
		c.setFlag(flagI, false)
	case 0x78:
		c.setFlag(flagI, true)
	case 0xB8:
		c.setFlag(flagV, false)
	case 0xD8:
		c.setFlag(flagD, false)
	case 0xF8:
		c.setFlag(flagD, true)

	// CMP/CPX/CPY
	case 0xC9:
		c.compare(c.A, c.loadOperand(modeImmediate))
	case 0xC5:
		c.compare(c.A, c.loadOperand(modeZeroPage))
	case 0xD5:
		c.compare(c.A, c.loadOperand(modeZeroPageX))
	case 0xCD:
		c.compare(c.A, c.loadOperand(modeAbsolute))
	case 0xDD:
		c.compare(c.A, c.loadOperand(modeAbsoluteX))
	case 0xD9:
		c.compare(c.A, c.loadOperand(modeAbsoluteY))
	case 0xC1:
		c.compare(c.A, c.loadOperand(modeIndirectX))
	case 0xD1:
		c.compare(c.A, c.loadOperand(modeIndirectY))
	case 0xE0:
		c.compare(c.X, c.loadOperand(modeImmediate))
	case 0xE4:
		c.compare(c.X, c.loadOperand(modeZeroPage))
	case 0xEC:
		c.compare(c.X, c.loadOperand(modeAbsolute))
	case 0xC0:
		c.compare(c.Y, c.loadOperand(modeImmediate))
	case 0xC4:
		c.compare(c.Y, c.loadOperand(modeZeroPage))
	case 0xCC:
		c.compare(c.Y, c.loadOperand(modeAbsolute))

	// DEC/INC
	case 0xC6:
		c.dec(modeZeroPage)
	case 0xD6:
		c.dec(modeZeroPageX)
	case 0xCE:
		c.dec(modeAbsolute)
	case 0xDE:
		c.dec(modeAbsoluteX)
	case 0xE6:
		c.inc(modeZeroPage)
	case 0xF6:
		c.inc(modeZeroPageX)
	case 0xEE:
		c.inc(modeAbsolute)
	case 0xFE:
		c.inc(modeAbsoluteX)

	// Register increments/decrements
	case 0xCA:
		c.X = c.setZN(c.X - 1)
	case 0x88:
		c.Y = c.setZN(c.Y - 1)
	case 0xE8:
		c.X = c.setZN(c.X + 1)
	case 0xC8:
		c.Y = c.setZN(c.Y + 1)

	// EOR
	case 0x49:
		c.eor(modeImmediate)
	case 0x45:
		c.eor(modeZeroPage)
	case 0x55:
		c.eor(modeZeroPageX)
	case 0x4D:
		c.eor(modeAbsolute)
	case 0x5D:
		c.eor(modeAbsoluteX)
	case 0x59:
		c.eor(modeAbsoluteY)
	case 0x41:
		c.eor(modeIndirectX)
	case 0x51:
		c.eor(modeIndirectY)

	// JMP/JSR/RTS/RTI
	case 0x4C:
		c.PC = c.operandAddr(modeAbsolute)
	case 0x6C:
		c.PC = c.operandAddr(modeIndirect)
	case 0x20:
		c.jsr()
	case 0x60:
		c.PC = c.pop16() + 1
	case 0x40:
		c.rti()

	// LDA/LDX/LDY
	case 0xA9:
		c.A = c.setZN(c.loadOperand(modeImmediate))
	case 0xA5:
		c.A = c.setZN(c.loadOperand(modeZeroPage))
	case 0xB5:
		c.A = c.setZN(c.loadOperand(modeZeroPageX))
	case 0xAD:
		c.A = c.setZN(c.loadOperand(modeAbsolute))
	case 0xBD:
		c.A = c.setZN(c.loadOperand(modeAbsoluteX))
	case 0xB9:
		c.A = c.setZN(c.loadOperand(modeAbsoluteY))
	case 0xA1:
		c.A = c.setZN(c.loadOperand(modeIndirectX))
	case 0xB1:
		c.A = c.setZN(c.loadOperand(modeIndirectY))
	case 0xA2:
		c.X = c.setZN(c.loadOperand(modeImmediate))
	case 0xA6:
		c.X = c.setZN(c.loadOperand(modeZeroPage))
	case 0xB6:
		c.X = c.setZN(c.loadOperand(modeZeroPageY))
	case 0xAE:
		c.X = c.setZN(c.loadOperand(modeAbsolute))
	case 0xBE:
		c.X = c.setZN(c.loadOperand(modeAbsoluteY))
	case 0xA0:
		c.Y = c.setZN(c.loadOperand(modeImmediate))
	case 0xA4:
		c.Y = c.setZN(c.loadOperand(modeZeroPage))
	case 0xB4:
		c.Y = c.setZN(c.loadOperand(modeZeroPageX))
	case 0xAC:
		c.Y = c.setZN(c.loadOperand(modeAbsolute))
	case 0xBC:
		c.Y = c.setZN(c.loadOperand(modeAbsoluteX))

	// LSR
	case 0x4A:
		c.lsr(modeAccumulator)
	case 0x46:
		c.lsr(modeZeroPage)
	case 0x56:
		c.lsr(modeZeroPageX)
	case 0x4E:
		c.lsr(modeAbsolute)
	case 0x5E:
		c.lsr(modeAbsoluteX)

	// ORA
	case 0x09:
		c.ora(modeImmediate)
	case 0x05:
		c.ora(modeZeroPage)
	case 0x15:
		c.ora(modeZeroPageX)
	case 0x0D:
		c.ora(modeAbsolute)
	case 0x1D:
		c.ora(modeAbsoluteX)
	case 0x19:
		c.ora(modeAbsoluteY)
	case 0x01:
		c.ora(modeIndirectX)
	case 0x11:
		c.ora(modeIndirectY)

	// Stack
	case 0x48:
		c.push(c.A)
	case 0x68:
		c.A = c.setZN(c.pop())
	case 0x08:
		c.push(c.P | flagB4 | flagB5)
	case 0x28:
		c.plp()

	// ROL/ROR
	case 0x2A:
		c.rol(modeAccumulator)
	case 0x26:
		c.rol(modeZeroPage)
	case 0x36:
		c.rol(modeZeroPageX)
	case 0x2E:
		c.rol(modeAbsolute)
	case 0x3E:
		c.rol(modeAbsoluteX)
	case 0x6A:
		c.ror(modeAccumulator)
	case 0x66:
		c.ror(modeZeroPage)
	case 0x76:
		c.ror(modeZeroPageX)
	case 0x6E:
		c.ror(modeAbsolute)
	case 0x7E:
		c.ror(modeAbsoluteX)

	// SBC
	case 0xE9, 0xEB:
		c.sbc(modeImmediate)
	case 0xE5:
		c.sbc(modeZeroPage)
	case 0xF5:
		c.sbc(modeZeroPageX)
	case 0xED:
		c.sbc(modeAbsolute)
	case 0xFD:
		c.sbc(modeAbsoluteX)
	case 0xF9:
		c.sbc(modeAbsoluteY)
	case 0xE1:
		c.sbc(modeIndirectX)
	case 0xF1:
		c.sbc(modeIndirectY)

	// STA/STX/STY
	case 0x85:
		c.write(c.operandAddr(modeZeroPage), c.A)
	case 0x95:
		c.write(c.operandAddr(modeZeroPageX), c.A)
	case 0x8D:
		c.write(c.operandAddr(modeAbsolute), c.A)
	case 0x9D:
		c.write(c.operandAddr(modeAbsoluteX), c.A)
	case 0x99:
		c.write(c.operandAddr(modeAbsoluteY), c.A)
	case 0x81:
		c.write(c.operandAddr(modeIndirectX), c.A)
	case 0x91:
		c.write(c.operandAddr(modeIndirectY), c.A)
	case 0x86:
		c.write(c.operandAddr(modeZeroPage), c.X)
	case 0x96:
		c.write(c.operandAddr(modeZeroPageY), c.X)
	case 0x8E:
		c.write(c.operandAddr(modeAbsolute), c.X)
	case 0x84:
		c.write(c.operandAddr(modeZeroPage), c.Y)
	case 0x94:
		c.write(c.operandAddr(modeZeroPageX), c.Y)
	case 0x8C:
		c.write(c.operandAddr(modeAbsolute), c.Y)

	// Transfers
	case 0xAA:
		c.X = c.setZN(c.A)
	case 0xA8:
		c.Y = c.setZN(c.A)
	case 0xBA:
		c.X = c.setZN(c.S)
	case 0x8A:
		c.A = c.setZN(c.X)
	case 0x9A:
		c.S = c.X
	case 0x98:
		c.A = c.setZN(c.Y)

	// NOP family: implied; immediate and zero page (SKB); absolute (SKW).
	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA:
		// no operation
	case 0x80, 0x82, 0x89, 0xC2, 0xE2:
		c.loadOperand(modeImmediate)
	case 0x04, 0x44, 0x64:
		c.loadOperand(modeZeroPage)
	case 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4:
		c.loadOperand(modeZeroPageX)
	case 0x0C:
		c.loadOperand(modeAbsolute)
	case 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		c.loadOperand(modeAbsoluteX)

	// SLO: shift left then OR into A.
	case 0x07:
		c.slo(modeZeroPage)
	case 0x17:
		c.slo(modeZeroPageX)
	case 0x0F:
		c.slo(modeAbsolute)
	case 0x1F:
		c.slo(modeAbsoluteX)
	case 0x1B:
		c.slo(modeAbsoluteY)
	case 0x03:
		c.slo(modeIndirectX)
	case 0x13:
		c.slo(modeIndirectY)

	// RLA: rotate left then AND into A.
	case 0x27:
		c.rla(modeZeroPage)
	case 0x37:
		c.rla(modeZeroPageX)
	case 0x2F:
		c.rla(modeAbsolute)
	case 0x3F:
		c.rla(modeAbsoluteX)
	case 0x3B:
		c.rla(modeAbsoluteY)
	case 0x23:
		c.rla(modeIndirectX)
	case 0x33:
		c.rla(modeIndirectY)

	// SRE: shift right then EOR into A.
	case 0x47:
		c.sre(modeZeroPage)
	case 0x57:
		c.sre(modeZeroPageX)
	case 0x4F:
		c.sre(modeAbsolute)
	case 0x5F:
		c.sre(modeAbsoluteX)
	case 0x5B:
		c.sre(modeAbsoluteY)
	case 0x43:
		c.sre(modeIndirectX)
	case 0x53:
		c.sre(modeIndirectY)

	// RRA: rotate right then add into A.
	case 0x67:
		c.rra(modeZeroPage)
	case 0x77:
		c.rra(modeZeroPageX)
	case 0x6F:
		c.rra(modeAbsolute)
	case 0x7F:
		c.rra(modeAbsoluteX)
	case 0x7B:
		c.rra(modeAbsoluteY)
	case 0x63:
		c.rra(modeIndirectX)
	case 0x73:
		c.rra(modeIndirectY)

	// SAX: store A AND X.
	case 0x87:
		c.write(c.operandAddr(modeZeroPage), c.A&c.X)
	case 0x97:
		c.write(c.operandAddr(modeZeroPageY), c.A&c.X)
	case 0x8F:
		c.write(c.operandAddr(modeAbsolute), c.A&c.X)
	case 0x83:
		c.write(c.operandAddr(modeIndirectX), c.A&c.X)

	// LAX: load A and X together.
	case 0xA7:
		c.lax(modeZeroPage)
	case 0xB7:
		c.lax(modeZeroPageY)
	case 0xAF:
		c.lax(modeAbsolute)
	case 0xBF:
		c.lax(modeAbsoluteY)
	case 0xA3:
		c.lax(modeIndirectX)
	case 0xB3:
		c.lax(modeIndirectY)

	// DCP: decrement then compare.
	case 0xC7:
		c.dcp(modeZeroPage)
	case 0xD7:
		c.dcp(modeZeroPageX)
	case 0xCF:
		c.dcp(modeAbsolute)
	case 0xDF:
		c.dcp(modeAbsoluteX)
	case 0xDB:
		c.dcp(modeAbsoluteY)
	case 0xC3:
		c.dcp(modeIndirectX)
	case 0xD3:
		c.dcp(modeIndirectY)

	// ISC: increment then subtract.
	case 0xE7:
		c.isc(modeZeroPage)
	case 0xF7:
		c.isc(modeZeroPageX)
	case 0xEF:
		c.isc(modeAbsolute)
	case 0xFF:
		c.isc(modeAbsoluteX)
	case 0xFB:
		c.isc(modeAbsoluteY)
	case 0xE3:
		c.isc(modeIndirectX)
	case 0xF3:
		c.isc(modeIndirectY)

	// Immediate-mode combinations.
	case 0x0B, 0x2B:
		c.anc()
	case 0x4B:
		c.alr()
	case 0x6B:
		c.arr()
	case 0x8B:
		c.xaa()
	case 0xAB:
		c.lxa()
	case 0xCB:
		c.axs()

	// High-address stores with unstable masks.
	case 0x9B:
		c.tas()
	case 0x9C:
		c.shy()
	case 0x9E:
		c.shx()
	case 0x9F:
		c.ahxAbsY()
	case 0x93:
		c.ahxIndY()

	// LAS
	case 0xBB:
		c.las()

	// JAM: the CPU wedges until reset.
	case 0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2:
		c.halted = true
		c.haltOp = op
		c.haltPC = c.PC - 1
	}
}

// Arithmetic -----------------------------------------------------------------

func (c *CPU) performADC(v uint8) {
	a := uint16(c.A)
	sum := a + uint16(v) + uint16(c.carry())
	c.setFlag(flagC, sum > 0xFF)
	c.setFlag(flagV, (a^uint16(v))&0x80 == 0 && (a^sum)&0x80 != 0)
	c.A = c.setZN(uint8(sum))
}

func (c *CPU) performSBC(v uint8) {
	a := uint16(c.A)
	borrow := uint16(1 - c.carry())
	diff := a - uint16(v) - borrow
	c.setFlag(flagV, (a^uint16(v))&0x80 != 0 && (a^diff)&0x80 != 0)
	c.setFlag(flagC, diff < 0x100)
	c.A = c.setZN(uint8(diff))
}

func (c *CPU) adc(m mode) { c.performADC(c.loadOperand(m)) }
func (c *CPU) sbc(m mode) { c.performSBC(c.loadOperand(m)) }

func (c *CPU) compare(reg, v uint8) {
	diff := uint16(reg) - uint16(v)
	c.setFlag(flagC, diff < 0x100)
	c.setZN(uint8(diff))
}

// Logic ----------------------------------------------------------------------

func (c *CPU) and(m mode) { c.A = c.setZN(c.A & c.loadOperand(m)) }
func (c *CPU) ora(m mode) { c.A = c.setZN(c.A | c.loadOperand(m)) }
func (c *CPU) eor(m mode) { c.A = c.setZN(c.A ^ c.loadOperand(m)) }

func (c *CPU) bit(m mode) {
	v := c.loadOperand(m)
	c.setFlag(flagZ, c.A&v == 0)
	c.setFlag(flagV, v&flagV != 0)
	c.setFlag(flagN, v&flagN != 0)
}

// Shifts and rotates ---------------------------------------------------------

func (c *CPU) asl(m mode) {
	if m == modeAccumulator {
		c.setFlag(flagC, c.A&0x80 != 0)
		c.A = c.setZN(c.A << 1)
		return
	}
	addr := c.operandAddr(m)
	v := c.read(addr)
	c.setFlag(flagC, v&0x80 != 0)
	c.write(addr, c.setZN(v<<1))
}

func (c *CPU) lsr(m mode) {
	if m == modeAccumulator {
		c.setFlag(flagC, c.A&1 != 0)
		c.A = c.setZN(c.A >> 1)
		return
	}
	addr := c.operandAddr(m)
	v := c.read(addr)
	c.setFlag(flagC, v&1 != 0)
	c.write(addr, c.setZN(v>>1))
}

func (c *CPU) rol(m mode) {
	carry := c.carry()
	if m == modeAccumulator {
		c.setFlag(flagC, c.A&0x80 != 0)
		c.A = c.setZN(c.A<<1 | carry)
		return
	}
	addr := c.operandAddr(m)
	v := c.read(addr)
	c.setFlag(flagC, v&0x80 != 0)
	c.write(addr, c.setZN(v<<1|carry))
}

func (c *CPU) ror(m mode) {
	carry := c.carry()
	if m == modeAccumulator {
		c.setFlag(flagC, c.A&1 != 0)
		c.A = c.setZN(c.A>>1 | carry<<7)
		return
	}
	addr := c.operandAddr(m)
	v := c.read(addr)
	c.setFlag(flagC, v&1 != 0)
	c.write(addr, c.setZN(v>>1|carry<<7))
}

// Read-modify-write ----------------------------------------------------------

func (c *CPU) inc(m mode) {
	addr := c.operandAddr(m)
	c.write(addr, c.setZN(c.read(addr)+1))
}

func (c *CPU) dec(m mode) {
	addr := c.operandAddr(m)
	c.write(addr, c.setZN(c.read(addr)-1))
}

// Control flow ---------------------------------------------------------------

// branch consumes the displacement and, when taken, charges one cycle plus
// one more if the target sits in a different page.
func (c *CPU) branch(cond bool) {
	offset := int8(c.read(c.operandAddr(modeRelative)))
	if !cond {
		return
	}
	target := uint16(int32(c.PC) + int32(offset))
	c.Cycles++
	if c.PC&0xFF00 != target&0xFF00 {
		c.Cycles++
	}
	c.PC = target
}

func (c *CPU) jsr() {
	addr := c.operandAddr(modeAbsolute)
	c.push16(c.PC - 1)
	c.PC = addr
}

func (c *CPU) brk() {
	c.push16(c.PC + 1)
	c.push(c.P | flagB4 | flagB5)
	c.setFlag(flagI, true)
	c.PC = c.read16(vectorIRQ)
}

// restoreP applies a stack copy of P, leaving the B4/B5 bits of the live
// register untouched.
func (c *CPU) restoreP(v uint8) {
	c.P = v&^(flagB4|flagB5) | c.P&(flagB4|flagB5)
}

func (c *CPU) plp() { c.restoreP(c.pop()) }

func (c *CPU) rti() {
	c.restoreP(c.pop())
	c.PC = c.pop16()
}

// Undocumented opcodes -------------------------------------------------------

func (c *CPU) slo(m mode) {
	addr := c.operandAddr(m)
	v := c.read(addr)
	c.setFlag(flagC, v&0x80 != 0)
	v <<= 1
	c.write(addr, v)
	c.A = c.setZN(c.A | v)
}

func (c *CPU) rla(m mode) {
	addr := c.operandAddr(m)
	v := c.read(addr)
	carry := c.carry()
	c.setFlag(flagC, v&0x80 != 0)
	v = v<<1 | carry
	c.write(addr, v)
	c.A = c.setZN(c.A & v)
}

func (c *CPU) sre(m mode) {
	addr := c.operandAddr(m)
	v := c.read(addr)
	c.setFlag(flagC, v&1 != 0)
	v >>= 1
	c.write(addr, v)
	c.A = c.setZN(c.A ^ v)
}

func (c *CPU) rra(m mode) {
	addr := c.operandAddr(m)
	v := c.read(addr)
	carry := c.carry()
	c.setFlag(flagC, v&1 != 0)
	v = v>>1 | carry<<7
	c.write(addr, v)
	c.performADC(v)
}

func (c *CPU) lax(m mode) {
	v := c.loadOperand(m)
	c.A = v
	c.X = c.setZN(v)
}

func (c *CPU) dcp(m mode) {
	addr := c.operandAddr(m)
	v := c.read(addr) - 1
	c.write(addr, v)
	c.compare(c.A, v)
}

func (c *CPU) isc(m mode) {
	addr := c.operandAddr(m)
	v := c.read(addr) + 1
	c.write(addr, v)
	c.performSBC(v)
}

func (c *CPU) anc() {
	c.A = c.setZN(c.A & c.loadOperand(modeImmediate))
	c.setFlag(flagC, c.getFlag(flagN))
}

func (c *CPU) alr() {
	c.A &= c.loadOperand(modeImmediate)
	c.setFlag(flagC, c.A&1 != 0)
	c.A = c.setZN(c.A >> 1)
}

func (c *CPU) arr() {
	c.A &= c.loadOperand(modeImmediate)
	c.A = c.setZN(c.A>>1 | c.carry()<<7)
	c.setFlag(flagC, c.A&0x40 != 0)
	c.setFlag(flagV, (c.A>>6^c.A>>5)&1 != 0)
}

// xaa and lxa are unstable on real silicon; these are the commonly published
// deterministic approximations.
func (c *CPU) xaa() {
	c.A = c.setZN(c.X & c.loadOperand(modeImmediate))
}

func (c *CPU) lxa() {
	v := (c.A | 0xEE) & c.loadOperand(modeImmediate)
	c.A = v
	c.X = c.setZN(v)
}

func (c *CPU) axs() {
	v := c.loadOperand(modeImmediate)
	diff := uint16(c.A&c.X) - uint16(v)
	c.setFlag(flagC, diff < 0x100)
	c.X = c.setZN(uint8(diff))
}

func (c *CPU) las() {
	v := c.loadOperand(modeAbsoluteY) & c.S
	c.S = v
	c.X = v
	c.A = c.setZN(v)
}

// The SHA/SHX/SHY/TAS group stores a register ANDed with the high address
// byte plus one; unstable on hardware, implemented per the reference tables.

func (c *CPU) tas() {
	base := c.fetch16()
	c.S = c.A & c.X
	c.write(base+uint16(c.Y), c.S&(uint8(base>>8)+1))
}

func (c *CPU) shy() {
	base := c.fetch16()
	c.write(base+uint16(c.X), c.Y&(uint8(base>>8)+1))
}

func (c *CPU) shx() {
	base := c.fetch16()
	c.write(base+uint16(c.Y), c.X&(uint8(base>>8)+1))
}

func (c *CPU) ahxAbsY() {
	base := c.fetch16()
	c.write(base+uint16(c.Y), c.A&c.X&(uint8(base>>8)+1))
}

func (c *CPU) ahxIndY() {
	base := c.readZP16(c.fetch())
	c.write(base+uint16(c.Y), c.A&c.X&(uint8(base>>8)+1))
}
