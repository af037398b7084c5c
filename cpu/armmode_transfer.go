package cpu

/*
 * coreboy - A-mode single/halfword/block data transfer and swap (C4)
 *
 * Copyright 2025, the coreboy authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// rotateUnalignedWord implements the unaligned-word-load rotation quirk
// (spec.md §4.4, testable property 11): the fetched word is rotated right by
// 8*(addr&3) bits so the addressed byte ends up in bits 0..7.
func rotateUnalignedWord(word, addr uint32) uint32 {
	rot := 8 * (addr & 3)
	if rot == 0 {
		return word
	}
	return (word >> rot) | (word << (32 - rot))
}

// armExecSingleTransfer handles LDR/STR, byte or word (spec.md §4.4).
func (s *State) armExecSingleTransfer(bus Bus, instr uint32) (int, error) {
	regOffset := bitsIn(instr, 25, 25) != 0
	pre := bitsIn(instr, 24, 24) != 0
	up := bitsIn(instr, 23, 23) != 0
	byteAccess := bitsIn(instr, 22, 22) != 0
	writeBack := bitsIn(instr, 21, 21) != 0
	load := bitsIn(instr, 20, 20) != 0
	rn := int(bitsIn(instr, 19, 16))
	rd := int(bitsIn(instr, 15, 12))

	var offset uint32
	if regOffset {
		rm := int(bitsIn(instr, 3, 0))
		shiftType := ShiftOp(bitsIn(instr, 6, 5))
		amount := bitsIn(instr, 11, 7)
		_, _, carryIn, _ := s.Flags()
		req := ShiftRequest{Op: shiftType, Immediate: true, Amount: amount, Value: s.Read(rm)}
		offset, _ = shift(req, carryIn)
	} else {
		offset = bitsIn(instr, 11, 0)
	}

	base := s.Read(rn)
	offsetBase := func() uint32 {
		if up {
			return base + offset
		}
		return base - offset
	}

	address := base
	if pre {
		address = offsetBase()
	}

	r15Written := false
	var cycles int
	if load {
		var value uint32
		if byteAccess {
			value = uint32(bus.ReadByte(address))
		} else {
			value = rotateUnalignedWord(bus.ReadWord(address&^3), address)
		}
		s.Write(rd, value)
		if rd == 15 {
			r15Written = true
			cycles = cyclesLoadR15
		} else {
			cycles = cyclesLoad
		}
	} else {
		var value uint32
		if rd == 15 {
			value = s.Read(15) + 4 // store of R15 stores (instruction address + 12)
		} else {
			value = s.Read(rd)
		}
		if byteAccess {
			bus.WriteByte(address, uint8(value))
		} else {
			bus.WriteWord(address&^3, value)
		}
		cycles = cyclesStore
	}

	doWriteback := !pre || writeBack
	if doWriteback && !(load && rd == rn) {
		var newBase uint32
		if pre {
			newBase = address
		} else {
			newBase = offsetBase()
		}
		s.Write(rn, newBase)
	}

	if r15Written {
		s.pipe.reload(s, bus)
	} else {
		s.pipe.prefetch(s, bus)
	}
	return cycles, nil
}

// Halfword-transfer SH field (instr[6:5]).
const (
	shUnsignedHalfword = 0x1
	shSignedByte       = 0x2
	shSignedHalfword   = 0x3
)

// armExecHalfwordTransfer handles LDRH/LDRSH/LDRSB/STRH (spec.md §4.4).
func (s *State) armExecHalfwordTransfer(bus Bus, instr uint32, immediateOffset bool) (int, error) {
	pre := bitsIn(instr, 24, 24) != 0
	up := bitsIn(instr, 23, 23) != 0
	writeBack := bitsIn(instr, 21, 21) != 0
	load := bitsIn(instr, 20, 20) != 0
	rn := int(bitsIn(instr, 19, 16))
	rd := int(bitsIn(instr, 15, 12))
	sh := bitsIn(instr, 6, 5)

	var offset uint32
	if immediateOffset {
		offset = (bitsIn(instr, 11, 8) << 4) | bitsIn(instr, 3, 0)
	} else {
		offset = s.Read(int(bitsIn(instr, 3, 0)))
	}

	base := s.Read(rn)
	offsetBase := func() uint32 {
		if up {
			return base + offset
		}
		return base - offset
	}

	address := base
	if pre {
		address = offsetBase()
	}

	var cycles int
	if load {
		var value uint32
		switch sh {
		case shUnsignedHalfword:
			value = uint32(bus.ReadHalfword(address &^ 1))
		case shSignedByte:
			value = uint32(int32(int8(bus.ReadByte(address))))
		case shSignedHalfword:
			if address&1 != 0 {
				// Misaligned LDRSH sign-extends only the high byte fetched
				// (spec.md §9 open question, resolved normative).
				value = uint32(int32(int8(bus.ReadByte(address))))
			} else {
				value = uint32(int32(int16(bus.ReadHalfword(address))))
			}
		default:
			return 0, ErrInternalInvariant
		}
		s.Write(rd, value)
		if rd == 15 {
			cycles = cyclesLoadR15
		} else {
			cycles = cyclesLoad
		}
	} else {
		bus.WriteHalfword(address&^1, uint16(s.Read(rd)))
		cycles = cyclesStore
	}

	doWriteback := !pre || writeBack
	if doWriteback && !(load && rd == rn) {
		var newBase uint32
		if pre {
			newBase = address
		} else {
			newBase = offsetBase()
		}
		s.Write(rn, newBase)
	}

	if load && rd == 15 {
		s.pipe.reload(s, bus)
	} else {
		s.pipe.prefetch(s, bus)
	}
	return cycles, nil
}

// armExecSwap handles SWP/SWPB (spec.md §4.4).
func (s *State) armExecSwap(bus Bus, instr uint32) (int, error) {
	byteAccess := bitsIn(instr, 22, 22) != 0
	rn := int(bitsIn(instr, 19, 16))
	rd := int(bitsIn(instr, 15, 12))
	rm := int(bitsIn(instr, 3, 0))

	address := s.Read(rn)
	newVal := s.Read(rm)

	var old uint32
	if byteAccess {
		old = uint32(bus.ReadByte(address))
		bus.WriteByte(address, uint8(newVal))
	} else {
		old = rotateUnalignedWord(bus.ReadWord(address&^3), address)
		bus.WriteWord(address&^3, newVal)
	}
	s.Write(rd, old)

	if rd == 15 {
		s.pipe.reload(s, bus)
	} else {
		s.pipe.prefetch(s, bus)
	}
	return cyclesSwap, nil
}

// computeBlockLowest returns the lowest address touched by a block transfer
// of count registers, independent of direction (spec.md §4.4: "transfers
// proceed from the lowest address upward regardless of the increment/
// decrement flag").
func computeBlockLowest(base uint32, pre, up bool, count uint32) uint32 {
	switch {
	case up && pre: // IB
		return base + 4
	case up && !pre: // IA
		return base
	case !up && pre: // DB
		return base - 4*count
	default: // DA
		return base - 4*(count-1)
	}
}

func computeBlockWriteback(base uint32, up bool, count uint32) uint32 {
	if up {
		return base + 4*count
	}
	return base - 4*count
}

// armExecBlockTransfer handles LDM/STM (spec.md §4.4).
func (s *State) armExecBlockTransfer(bus Bus, instr uint32) (int, error) {
	pre := bitsIn(instr, 24, 24) != 0
	up := bitsIn(instr, 23, 23) != 0
	sBit := bitsIn(instr, 22, 22) != 0
	writeBack := bitsIn(instr, 21, 21) != 0
	load := bitsIn(instr, 20, 20) != 0
	rn := int(bitsIn(instr, 19, 16))
	list := uint16(bitsIn(instr, 15, 0))

	base := s.Read(rn)
	count := popcount16(list)

	if count == 0 {
		return s.armExecEmptyBlockTransfer(bus, rn, base, pre, up, load, writeBack)
	}

	lowest := computeBlockLowest(base, pre, up, uint32(count))
	writeback := computeBlockWriteback(base, up, uint32(count))

	r15InList := list&(1<<15) != 0
	userBankView := sBit && !(load && r15InList)

	firstReg := -1
	for n := 0; n < 16; n++ {
		if list&(1<<uint(n)) != 0 {
			firstReg = n
			break
		}
	}
	rnInList := list&(1<<uint(rn)) != 0

	addr := lowest
	for n := 0; n < 16; n++ {
		if list&(1<<uint(n)) == 0 {
			continue
		}
		if load {
			val := bus.ReadWord(addr)
			if userBankView && n != 15 {
				s.unbankedWrite(n, val)
			} else {
				s.Write(n, val)
			}
		} else {
			var val uint32
			switch {
			case n == 15:
				val = s.Read(15) + 4
			case n == int(rn) && n == firstReg:
				val = base
			case n == int(rn):
				val = writeback
			case userBankView:
				val = s.unbankedRead(n)
			default:
				val = s.Read(n)
			}
			bus.WriteWord(addr, val)
		}
		addr += 4
	}

	if load && r15InList && sBit {
		b := s.CurrentBank()
		if b == BankNone {
			return 0, ErrInternalInvariant
		}
		if err := s.RestoreStatus(b); err != nil {
			return 0, err
		}
	}

	if writeBack && !(load && rnInList) {
		s.Write(rn, writeback)
	}

	cycles := count + 1
	if load {
		cycles = count + 2
		if r15InList {
			cycles++
		}
	}

	if load && r15InList {
		s.pipe.reload(s, bus)
	} else {
		s.pipe.prefetch(s, bus)
	}
	return cycles, nil
}

// armExecEmptyBlockTransfer implements the empty-register-list quirk
// (spec.md §4.4, testable property 9): transfers exactly R15, adjusts the
// base by +-0x40 regardless of the actual (zero) register count.
func (s *State) armExecEmptyBlockTransfer(bus Bus, rn int, base uint32, pre, up, load, writeBack bool) (int, error) {
	var addr uint32
	switch {
	case up && pre:
		addr = base + 4
	case up && !pre:
		addr = base
	case !up && pre:
		addr = base - 4
	default:
		addr = base
	}

	if load {
		s.SetPC(bus.ReadWord(addr))
	} else {
		bus.WriteWord(addr, s.Read(15)+4)
	}

	if writeBack {
		if up {
			s.Write(rn, base+0x40)
		} else {
			s.Write(rn, base-0x40)
		}
	}

	if load {
		s.pipe.reload(s, bus)
		return 1 + 2 + 1, nil
	}
	s.pipe.prefetch(s, bus)
	return 1 + 1, nil
}
