package cpu

/*
 * coreboy - T-mode load/store families (C5): multiple transfer, push/pop,
 * halfword/word/byte transfer in all their immediate, register, and
 * sign-extended forms, SP-relative transfer, load address, and PC-relative
 * load.
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

// thumbExecMultipleTransfer handles LDMIA!/STMIA! over R0..R7 (spec.md
// §4.5), always increment-after with write-back. The empty-list quirk
// mirrors the A-mode family: an empty list transfers R15 and bumps the base
// by 0x40.
func (s *State) thumbExecMultipleTransfer(bus Bus, instr uint16) (int, error) {
	load := tBits(instr, 11, 11) != 0
	rb := int(tBits(instr, 10, 8))
	list := uint16(tBits(instr, 7, 0))

	base := s.Read(rb)
	count := popcount16(list)

	if count == 0 {
		if load {
			s.SetPC(bus.ReadWord(base))
		} else {
			bus.WriteWord(base, s.Read(15))
		}
		s.Write(rb, base+0x40)
		if load {
			s.pipe.reload(s, bus)
			return 1 + 2 + 1, nil
		}
		s.pipe.prefetch(s, bus)
		return 1 + 1, nil
	}

	firstReg := -1
	for n := 0; n < 8; n++ {
		if list&(1<<uint(n)) != 0 {
			firstReg = n
			break
		}
	}
	rbInList := list&(1<<uint(rb)) != 0
	writeback := base + 4*uint32(count)

	addr := base
	for n := 0; n < 8; n++ {
		if list&(1<<uint(n)) == 0 {
			continue
		}
		if load {
			s.Write(n, bus.ReadWord(addr))
		} else {
			var val uint32
			switch {
			case n == rb && n == firstReg:
				val = base
			case n == rb:
				val = writeback
			default:
				val = s.Read(n)
			}
			bus.WriteWord(addr, val)
		}
		addr += 4
	}

	if !(load && rbInList) {
		s.Write(rb, writeback)
	}

	cycles := count + 1
	if load {
		cycles = count + 2
	}
	s.pipe.prefetch(s, bus)
	return cycles, nil
}

// thumbExecPushPop handles PUSH/POP (spec.md §4.5): block transfer with SP
// base, write-back always on, pre-decrement for push and post-increment for
// pop; push may additionally save LR, pop may additionally restore PC.
func (s *State) thumbExecPushPop(bus Bus, instr uint16) (int, error) {
	pop := tBits(instr, 11, 11) != 0
	extra := tBits(instr, 8, 8) != 0
	list := uint16(tBits(instr, 7, 0))

	count := popcount16(list)
	if extra {
		count++
	}

	sp := s.Read(13)

	if !pop {
		lowest := sp - 4*uint32(count)
		addr := lowest
		for n := 0; n < 8; n++ {
			if list&(1<<uint(n)) == 0 {
				continue
			}
			bus.WriteWord(addr, s.Read(n))
			addr += 4
		}
		if extra {
			bus.WriteWord(addr, s.Read(14))
		}
		s.Write(13, lowest)
		s.pipe.prefetch(s, bus)
		return count + 1, nil
	}

	addr := sp
	for n := 0; n < 8; n++ {
		if list&(1<<uint(n)) == 0 {
			continue
		}
		s.Write(n, bus.ReadWord(addr))
		addr += 4
	}
	r15Written := false
	if extra {
		thumbWriteR15(s, bus, bus.ReadWord(addr))
		addr += 4
		r15Written = true
	}
	s.Write(13, addr)

	cycles := count + 2
	if r15Written {
		cycles++
	} else {
		s.pipe.prefetch(s, bus)
	}
	return cycles, nil
}

// thumbExecHalfwordTransfer handles unsigned LDRH/STRH with a 5-bit
// offset scaled by 2 (spec.md §4.5).
func (s *State) thumbExecHalfwordTransfer(bus Bus, instr uint16) (int, error) {
	load := tBits(instr, 11, 11) != 0
	offset := tBits(instr, 10, 6) << 1
	rb := int(tBits(instr, 5, 3))
	rd := int(tBits(instr, 2, 0))

	addr := s.Read(rb) + offset
	if load {
		s.Write(rd, uint32(bus.ReadHalfword(addr&^1)))
	} else {
		bus.WriteHalfword(addr&^1, uint16(s.Read(rd)))
	}

	s.pipe.prefetch(s, bus)
	if load {
		return cyclesLoad, nil
	}
	return cyclesStore, nil
}

// thumbExecSPRelativeTransfer handles LDR/STR with an SP-relative word
// offset (spec.md §4.5).
func (s *State) thumbExecSPRelativeTransfer(bus Bus, instr uint16) (int, error) {
	load := tBits(instr, 11, 11) != 0
	rd := int(tBits(instr, 10, 8))
	offset := tBits(instr, 7, 0) << 2

	addr := s.Read(13) + offset
	if load {
		s.Write(rd, rotateUnalignedWord(bus.ReadWord(addr&^3), addr))
	} else {
		bus.WriteWord(addr&^3, s.Read(rd))
	}

	s.pipe.prefetch(s, bus)
	if load {
		return cyclesLoad, nil
	}
	return cyclesStore, nil
}

// thumbExecLoadAddress computes PC- or SP-relative addresses into Rd
// (spec.md §4.5); this family never touches memory.
func (s *State) thumbExecLoadAddress(bus Bus, instr uint16) (int, error) {
	spRelative := tBits(instr, 11, 11) != 0
	rd := int(tBits(instr, 10, 8))
	offset := tBits(instr, 7, 0) << 2

	var base uint32
	if spRelative {
		base = s.Read(13)
	} else {
		base = s.PC() &^ 3
	}
	s.Write(rd, base+offset)

	s.pipe.prefetch(s, bus)
	return cyclesDataProcSimple, nil
}

// thumbExecImmOffsetTransfer handles LDR/STR/LDRB/STRB with a 5-bit
// immediate offset (spec.md §4.5); byte offsets are unscaled, word offsets
// scaled by 4.
func (s *State) thumbExecImmOffsetTransfer(bus Bus, instr uint16) (int, error) {
	byteAccess := tBits(instr, 12, 12) != 0
	load := tBits(instr, 11, 11) != 0
	offset5 := tBits(instr, 10, 6)
	rb := int(tBits(instr, 5, 3))
	rd := int(tBits(instr, 2, 0))

	var offset uint32
	if byteAccess {
		offset = offset5
	} else {
		offset = offset5 << 2
	}
	addr := s.Read(rb) + offset

	switch {
	case load && byteAccess:
		s.Write(rd, uint32(bus.ReadByte(addr)))
	case load && !byteAccess:
		s.Write(rd, rotateUnalignedWord(bus.ReadWord(addr&^3), addr))
	case !load && byteAccess:
		bus.WriteByte(addr, uint8(s.Read(rd)))
	default:
		bus.WriteWord(addr&^3, s.Read(rd))
	}

	s.pipe.prefetch(s, bus)
	if load {
		return cyclesLoad, nil
	}
	return cyclesStore, nil
}

// thumbExecRegOffsetTransfer handles LDR/STR/LDRB/STRB with a register
// offset (spec.md §4.5).
func (s *State) thumbExecRegOffsetTransfer(bus Bus, instr uint16) (int, error) {
	load := tBits(instr, 11, 11) != 0
	byteAccess := tBits(instr, 10, 10) != 0
	ro := int(tBits(instr, 8, 6))
	rb := int(tBits(instr, 5, 3))
	rd := int(tBits(instr, 2, 0))

	addr := s.Read(rb) + s.Read(ro)

	switch {
	case load && byteAccess:
		s.Write(rd, uint32(bus.ReadByte(addr)))
	case load && !byteAccess:
		s.Write(rd, rotateUnalignedWord(bus.ReadWord(addr&^3), addr))
	case !load && byteAccess:
		bus.WriteByte(addr, uint8(s.Read(rd)))
	default:
		bus.WriteWord(addr&^3, s.Read(rd))
	}

	s.pipe.prefetch(s, bus)
	if load {
		return cyclesLoad, nil
	}
	return cyclesStore, nil
}

// Sign-extended transfer opcode field, (H<<1)|S.
const (
	seStoreHalfword   = 0x0
	seLoadSignedByte  = 0x1
	seLoadHalfword    = 0x2
	seLoadSignedHalf  = 0x3
)

// thumbExecSignExtendedTransfer handles STRH/LDRSB/LDRH/LDRSH with a
// register offset (spec.md §4.5). LDRSH on a misaligned address
// sign-extends only the high byte fetched, matching the A-mode quirk.
func (s *State) thumbExecSignExtendedTransfer(bus Bus, instr uint16) (int, error) {
	op := (tBits(instr, 11, 11) << 1) | tBits(instr, 10, 10)
	ro := int(tBits(instr, 8, 6))
	rb := int(tBits(instr, 5, 3))
	rd := int(tBits(instr, 2, 0))

	addr := s.Read(rb) + s.Read(ro)

	switch op {
	case seStoreHalfword:
		bus.WriteHalfword(addr&^1, uint16(s.Read(rd)))
	case seLoadSignedByte:
		s.Write(rd, uint32(int32(int8(bus.ReadByte(addr)))))
	case seLoadHalfword:
		s.Write(rd, uint32(bus.ReadHalfword(addr&^1)))
	case seLoadSignedHalf:
		if addr&1 != 0 {
			s.Write(rd, uint32(int32(int8(bus.ReadByte(addr)))))
		} else {
			s.Write(rd, uint32(int32(int16(bus.ReadHalfword(addr)))))
		}
	default:
		return 0, ErrInternalInvariant
	}

	s.pipe.prefetch(s, bus)
	if op == seStoreHalfword {
		return cyclesStore, nil
	}
	return cyclesLoad, nil
}

// thumbExecPCRelativeLoad handles LDR Rd, [PC, #imm] (spec.md §4.5); the
// base uses PC with bit 1 cleared.
func (s *State) thumbExecPCRelativeLoad(bus Bus, instr uint16) (int, error) {
	rd := int(tBits(instr, 10, 8))
	offset := tBits(instr, 7, 0) << 2

	addr := (s.PC() &^ 3) + offset
	s.Write(rd, bus.ReadWord(addr))

	s.pipe.prefetch(s, bus)
	return cyclesLoad, nil
}
