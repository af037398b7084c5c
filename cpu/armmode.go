package cpu

/*
 * coreboy - A-mode (32-bit encoding) decoder/executor (C4)
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

// bitsIn extracts the inclusive [hi:lo] field of v.
func bitsIn(v uint32, hi, lo uint) uint32 {
	width := hi - lo + 1
	mask := uint32(1)<<width - 1
	return (v >> lo) & mask
}

// armMaskMatch is one entry of the dispatch ladder (spec.md §4.4): first
// match wins, masks are not pairwise disjoint.
type armMaskMatch struct {
	mask, match uint32
}

var (
	armBranchExchange    = armMaskMatch{0x0FFFFFF0, 0x012FFF10}
	armBlockTransfer     = armMaskMatch{0x0E000000, 0x08000000}
	armBranch            = armMaskMatch{0x0E000000, 0x0A000000}
	armSWI               = armMaskMatch{0x0F000000, 0x0F000000}
	armUndefined         = armMaskMatch{0x0E000010, 0x06000010}
	armSingleTransfer    = armMaskMatch{0x0C000000, 0x04000000}
	armSwap              = armMaskMatch{0x0F800FF0, 0x01000090}
	armMultiply          = armMaskMatch{0x0F0000F0, 0x00000090}
	armHalfwordRegOffset = armMaskMatch{0x0E400F90, 0x00000090}
	armHalfwordImmOffset = armMaskMatch{0x0E400090, 0x00400090}
	armMRS               = armMaskMatch{0x0FBF0000, 0x010F0000}
	armMSR               = armMaskMatch{0x0DB0F000, 0x0120F000}
	armDataProcessing    = armMaskMatch{0x0C000000, 0x00000000}
)

func (m armMaskMatch) matches(instr uint32) bool {
	return instr&m.mask == m.match
}

// execARM decodes and executes one A-mode instruction. The caller has
// already fetched instr from pipeline slot0; execARM is responsible for the
// instruction's prefetch/reload before returning.
func (s *State) execARM(bus Bus, instr uint32) (int, error) {
	cond := bitsIn(instr, 31, 28)
	if !s.ConditionPasses(cond) {
		s.pipe.prefetch(s, bus)
		return cyclesFailedCondition, nil
	}

	switch {
	case armBranchExchange.matches(instr):
		return s.armExecBranchExchange(bus, instr)
	case armBlockTransfer.matches(instr):
		return s.armExecBlockTransfer(bus, instr)
	case armBranch.matches(instr):
		return s.armExecBranch(bus, instr)
	case armSWI.matches(instr):
		return s.armExecSWI(bus, instr)
	case armUndefined.matches(instr):
		return 0, ErrUndefinedInstruction
	case armSingleTransfer.matches(instr):
		return s.armExecSingleTransfer(bus, instr)
	case armSwap.matches(instr):
		return s.armExecSwap(bus, instr)
	case armMultiply.matches(instr):
		return s.armExecMultiply(bus, instr)
	case armHalfwordRegOffset.matches(instr):
		return s.armExecHalfwordTransfer(bus, instr, false)
	case armHalfwordImmOffset.matches(instr):
		return s.armExecHalfwordTransfer(bus, instr, true)
	case armMRS.matches(instr):
		return s.armExecMRS(bus, instr)
	case armMSR.matches(instr):
		return s.armExecMSR(bus, instr)
	case armDataProcessing.matches(instr):
		return s.armExecDataProcessing(bus, instr)
	default:
		return 0, ErrUndefinedInstruction
	}
}

// armExecBranchExchange handles BX (spec.md §4.4).
func (s *State) armExecBranchExchange(bus Bus, instr uint32) (int, error) {
	rn := int(bitsIn(instr, 3, 0))
	target := s.Read(rn)
	if target&1 != 0 {
		s.SetThumb(true)
		target &^= 1
	} else {
		s.SetThumb(false)
	}
	s.SetPC(target)
	s.pipe.reload(s, bus)
	return cyclesBranch, nil
}

// armExecBranch handles B/BL (spec.md §4.4): 24-bit signed offset << 2,
// added to PC; with link, store PC-4 (low two bits cleared) into R14 of the
// active bank.
func (s *State) armExecBranch(bus Bus, instr uint32) (int, error) {
	link := bitsIn(instr, 24, 24) != 0
	offset := signExtend(bitsIn(instr, 23, 0), 24) << 2

	if link {
		ret := (s.PC() - 4) &^ 0x3
		s.Write(14, ret)
	}
	s.SetPC(uint32(int32(s.PC()) + offset))
	s.pipe.reload(s, bus)
	return cyclesBranch, nil
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// armExecMRS handles status-move to register (spec.md §4.4).
func (s *State) armExecMRS(bus Bus, instr uint32) (int, error) {
	rd := int(bitsIn(instr, 15, 12))
	fromSPSR := bitsIn(instr, 22, 22) != 0
	var v uint32
	if fromSPSR {
		b := s.CurrentBank()
		sv, err := s.SPSR(b)
		if err != nil {
			return 0, ErrInternalInvariant
		}
		v = sv
	} else {
		v = s.CPSR()
	}
	s.Write(rd, v)
	s.pipe.prefetch(s, bus)
	return cyclesDataProcSimple, nil
}

// armExecMSR handles status-move from register/immediate (spec.md §4.4):
// writes are masked so that in non-privileged mode only the flag bits may
// change; writes to SPSR in user/system mode are fatal.
func (s *State) armExecMSR(bus Bus, instr uint32) (int, error) {
	toSPSR := bitsIn(instr, 22, 22) != 0
	fieldMask := msrFieldMask(instr)

	var v uint32
	if bitsIn(instr, 25, 25) != 0 {
		imm := bitsIn(instr, 7, 0)
		rot := bitsIn(instr, 11, 8)
		v, _ = decodeImmediateOperand2(uint8(imm), uint8(rot), false)
	} else {
		rm := int(bitsIn(instr, 3, 0))
		v = s.Read(rm)
	}

	privileged := s.Mode() != ModeUser

	if toSPSR {
		b := s.CurrentBank()
		if b == BankNone {
			return 0, ErrInternalInvariant
		}
		cur, _ := s.SPSR(b)
		mask := fieldMask
		if !privileged {
			mask &= flagN | flagZ | flagC | flagV
		}
		_ = s.SetSPSR(b, (cur&^mask)|(v&mask))
	} else {
		mask := fieldMask
		if !privileged {
			mask &= flagN | flagZ | flagC | flagV
		}
		newCPSR := (s.CPSR() &^ mask) | (v & mask)
		if err := s.SetCPSR(newCPSR); err != nil {
			return 0, err
		}
	}
	s.pipe.prefetch(s, bus)
	return cyclesDataProcSimple, nil
}

// msrFieldMask decodes the field-select bits (instr[19:16]) into the mask of
// CPSR/SPSR bits the instruction is permitted to touch, before the
// privilege-level mask narrows it further. Bit 19 (flags field) covers the
// top byte; bit 16 (control field) covers the bottom byte.
func msrFieldMask(instr uint32) uint32 {
	var mask uint32
	if bitsIn(instr, 19, 19) != 0 {
		mask |= 0xFF000000
	}
	if bitsIn(instr, 16, 16) != 0 {
		mask |= 0x000000FF
	}
	return mask
}
