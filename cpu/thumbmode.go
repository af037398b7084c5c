package cpu

/*
 * coreboy - T-mode (16-bit encoding) decoder/executor (C5)
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

// tBits extracts the inclusive [hi:lo] field of a 16-bit T-mode instruction.
func tBits(instr uint16, hi, lo uint) uint32 {
	return bitsIn(uint32(instr), hi, lo)
}

// thumbMaskMatch mirrors armMaskMatch for the 16-bit encoding.
type thumbMaskMatch struct {
	mask, match uint16
}

func (m thumbMaskMatch) matches(instr uint16) bool {
	return instr&m.mask == m.match
}

// T-mode dispatch ladder (spec.md §4.5): first match wins, masks are not
// pairwise disjoint - software interrupt must be tried before conditional
// branch, since cond==0xF in that family's bit pattern is the SWI encoding.
var (
	thumbSWI               = thumbMaskMatch{0xFF00, 0xDF00}
	thumbUncondBranch      = thumbMaskMatch{0xF800, 0xE000}
	thumbCondBranch        = thumbMaskMatch{0xF000, 0xD000}
	thumbMultipleTransfer  = thumbMaskMatch{0xF000, 0xC000}
	thumbLongBranchLink    = thumbMaskMatch{0xF000, 0xF000}
	thumbAddOffsetToSP     = thumbMaskMatch{0xFF00, 0xB000}
	thumbPushPop           = thumbMaskMatch{0xF600, 0xB400}
	thumbHalfwordTransfer  = thumbMaskMatch{0xF000, 0x8000}
	thumbSPRelativeXfer    = thumbMaskMatch{0xF000, 0x9000}
	thumbLoadAddress       = thumbMaskMatch{0xF000, 0xA000}
	thumbImmOffsetXfer     = thumbMaskMatch{0xE000, 0x6000}
	thumbRegOffsetXfer     = thumbMaskMatch{0xF200, 0x5000}
	thumbSignExtendedXfer  = thumbMaskMatch{0xF200, 0x5200}
	thumbPCRelativeLoad    = thumbMaskMatch{0xF800, 0x4800}
	thumbHiRegOrBX         = thumbMaskMatch{0xFC00, 0x4400}
	thumbALUOp             = thumbMaskMatch{0xFC00, 0x4000}
	thumbMovCmpAddSubImm   = thumbMaskMatch{0xE000, 0x2000}
	thumbAddSub            = thumbMaskMatch{0xF800, 0x1800}
	thumbMoveShiftedReg    = thumbMaskMatch{0xE000, 0x0000}
)

// execThumb decodes and executes one T-mode instruction. As with execARM, the
// caller has fetched instr from pipeline slot0; execThumb issues the
// instruction's own prefetch/reload.
func (s *State) execThumb(bus Bus, instr uint16) (int, error) {
	switch {
	case thumbSWI.matches(instr):
		return s.thumbExecSWI(bus, instr)
	case thumbUncondBranch.matches(instr):
		return s.thumbExecUncondBranch(bus, instr)
	case thumbCondBranch.matches(instr):
		return s.thumbExecCondBranch(bus, instr)
	case thumbMultipleTransfer.matches(instr):
		return s.thumbExecMultipleTransfer(bus, instr)
	case thumbLongBranchLink.matches(instr):
		return s.thumbExecLongBranchLink(bus, instr)
	case thumbAddOffsetToSP.matches(instr):
		return s.thumbExecAddOffsetToSP(bus, instr)
	case thumbPushPop.matches(instr):
		return s.thumbExecPushPop(bus, instr)
	case thumbHalfwordTransfer.matches(instr):
		return s.thumbExecHalfwordTransfer(bus, instr)
	case thumbSPRelativeXfer.matches(instr):
		return s.thumbExecSPRelativeTransfer(bus, instr)
	case thumbLoadAddress.matches(instr):
		return s.thumbExecLoadAddress(bus, instr)
	case thumbImmOffsetXfer.matches(instr):
		return s.thumbExecImmOffsetTransfer(bus, instr)
	case thumbRegOffsetXfer.matches(instr):
		return s.thumbExecRegOffsetTransfer(bus, instr)
	case thumbSignExtendedXfer.matches(instr):
		return s.thumbExecSignExtendedTransfer(bus, instr)
	case thumbPCRelativeLoad.matches(instr):
		return s.thumbExecPCRelativeLoad(bus, instr)
	case thumbHiRegOrBX.matches(instr):
		return s.thumbExecHiRegOrBX(bus, instr)
	case thumbALUOp.matches(instr):
		return s.thumbExecALUOp(bus, instr)
	case thumbMovCmpAddSubImm.matches(instr):
		return s.thumbExecMovCmpAddSubImm(bus, instr)
	case thumbAddSub.matches(instr):
		return s.thumbExecAddSub(bus, instr)
	case thumbMoveShiftedReg.matches(instr):
		return s.thumbExecMoveShiftedReg(bus, instr)
	default:
		return 0, ErrUndefinedInstruction
	}
}

// thumbWriteR15 clears the low bit before handing a branch target to the
// pipeline (spec.md §4.5: "the low bit is cleared before reload").
func thumbWriteR15(s *State, bus Bus, target uint32) {
	s.SetPC(target &^ 1)
	s.pipe.reload(s, bus)
}

func (s *State) thumbExecSWI(bus Bus, instr uint16) (int, error) {
	call := uint8(tBits(instr, 7, 0))
	return s.enterSoftwareInterrupt(bus, call)
}

// thumbExecUncondBranch handles the unconditional branch family.
func (s *State) thumbExecUncondBranch(bus Bus, instr uint16) (int, error) {
	offset := signExtend(tBits(instr, 10, 0), 11) << 1
	thumbWriteR15(s, bus, uint32(int32(s.PC())+offset))
	return cyclesBranch, nil
}

// thumbExecCondBranch handles the conditional branch family.
func (s *State) thumbExecCondBranch(bus Bus, instr uint16) (int, error) {
	cond := tBits(instr, 11, 8)
	if !s.ConditionPasses(cond) {
		s.pipe.prefetch(s, bus)
		return cyclesFailedCondition, nil
	}
	offset := signExtend(tBits(instr, 7, 0), 8) << 1
	thumbWriteR15(s, bus, uint32(int32(s.PC())+offset))
	return cyclesBranch, nil
}

// thumbExecLongBranchLink implements the two-instruction BL sequence
// (spec.md §4.5). H=0 (high half) stages R14; H=1 (low half) computes the
// target from R14 and replaces R14 with the return address.
func (s *State) thumbExecLongBranchLink(bus Bus, instr uint16) (int, error) {
	high := tBits(instr, 11, 11) != 0
	offset := tBits(instr, 10, 0)

	if !high {
		ext := signExtend(offset, 11) << 12
		s.Write(14, uint32(int32(s.PC())+ext))
		s.pipe.prefetch(s, bus)
		return cyclesDataProcSimple, nil
	}

	target := s.Read(14) + (offset << 1)
	ret := (s.PC() - 2) | 1
	s.Write(14, ret)
	s.SetPC(target &^ 1)
	s.pipe.reload(s, bus)
	return cyclesBranch, nil
}

// thumbExecAddOffsetToSP handles "ADD SP, #+/-imm7*4".
func (s *State) thumbExecAddOffsetToSP(bus Bus, instr uint16) (int, error) {
	negative := tBits(instr, 7, 7) != 0
	offset := tBits(instr, 6, 0) << 2
	sp := s.Read(13)
	if negative {
		sp -= offset
	} else {
		sp += offset
	}
	s.Write(13, sp)
	s.pipe.prefetch(s, bus)
	return cyclesDataProcSimple, nil
}

// Hi-register op/BX opcode field (instr[9:8]).
const (
	hiOpADD = 0x0
	hiOpCMP = 0x1
	hiOpMOV = 0x2
	hiOpBX  = 0x3
)

// thumbExecHiRegOrBX handles operations between (and branch-exchange
// through) the high register half, which T-mode ALU ops otherwise cannot
// address.
func (s *State) thumbExecHiRegOrBX(bus Bus, instr uint16) (int, error) {
	op := tBits(instr, 9, 8)
	h1 := tBits(instr, 7, 7) != 0
	h2 := tBits(instr, 6, 6) != 0
	rs := int(tBits(instr, 5, 3))
	rd := int(tBits(instr, 2, 0))
	if h2 {
		rs += 8
	}
	if h1 {
		rd += 8
	}

	if op == hiOpBX {
		target := s.Read(rs)
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

	srcVal := s.Read(rs)
	dstVal := s.Read(rd)

	switch op {
	case hiOpADD:
		result, _, _ := addWithCarry(dstVal, srcVal, false)
		s.Write(rd, result)
	case hiOpCMP:
		result, carryOut, overflow := addWithCarry(dstVal, ^srcVal, true)
		s.SetFlags(bit(result, 31), result == 0, carryOut, overflow)
	case hiOpMOV:
		s.Write(rd, srcVal)
	}

	if rd == 15 {
		thumbWriteR15(s, bus, s.Read(15))
	} else {
		s.pipe.prefetch(s, bus)
	}
	return cyclesDataProcSimple, nil
}

// T-mode ALU op field (instr[9:6]).
const (
	talAND = 0x0
	talEOR = 0x1
	talLSL = 0x2
	talLSR = 0x3
	talASR = 0x4
	talADC = 0x5
	talSBC = 0x6
	talROR = 0x7
	talTST = 0x8
	talNEG = 0x9
	talCMP = 0xA
	talCMN = 0xB
	talORR = 0xC
	talMUL = 0xD
	talBIC = 0xE
	talMVN = 0xF
)

// thumbExecALUOp handles the 16 two-operand ALU operations (spec.md §4.5).
// The shift ops (LSL/LSR/ASR/ROR) pass the low byte of Rs as a
// shift-by-register amount against Rd; NEG is 0-Rs; TST/CMP/CMN discard the
// result.
func (s *State) thumbExecALUOp(bus Bus, instr uint16) (int, error) {
	op := tBits(instr, 9, 6)
	rs := int(tBits(instr, 5, 3))
	rd := int(tBits(instr, 2, 0))

	_, _, carryIn, curOverflow := s.Flags()
	dstVal := s.Read(rd)
	srcVal := s.Read(rs)

	var result uint32
	carryOut, overflow := carryIn, curOverflow
	writesResult := true
	cycles := cyclesDataProcSimple

	switch op {
	case talAND:
		result, carryOut = dstVal&srcVal, carryIn
	case talEOR:
		result, carryOut = dstVal^srcVal, carryIn
	case talLSL, talLSR, talASR, talROR:
		shiftOps := map[uint32]ShiftOp{talLSL: LSL, talLSR: LSR, talASR: ASR, talROR: ROR}
		req := ShiftRequest{Op: shiftOps[op], ByRegister: true, Amount: srcVal & 0xFF, Value: dstVal}
		result, carryOut = shift(req, carryIn)
		cycles = cyclesDataProcShiftReg
	case talADC:
		result, carryOut, overflow = addWithCarry(dstVal, srcVal, carryIn)
	case talSBC:
		result, carryOut, overflow = addWithCarry(dstVal, ^srcVal, carryIn)
	case talTST:
		result, carryOut = dstVal&srcVal, carryIn
		writesResult = false
	case talNEG:
		result, carryOut, overflow = addWithCarry(0, ^srcVal, true)
	case talCMP:
		result, carryOut, overflow = addWithCarry(dstVal, ^srcVal, true)
		writesResult = false
	case talCMN:
		result, carryOut, overflow = addWithCarry(dstVal, srcVal, false)
		writesResult = false
	case talORR:
		result, carryOut = dstVal|srcVal, carryIn
	case talMUL:
		result = dstVal * srcVal
		carryOut = carryIn // architecturally unpredictable; left unaffected
		cycles = 1 + multiplyCycles(srcVal)
	case talBIC:
		result, carryOut = dstVal&^srcVal, carryIn
	case talMVN:
		result, carryOut = ^srcVal, carryIn
	default:
		return 0, ErrInternalInvariant
	}

	if writesResult {
		s.Write(rd, result)
	}
	s.SetFlags(bit(result, 31), result == 0, carryOut, overflow)

	s.pipe.prefetch(s, bus)
	return cycles, nil
}

func (s *State) thumbExecMovCmpAddSubImm(bus Bus, instr uint16) (int, error) {
	op := tBits(instr, 12, 11)
	rd := int(tBits(instr, 10, 8))
	imm := tBits(instr, 7, 0)

	dstVal := s.Read(rd)
	_, _, curCarry, curOverflow := s.Flags()

	var result uint32
	carryOut, overflow := curCarry, curOverflow
	writesResult := true

	switch op {
	case 0x0: // MOV
		result = imm
	case 0x1: // CMP
		result, carryOut, overflow = addWithCarry(dstVal, ^imm, true)
		writesResult = false
	case 0x2: // ADD
		result, carryOut, overflow = addWithCarry(dstVal, imm, false)
	case 0x3: // SUB
		result, carryOut, overflow = addWithCarry(dstVal, ^imm, true)
	}

	if writesResult {
		s.Write(rd, result)
	}
	s.SetFlags(bit(result, 31), result == 0, carryOut, overflow)

	s.pipe.prefetch(s, bus)
	return cyclesDataProcSimple, nil
}

func (s *State) thumbExecAddSub(bus Bus, instr uint16) (int, error) {
	immediate := tBits(instr, 10, 10) != 0
	subtract := tBits(instr, 9, 9) != 0
	rnOrImm := tBits(instr, 8, 6)
	rs := int(tBits(instr, 5, 3))
	rd := int(tBits(instr, 2, 0))

	var operand uint32
	if immediate {
		operand = rnOrImm
	} else {
		operand = s.Read(int(rnOrImm))
	}
	srcVal := s.Read(rs)

	var result uint32
	var carryOut, overflow bool
	if subtract {
		result, carryOut, overflow = addWithCarry(srcVal, ^operand, true)
	} else {
		result, carryOut, overflow = addWithCarry(srcVal, operand, false)
	}
	s.Write(rd, result)
	s.SetFlags(bit(result, 31), result == 0, carryOut, overflow)

	s.pipe.prefetch(s, bus)
	return cyclesDataProcSimple, nil
}

func (s *State) thumbExecMoveShiftedReg(bus Bus, instr uint16) (int, error) {
	op := tBits(instr, 12, 11)
	amount := tBits(instr, 10, 6)
	rs := int(tBits(instr, 5, 3))
	rd := int(tBits(instr, 2, 0))

	shiftOps := [...]ShiftOp{LSL, LSR, ASR}
	if op > 2 {
		return 0, ErrInternalInvariant
	}

	_, _, carryIn, _ := s.Flags()
	req := ShiftRequest{Op: shiftOps[op], Immediate: true, Amount: amount, Value: s.Read(rs)}
	result, carryOut := shift(req, carryIn)

	s.Write(rd, result)
	_, _, _, overflow := s.Flags()
	s.SetFlags(bit(result, 31), result == 0, carryOut, overflow)

	s.pipe.prefetch(s, bus)
	return cyclesDataProcSimple, nil
}
