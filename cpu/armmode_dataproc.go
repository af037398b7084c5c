package cpu

/*
 * coreboy - A-mode data-processing (ALU) family (C4)
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

// Data-processing opcodes (instr[24:21]).
const (
	opAND = 0x0
	opEOR = 0x1
	opSUB = 0x2
	opRSB = 0x3
	opADD = 0x4
	opADC = 0x5
	opSBC = 0x6
	opRSC = 0x7
	opTST = 0x8
	opTEQ = 0x9
	opCMP = 0xA
	opCMN = 0xB
	opORR = 0xC
	opMOV = 0xD
	opBIC = 0xE
	opMVN = 0xF
)

// addWithCarry computes a + b + carryIn as a 33-bit addition, returning the
// truncated result plus carry-out and signed-overflow. Every arithmetic
// data-processing opcode (ADD/ADC/SUB/SBC/RSB/RSC/CMP/CMN) reduces to this
// with one operand optionally inverted (spec.md §4.4).
func addWithCarry(a, b uint32, carryIn bool) (result uint32, carryOut, overflow bool) {
	var cin uint64
	if carryIn {
		cin = 1
	}
	sum := uint64(a) + uint64(b) + cin
	result = uint32(sum)
	carryOut = sum > 0xFFFFFFFF
	overflow = (a^b)&0x80000000 == 0 && (a^result)&0x80000000 != 0
	return result, carryOut, overflow
}

func isCompareOp(opcode uint32) bool {
	switch opcode {
	case opTST, opTEQ, opCMP, opCMN:
		return true
	default:
		return false
	}
}

// armExecDataProcessing handles all sixteen data-processing opcodes
// (spec.md §4.4). Operand2 is evaluated first via the barrel shifter; when
// the shift amount comes from a register, a prefetch happens before operand1
// is read, so operand1 = R15 observes PC+12 rather than PC+8 (spec.md §9).
func (s *State) armExecDataProcessing(bus Bus, instr uint32) (int, error) {
	immediate := bitsIn(instr, 25, 25) != 0
	opcode := bitsIn(instr, 24, 21)
	setFlags := bitsIn(instr, 20, 20) != 0
	rn := int(bitsIn(instr, 19, 16))
	rd := int(bitsIn(instr, 15, 12))

	_, _, carryIn, _ := s.Flags()

	var operand2 uint32
	var shiftCarry bool
	shiftByReg := false

	if immediate {
		imm := bitsIn(instr, 7, 0)
		rot := bitsIn(instr, 11, 8)
		operand2, shiftCarry = decodeImmediateOperand2(uint8(imm), uint8(rot), carryIn)
	} else {
		rm := int(bitsIn(instr, 3, 0))
		shiftType := ShiftOp(bitsIn(instr, 6, 5))
		var amount uint32
		if bitsIn(instr, 4, 4) != 0 {
			shiftByReg = true
			rs := int(bitsIn(instr, 11, 8))
			s.pipe.prefetch(s, bus) // quirk (spec.md §9): extra I cycle before operand1 is read
			amount = s.Read(rs) & 0xFF
		} else {
			amount = bitsIn(instr, 11, 7)
		}
		rmVal := s.Read(rm)
		req := ShiftRequest{Op: shiftType, ByRegister: shiftByReg, Immediate: !shiftByReg, Amount: amount, Value: rmVal}
		operand2, shiftCarry = shift(req, carryIn)
	}

	op1 := s.Read(rn) // read after the shift-by-register prefetch, per the quirk above

	var result uint32
	var carryOut, overflow bool

	switch opcode {
	case opAND, opTST:
		result, carryOut = op1&operand2, shiftCarry
	case opEOR, opTEQ:
		result, carryOut = op1^operand2, shiftCarry
	case opORR:
		result, carryOut = op1|operand2, shiftCarry
	case opBIC:
		result, carryOut = op1&^operand2, shiftCarry
	case opMOV:
		result, carryOut = operand2, shiftCarry
	case opMVN:
		result, carryOut = ^operand2, shiftCarry
	case opADD, opCMN:
		result, carryOut, overflow = addWithCarry(op1, operand2, false)
	case opADC:
		result, carryOut, overflow = addWithCarry(op1, operand2, carryIn)
	case opSUB, opCMP:
		result, carryOut, overflow = addWithCarry(op1, ^operand2, true)
	case opSBC:
		result, carryOut, overflow = addWithCarry(op1, ^operand2, carryIn)
	case opRSB:
		result, carryOut, overflow = addWithCarry(operand2, ^op1, true)
	case opRSC:
		result, carryOut, overflow = addWithCarry(operand2, ^op1, carryIn)
	default:
		return 0, ErrInternalInvariant
	}

	writesResult := !isCompareOp(opcode)
	writesR15 := writesResult && rd == 15

	if writesResult {
		s.Write(rd, result)
	}

	if setFlags {
		if rd == 15 {
			// Mode-restore: setting the condition bits with R15 as
			// destination also restores CPSR from SPSR (spec.md §4.4).
			b := s.CurrentBank()
			if b == BankNone {
				return 0, ErrInternalInvariant
			}
			if err := s.RestoreStatus(b); err != nil {
				return 0, err
			}
		} else {
			s.SetFlags(bit(result, 31), result == 0, carryOut, overflow)
		}
	}

	cycles := cyclesDataProcSimple
	if shiftByReg {
		cycles = cyclesDataProcShiftReg
	}
	if writesR15 {
		cycles = cyclesDataProcWriteR15
		if shiftByReg {
			cycles++
		}
		s.pipe.reload(s, bus)
	} else if !shiftByReg { // the shift-by-register path already prefetched above
		s.pipe.prefetch(s, bus)
	}
	return cycles, nil
}
