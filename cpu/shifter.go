package cpu

/*
 * coreboy - barrel shifter (C2)
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

// ShiftOp names the four barrel-shifter operations (spec.md §3).
type ShiftOp int

const (
	LSL ShiftOp = iota
	LSR
	ASR
	ROR
)

// ShiftRequest describes one barrel-shift evaluation (spec.md §3).
type ShiftRequest struct {
	Op        ShiftOp
	Immediate bool // true: amount came from an immediate field, not a register
	ByRegister bool // true: amount came from the bottom byte of a register
	Amount    uint32
	Value     uint32
}

// shift evaluates req against the current carry flag and returns the
// shifted value and the carry-out, per the table in spec.md §4.2. carryIn is
// the current C flag.
func shift(req ShiftRequest, carryIn bool) (result uint32, carryOut bool) {
	n := req.Amount

	// "shift amount from a register and equals zero": pass through, carry
	// unaffected (spec.md §4.2 "see note").
	if req.ByRegister && n == 0 {
		return req.Value, carryIn
	}

	switch req.Op {
	case LSL:
		return shiftLSL(req, n, carryIn)
	case LSR:
		return shiftLSR(req, n, carryIn)
	case ASR:
		return shiftASR(req, n, carryIn)
	case ROR:
		return shiftROR(req, n, carryIn)
	default:
		panic(ErrInternalInvariant)
	}
}

func shiftLSL(req ShiftRequest, n uint32, carryIn bool) (uint32, bool) {
	v := req.Value
	switch {
	case n == 0:
		// Immediate LSL #0 or register LSL #0: value unchanged, carry unchanged.
		return v, carryIn
	case n < 32:
		return v << n, bit(v, 32-n)
	case n == 32:
		return 0, bit(v, 0)
	default: // n > 32
		return 0, false
	}
}

func shiftLSR(req ShiftRequest, n uint32, carryIn bool) (uint32, bool) {
	v := req.Value
	if !req.ByRegister && n == 0 {
		// Immediate rotate field of 0 encodes LSR #32 (spec.md §4.2).
		n = 32
	}
	switch {
	case n == 0:
		return v, carryIn
	case n < 32:
		return v >> n, bit(v, n-1)
	case n == 32:
		return 0, bit(v, 31)
	default:
		return 0, false
	}
}

func shiftASR(req ShiftRequest, n uint32, carryIn bool) (uint32, bool) {
	v := req.Value
	if !req.ByRegister && n == 0 {
		n = 32 // immediate ASR #0 encodes ASR #32 (spec.md §4.2)
	}
	signed := int32(v) < 0
	switch {
	case n == 0:
		return v, carryIn
	case n < 32:
		return uint32(int32(v) >> n), bit(v, n-1)
	default: // n >= 32: fill with sign
		if signed {
			return 0xFFFFFFFF, bit(v, 31)
		}
		return 0, bit(v, 31)
	}
}

func shiftROR(req ShiftRequest, n uint32, carryIn bool) (uint32, bool) {
	v := req.Value
	if !req.ByRegister && n == 0 {
		// Immediate rotate field of 0 encodes RRX (spec.md §4.2).
		var c uint32
		if carryIn {
			c = 1
		}
		result := (c << 31) | (v >> 1)
		return result, bit(v, 0)
	}
	if n == 0 {
		return v, carryIn
	}
	m := n % 32
	var result uint32
	if m == 0 {
		result = v
	} else {
		result = (v >> m) | (v << (32 - m))
	}
	return result, bit(result, 31)
}

func bit(v uint32, n uint32) bool {
	return (v>>n)&1 != 0
}

// decodeImmediateOperand2 evaluates the 8-bit-immediate-rotated-by-2n data
// processing operand2 form (spec.md §3): imm rotated right by 2*rotate. When
// rotate == 0 the carry flag is unaffected (spec.md §4.2).
func decodeImmediateOperand2(imm uint8, rotate uint8, carryIn bool) (result uint32, carryOut bool) {
	if rotate == 0 {
		return uint32(imm), carryIn
	}
	n := uint32(rotate) * 2
	v := uint32(imm)
	result = (v >> n) | (v << (32 - n))
	return result, bit(result, 31)
}
