package cpu

/*
 * coreboy - firmware-call emulator (C7)
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

// Firmware call numbers (spec.md §4.7). Only signed division is required by
// the core; every other call number is an internal-invariant failure since
// no resident firmware exists to fall back to.
const (
	firmwareCallDiv = 0x06
)

// emulateFirmwareCall dispatches on the 8-bit call number embedded in the
// originating SWI instruction. It runs with the CPU already parked at the
// SWI vector, in SVC mode; enterSoftwareInterrupt performs the return
// sequence once this returns.
func (s *State) emulateFirmwareCall(call uint8) error {
	switch call {
	case firmwareCallDiv:
		s.firmwareSignedDivide()
		return nil
	default:
		return ErrInternalInvariant
	}
}

// firmwareSignedDivide implements call 0x06 (spec.md §4.7, testable property
// 12): n=R0, d=R1, both signed 32-bit. R0 <- n/d truncated toward zero,
// R1 <- n mod d, R3 <- |R0|. Go's integer division already truncates toward
// zero and its remainder already carries the sign of n, matching the
// architectural definition directly.
func (s *State) firmwareSignedDivide() {
	n := int32(s.Read(0))
	d := int32(s.Read(1))

	quotient := n / d
	remainder := n % d

	s.Write(0, uint32(quotient))
	s.Write(1, uint32(remainder))
	s.Write(3, uint32(absInt32(quotient)))
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
