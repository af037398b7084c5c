package cpu

/*
 * coreboy - A-mode multiply family (C4): MUL/MLA and the 64-bit
 * UMULL/UMLAL/SMULL/SMLAL variants.
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

// armExecMultiply handles MUL/MLA and the long multiply family (spec.md
// §4.4). Cycle count is 1 + the byte-window multiplier estimate, plus one
// for accumulate and one more for the 64-bit forms.
func (s *State) armExecMultiply(bus Bus, instr uint32) (int, error) {
	long := bitsIn(instr, 23, 23) != 0
	signedOp := bitsIn(instr, 22, 22) != 0
	accumulate := bitsIn(instr, 21, 21) != 0
	setFlags := bitsIn(instr, 20, 20) != 0
	rs := int(bitsIn(instr, 11, 8))
	rm := int(bitsIn(instr, 3, 0))

	rsVal := s.Read(rs)
	mulCycles := multiplyCycles(rsVal)

	if !long {
		rd := int(bitsIn(instr, 19, 16))
		rn := int(bitsIn(instr, 15, 12))

		result := s.Read(rm) * rsVal
		if accumulate {
			result += s.Read(rn)
		}
		s.Write(rd, result)

		if setFlags {
			_, _, c, v := s.Flags()
			s.SetFlags(bit(result, 31), result == 0, c, v)
		}

		cycles := 1 + mulCycles
		if accumulate {
			cycles++
		}
		s.pipe.prefetch(s, bus)
		return cycles, nil
	}

	rdHi := int(bitsIn(instr, 19, 16))
	rdLo := int(bitsIn(instr, 15, 12))

	var result uint64
	if signedOp {
		result = uint64(int64(int32(s.Read(rm))) * int64(int32(rsVal)))
	} else {
		result = uint64(s.Read(rm)) * uint64(rsVal)
	}
	if accumulate {
		result += (uint64(s.Read(rdHi)) << 32) | uint64(s.Read(rdLo))
	}
	s.Write(rdLo, uint32(result))
	s.Write(rdHi, uint32(result>>32))

	if setFlags {
		_, _, c, v := s.Flags()
		s.SetFlags(result>>63 != 0, result == 0, c, v)
	}

	cycles := 2 + mulCycles
	if accumulate {
		cycles++
	}
	s.pipe.prefetch(s, bus)
	return cycles, nil
}
