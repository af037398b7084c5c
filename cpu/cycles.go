package cpu

/*
 * coreboy - shared primitives (C9): population count, multiply cycle
 * estimator, and the S/N/I cycle constants the decoders report.
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

import "math/bits"

// popcount16 counts the set bits in a 16-bit register list (spec.md §4.4
// block data transfer cycle counting: "LDM of n registers: n+2").
func popcount16(v uint16) int {
	return bits.OnesCount16(v)
}

// multiplyCycles estimates the extra internal (I) cycles a multiply takes,
// using the classic byte-window early-termination rule: scan the multiplier
// operand from the top down in 8-bit groups, stopping at the first group
// whose remaining high bits are all zero or all one (spec.md §4.4 "Cycle
// count uses a byte-window early-termination estimator").
func multiplyCycles(rs uint32) int {
	switch {
	case rs>>8 == 0 || rs>>8 == 0x00FFFFFF:
		return 1
	case rs>>16 == 0 || rs>>16 == 0x0000FFFF:
		return 2
	case rs>>24 == 0 || rs>>24 == 0x000000FF:
		return 3
	default:
		return 4
	}
}

// Representative S/N/I cycle counts (spec.md §4.4), named for the families
// that report them.
const (
	cyclesFailedCondition  = 1
	cyclesDataProcSimple   = 1
	cyclesDataProcShiftReg = 2
	cyclesDataProcWriteR15 = 3
	cyclesBranch           = 3
	cyclesLoad             = 3
	cyclesLoadR15          = 5
	cyclesStore            = 2
	cyclesSwap             = 4
	cyclesSWI              = 3
)
