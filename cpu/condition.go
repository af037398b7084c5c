package cpu

/*
 * coreboy - condition-field evaluation, shared by both decoders
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

// Condition codes, in their 4-bit encoding (spec.md §4.4).
const (
	condEQ = 0x0
	condNE = 0x1
	condCS = 0x2
	condCC = 0x3
	condMI = 0x4
	condPL = 0x5
	condVS = 0x6
	condVC = 0x7
	condHI = 0x8
	condLS = 0x9
	condGE = 0xA
	condLT = 0xB
	condGT = 0xC
	condLE = 0xD
	condAL = 0xE
	// 0xF is reserved and always evaluates false.
)

// evalCondition evaluates a 4-bit condition field against the flag set
// (spec.md §4.4 truth table: EQ,NE,CS,CC,MI,PL,VS,VC,HI,LS,GE,LT,GT,LE,AL,reserved->false).
func evalCondition(cond uint32, n, z, c, v bool) bool {
	switch cond {
	case condEQ:
		return z
	case condNE:
		return !z
	case condCS:
		return c
	case condCC:
		return !c
	case condMI:
		return n
	case condPL:
		return !n
	case condVS:
		return v
	case condVC:
		return !v
	case condHI:
		return c && !z
	case condLS:
		return !c || z
	case condGE:
		return n == v
	case condLT:
		return n != v
	case condGT:
		return !z && n == v
	case condLE:
		return z || n != v
	case condAL:
		return true
	default:
		return false
	}
}

// ConditionPasses evaluates cond against the CPU's current flags.
func (s *State) ConditionPasses(cond uint32) bool {
	n, z, c, v := s.Flags()
	return evalCondition(cond, n, z, c, v)
}
