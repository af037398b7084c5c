package cpu

/*
 * coreboy - prefetch buffer (C3)
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

// pipeline is the two-slot prefetch buffer (spec.md §3). slot0 is the
// instruction that executes next; slot1 is next-to-execute. PC always points
// two instructions past slot0.
type pipeline struct {
	slot0 uint32
	slot1 uint32
}

// Slot0 returns the instruction about to execute.
func (s *State) Slot0() uint32 { return s.pipe.slot0 }

// Slot1 returns the next-to-execute instruction.
func (s *State) Slot1() uint32 { return s.pipe.slot1 }

// instructionWidth is 4 bytes in A-mode, 2 in T-mode.
func instructionWidth(s *State) uint32 {
	if s.Thumb() {
		return 2
	}
	return 4
}

func readSlot(bus Bus, addr, width uint32) uint32 {
	if width == 2 {
		return uint32(bus.ReadHalfword(addr))
	}
	return bus.ReadWord(addr)
}

// prefetch advances the pipeline by one slot (spec.md §4.3): slot0 <- slot1,
// slot1 <- mem.read(PC), PC += width.
func (p *pipeline) prefetch(s *State, bus Bus) {
	w := instructionWidth(s)
	p.slot0 = p.slot1
	p.slot1 = readSlot(bus, s.PC(), w)
	s.SetPC(s.PC() + w)
}

// reload refills both slots from the current PC (spec.md §4.3). Invoked
// after any write to R15 by an executed instruction, after any mode switch
// that changes the T-bit, and on reset.
func (p *pipeline) reload(s *State, bus Bus) {
	w := instructionWidth(s)
	p.slot0 = readSlot(bus, s.PC(), w)
	p.slot1 = readSlot(bus, s.PC()+w, w)
	s.SetPC(s.PC() + 2*w)
}
