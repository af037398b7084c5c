package cpu

/*
 * coreboy - the public run loop (C8)
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

// cyclesInterruptEntry estimates the cost of taking an external interrupt:
// a branch-like pipeline reload (spec.md §4.6 gives no fixed figure).
const cyclesInterruptEntry = cyclesBranch

// Step executes exactly one instruction and returns the cycle count it
// consumed (spec.md §4.8). It is the only public entry point into the core:
// it samples the trace hook, checks for a pending external interrupt,
// dispatches into the A-mode or T-mode decoder by the CPSR T-bit, and
// converts any internal-invariant panic (spec.md §7) raised deep in the
// register file into a returned error rather than letting it escape.
//
// Step is not reentrant and must not be called concurrently with itself on
// the same State (spec.md §5).
func (s *State) Step(bus Bus, irq Interrupts) (cycles int, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			cycles, err = 0, e
		}
	}()

	if s.Trace != nil {
		s.Trace(s)
	}

	if irq.Pending() && !s.IRQDisabled() {
		s.TakeInterrupt(bus)
		return cyclesInterruptEntry, nil
	}

	instr := s.Slot0()
	if s.Thumb() {
		return s.execThumb(bus, uint16(instr))
	}
	return s.execARM(bus, instr)
}
