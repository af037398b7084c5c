package cpu

/*
 * coreboy - mode/trap manager (C6): software interrupt entry and external
 * interrupt entry. Undefined instructions are not trapped here; the
 * decoders return ErrUndefinedInstruction for them.
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

// armExecSWI handles the A-mode software-interrupt instruction (spec.md
// §4.4, §4.7). The call number lives in bits 23..16 of the opcode.
func (s *State) armExecSWI(bus Bus, instr uint32) (int, error) {
	call := uint8(bitsIn(instr, 23, 16))
	return s.enterSoftwareInterrupt(bus, call)
}

// enterSoftwareInterrupt implements the software-interrupt trap (spec.md
// §4.6, §4.7). There is no resident firmware image in this core: the trap
// dispatches straight to the emulated call handler and performs the
// "return from trap" sequence itself, as one atomic operation, rather than
// executing BIOS instructions at the vector.
func (s *State) enterSoftwareInterrupt(bus Bus, call uint8) (int, error) {
	retAddr := s.PC() - instructionWidth(s)
	savedCPSR := s.CPSR()

	s.setMode(ModeSVC)
	s.bankedR14[bankIndex(BankSVC)] = retAddr
	s.spsr[bankIndex(BankSVC)] = savedCPSR
	s.setIRQDisabled(true)
	s.SetThumb(false)
	s.SetPC(VectorSWI)
	s.pipe.reload(s, bus)

	if err := s.emulateFirmwareCall(call); err != nil {
		return 0, err
	}

	target := s.Read(14)
	if err := s.RestoreStatus(BankSVC); err != nil {
		return 0, err
	}
	s.SetPC(target)
	s.pipe.reload(s, bus)

	return cyclesSWI, nil
}

// TakeInterrupt implements external-interrupt entry (spec.md §4.6): save the
// adjusted PC into R14_IRQ, CPSR into SPSR_IRQ, force IRQ mode with IRQ
// masked and A-mode selected, branch to the IRQ vector, reload. Callers are
// expected to have already checked Interrupts.Pending() && !s.IRQDisabled().
func (s *State) TakeInterrupt(bus Bus) {
	retAddr := s.PC() - 2*instructionWidth(s) + 4
	savedCPSR := s.CPSR()

	s.setMode(ModeIRQ)
	s.bankedR14[bankIndex(BankIRQ)] = retAddr
	s.spsr[bankIndex(BankIRQ)] = savedCPSR
	s.setIRQDisabled(true)
	s.SetThumb(false)
	s.SetPC(VectorIRQ)
	s.pipe.reload(s, bus)
}
