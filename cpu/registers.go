package cpu

/*
 * coreboy - register file (C1)
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

// slot returns a pointer to the storage cell backing register n under the
// current mode. This is the "tagged enum of modes plus a function that
// returns a mutable slot in flat storage" shape from spec.md §9, rather than
// the source's 2D overlay-array-plus-recompute approach.
func (s *State) slot(n int) *uint32 {
	if n < 0 || n > 15 {
		panic(ErrInternalInvariant) // register index out of range: internal invariant
	}
	switch {
	case n == 15:
		return &s.regs[15]
	case n <= 7:
		return &s.regs[n]
	case n <= 12:
		if s.Mode() == ModeFIQ {
			return &s.fiqRegs[n-8]
		}
		return &s.regs[n]
	default: // 13, 14
		if b := s.CurrentBank(); b == BankFIQ {
			return &s.fiqRegs[n-8]
		} else if b != BankNone {
			if n == 13 {
				return &s.bankedR13[bankIndex(b)]
			}
			return &s.bankedR14[bankIndex(b)]
		}
		return &s.regs[n]
	}
}

// Read returns the active view of register n under the current mode
// (spec.md §4.1).
func (s *State) Read(n int) uint32 {
	return *s.slot(n)
}

// Write stores v into the active view of register n under the current mode.
func (s *State) Write(n int, v uint32) {
	*s.slot(n) = v
}

// PC returns R15.
func (s *State) PC() uint32 { return s.regs[15] }

// SetPC writes R15 directly, bypassing the banked-register dispatch (R15 is
// never banked).
func (s *State) SetPC(v uint32) { s.regs[15] = v }

// unbankedRead/unbankedWrite bypass banking entirely - used by the S-bit
// "user-mode register view" case of block data transfer (spec.md §4.4).
func (s *State) unbankedRead(n int) uint32  { return s.regs[n] }
func (s *State) unbankedWrite(n int, v uint32) { s.regs[n] = v }

// SaveStatus copies CPSR into SPSR[b]. Fatal (ErrInternalInvariant) if
// b == BankNone: SPSR is undefined in user/system mode (spec.md §3).
func (s *State) SaveStatus(b Bank) error {
	if b == BankNone {
		return ErrInternalInvariant
	}
	s.spsr[bankIndex(b)] = s.cpsr
	return nil
}

// RestoreStatus copies SPSR[b] into CPSR.
func (s *State) RestoreStatus(b Bank) error {
	if b == BankNone {
		return ErrInternalInvariant
	}
	s.cpsr = s.spsr[bankIndex(b)]
	return nil
}

// SPSR reads SPSR[b] without copying it to CPSR.
func (s *State) SPSR(b Bank) (uint32, error) {
	if b == BankNone {
		return 0, ErrInternalInvariant
	}
	return s.spsr[bankIndex(b)], nil
}

// SetSPSR writes SPSR[b] directly.
func (s *State) SetSPSR(b Bank, v uint32) error {
	if b == BankNone {
		return ErrInternalInvariant
	}
	s.spsr[bankIndex(b)] = v
	return nil
}

// Reset puts the CPU into its architectural reset state (spec.md §4.1): PC=0,
// interrupts masked, A-mode, SVC mode, with the pre-reset PC and CPSR banked
// into R14_SVC / SPSR_SVC the way a real entry into SVC mode does.
func (s *State) Reset(bus Bus) {
	oldPC := s.regs[15]
	oldCPSR := s.cpsr

	s.setMode(ModeSVC)
	s.setIRQDisabled(true)
	s.setFIQDisabled(true)
	s.SetThumb(false)

	s.bankedR14[bankIndex(BankSVC)] = oldPC
	s.spsr[bankIndex(BankSVC)] = oldCPSR

	s.regs[15] = 0
	s.pipe.reload(s, bus)
}

// SkipFirmware pre-seeds the register file and PC to post-firmware values,
// bypassing the resident firmware entirely (spec.md §3, §6).
func (s *State) SkipFirmware(bus Bus) {
	s.setMode(ModeSystem)
	s.SetThumb(false)
	s.regs[13] = seedR13System
	s.bankedR13[bankIndex(BankSVC)] = seedR13SVC
	s.bankedR13[bankIndex(BankIRQ)] = seedR13IRQ
	s.regs[15] = seedPC
	s.pipe.reload(s, bus)
}
