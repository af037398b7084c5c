package cpu

/*
 * coreboy - CPU state definitions
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

/*
   A 32-bit embedded CPU core with two parallel instruction encodings: a
   32-bit "A-mode" and a 16-bit "T-mode". Seven processor modes share a bank
   of 16 general registers, with FIQ banking R8-R14 and the other privileged
   modes banking only R13-R14. A two-slot prefetch buffer stands in for the
   fetch/decode/execute pipeline; any write to R15 or any mode switch that
   changes the encoding bit flushes and refills it.

   Mode values (bits 0..4 of CPSR):

     0x10 user   0x11 FIQ   0x12 IRQ   0x13 SVC
     0x17 ABT    0x1B UND   0x1F system

   Any other value in the mode field is a fatal internal-invariant error.
*/

import "errors"

// Mode is the 5-bit processor mode field of the CPSR.
type Mode uint32

const (
	ModeUser   Mode = 0x10
	ModeFIQ    Mode = 0x11
	ModeIRQ    Mode = 0x12
	ModeSVC    Mode = 0x13
	ModeABT    Mode = 0x17
	ModeUND    Mode = 0x1B
	ModeSystem Mode = 0x1F

	modeFieldMask Mode = 0x1F
)

// Bank identifies a banked-register overlay group. BankNone means the
// unbanked register file is in effect (user or system mode).
type Bank int

const (
	BankNone Bank = iota
	BankFIQ
	BankSVC
	BankABT
	BankIRQ
	BankUND

	numBanks = 5 // FIQ, SVC, ABT, IRQ, UND - used to size the SPSR array.
)

// bankIndex maps a Bank to its slot in the spsr/bankedR13/bankedR14 arrays.
// BankNone must never be indexed; callers check bank != BankNone first.
func bankIndex(b Bank) int {
	return int(b) - 1
}

// CPSR bit positions.
const (
	flagNShift = 31
	flagZShift = 30
	flagCShift = 29
	flagVShift = 28

	flagN uint32 = 1 << flagNShift
	flagZ uint32 = 1 << flagZShift
	flagC uint32 = 1 << flagCShift
	flagV uint32 = 1 << flagVShift

	tBit uint32 = 1 << 5 // encoding selector: 0 = A-mode, 1 = T-mode
	iBit uint32 = 1 << 7 // IRQ disable
	fBit uint32 = 1 << 6 // FIQ disable
)

// Fixed vectors (spec.md §6).
const (
	VectorReset uint32 = 0x00
	VectorSWI   uint32 = 0x08
	VectorIRQ   uint32 = 0x18
)

// Post-firmware seed values used by the skip-firmware shortcut (spec.md §4.1, §6).
const (
	seedPC        uint32 = 0x08000000
	seedR13System uint32 = 0x03007F00
	seedR13SVC    uint32 = 0x03007FE0
	seedR13IRQ    uint32 = 0x03007FA0
)

// Error taxonomy (spec.md §7). Every error here is fatal: there is no local
// recovery path, callers are expected to abort the process.
var (
	ErrInternalInvariant    = errors.New("cpu: internal invariant violated")
	ErrUndefinedInstruction = errors.New("cpu: undefined instruction")
	ErrUnimplemented        = errors.New("cpu: unimplemented operation")
)

// State is the CPU core: register file, status words, pipeline, and the one
// piece of cross-step bookkeeping (the pending-IRQ snapshot is supplied fresh
// on every Step call, never stored here). State is not safe for concurrent
// use; Step is not reentrant (spec.md §5).
type State struct {
	regs      [16]uint32 // unbanked R0..R15
	fiqRegs   [7]uint32  // FIQ overlay for R8..R14, index = reg-8
	bankedR13 [numBanks]uint32
	bankedR14 [numBanks]uint32

	cpsr uint32
	spsr [numBanks]uint32

	pipe pipeline

	// Trace, when non-nil, is invoked once per Step call before the
	// instruction executes (spec.md §4.8, §6).
	Trace func(s *State)
}

// Mode returns the active processor mode (bits 0..4 of CPSR).
func (s *State) Mode() Mode {
	return Mode(s.cpsr) & modeFieldMask
}

// setMode installs m as CPSR's mode field without touching any other bit.
// Callers are responsible for validating m first.
func (s *State) setMode(m Mode) {
	s.cpsr = (s.cpsr &^ uint32(modeFieldMask)) | uint32(m)
}

// CurrentBank returns the banked-group identifier for the active mode, or
// BankNone in user/system mode (spec.md §3, §4.1).
func (s *State) CurrentBank() Bank {
	return bankOf(s.Mode())
}

func bankOf(m Mode) Bank {
	switch m {
	case ModeUser, ModeSystem:
		return BankNone
	case ModeFIQ:
		return BankFIQ
	case ModeSVC:
		return BankSVC
	case ModeABT:
		return BankABT
	case ModeIRQ:
		return BankIRQ
	case ModeUND:
		return BankUND
	default:
		return -1 // signals an illegal mode field to callers that check it
	}
}

func validMode(m Mode) bool {
	switch m {
	case ModeUser, ModeFIQ, ModeIRQ, ModeSVC, ModeABT, ModeUND, ModeSystem:
		return true
	default:
		return false
	}
}

// CPSR returns the raw current status word.
func (s *State) CPSR() uint32 { return s.cpsr }

// SetCPSR installs v as the raw current status word. The caller is
// responsible for any reload/bank-switch side effects; SetCPSR itself only
// validates the mode field.
func (s *State) SetCPSR(v uint32) error {
	if !validMode(Mode(v) & modeFieldMask) {
		return ErrInternalInvariant
	}
	s.cpsr = v
	return nil
}

// Thumb reports whether the T-bit is set (T-mode active).
func (s *State) Thumb() bool { return s.cpsr&tBit != 0 }

// SetThumb sets or clears the T-bit directly (used by pipeline reload
// callers that have already decided the new encoding).
func (s *State) SetThumb(t bool) {
	if t {
		s.cpsr |= tBit
	} else {
		s.cpsr &^= tBit
	}
}

// Flags returns N, Z, C, V as booleans.
func (s *State) Flags() (n, z, c, v bool) {
	return s.cpsr&flagN != 0, s.cpsr&flagZ != 0, s.cpsr&flagC != 0, s.cpsr&flagV != 0
}

// SetFlags packs N, Z, C, V into the top nibble of CPSR.
func (s *State) SetFlags(n, z, c, v bool) {
	s.cpsr &^= flagN | flagZ | flagC | flagV
	s.cpsr |= packFlags(n, z, c, v)
}

func packFlags(n, z, c, v bool) uint32 {
	var f uint32
	if n {
		f |= flagN
	}
	if z {
		f |= flagZ
	}
	if c {
		f |= flagC
	}
	if v {
		f |= flagV
	}
	return f
}

// IRQDisabled and FIQDisabled report the I and F interrupt-mask bits.
func (s *State) IRQDisabled() bool { return s.cpsr&iBit != 0 }
func (s *State) FIQDisabled() bool { return s.cpsr&fBit != 0 }

func (s *State) setIRQDisabled(v bool) {
	if v {
		s.cpsr |= iBit
	} else {
		s.cpsr &^= iBit
	}
}

func (s *State) setFIQDisabled(v bool) {
	if v {
		s.cpsr |= fBit
	} else {
		s.cpsr &^= fBit
	}
}
