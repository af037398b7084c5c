package cpu

/*
 * coreboy - external collaborator contracts (§6)
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

// Bus is the memory-bus collaborator the core consumes for every load and
// store. Alignment is forced by the caller's convention (spec.md §6): the
// core never asks for an address it hasn't already cleared to the required
// boundary, except where an addressing-mode quirk (unaligned word/halfword
// load rotation) specifically calls for reading at the raw address.
//
// The bus, its region decoding, and memory-mapped I/O are out of scope for
// this core (spec.md §1) - this is only the contract the core calls through.
type Bus interface {
	ReadWord(addr uint32) uint32
	ReadHalfword(addr uint32) uint16
	ReadByte(addr uint32) uint8
	WriteWord(addr uint32, v uint32)
	WriteHalfword(addr uint32, v uint16)
	WriteByte(addr uint32, v uint8)
}

// Interrupts is a read-only snapshot of the interrupt-controller registers
// the core samples between instructions (spec.md §5, §6). The core never
// writes these; a collaborator owns the controller and hands the CPU a
// fresh snapshot before every Step call.
type Interrupts struct {
	MasterEnable bool
	IE           uint16 // enable mask, low 14 bits significant
	IF           uint16 // request/acknowledge
}

// irqMask is the low 14 bits that carry real interrupt sources (spec.md §6).
const irqMask = 0x3FFF

// Pending reports whether an external interrupt request should be taken
// (spec.md §4.6): master-enable set, CPSR I-bit clear (checked by the
// caller, since that's core state not part of this snapshot), and
// (IE & IF & 0x3FFF) != 0.
func (ir Interrupts) Pending() bool {
	return ir.MasterEnable && (ir.IE&ir.IF&irqMask) != 0
}
