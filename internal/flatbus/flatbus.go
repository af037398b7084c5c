// Package flatbus is a reference cpu.Bus implementation: a flat, regioned
// address space laid out the way the core's host system expects it (spec.md
// §6). It exists for tests and the coreboy CLI; production hosts are
// expected to supply their own bus with real MMIO behavior behind the same
// interface.
package flatbus

/*
 * coreboy - flat memory-mapped address space, adapted from the teacher's
 * word-addressed flat array (emu/memory, internal/memory).
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

import "encoding/binary"

// Region base addresses and sizes (spec.md §6).
const (
	biosBase, biosSize   = 0x00000000, 0x00004000
	ewramBase, ewramSize = 0x02000000, 0x00040000
	iwramBase, iwramSize = 0x03000000, 0x00008000
	mmioBase, mmioSize   = 0x04000000, 0x00000400
	paletteBase, paletteSize = 0x05000000, 0x00000400
	vramBase, vramSize   = 0x06000000, 0x00018000 // 96 KiB: 64 + 32 + 32
	vramWindow           = 0x00020000             // mirrors across a 128 KiB window
	oamBase, oamSize     = 0x07000000, 0x00000400
	romBase, romSize     = 0x08000000, 0x06000000
	sramBase, sramSize   = 0x0E000000, 0x00010000
)

// Bus is a flat, byte-addressable memory implementing cpu.Bus.
type Bus struct {
	bios    [biosSize]byte
	ewram   [ewramSize]byte
	iwram   [iwramSize]byte
	mmio    [mmioSize]byte
	palette [paletteSize]byte
	vram    [vramSize]byte
	oam     [oamSize]byte
	rom     []byte
	sram    [sramSize]byte
}

// New returns an empty Bus with no ROM loaded.
func New() *Bus {
	return &Bus{}
}

// LoadROM copies img into the ROM region, truncating at the region's
// capacity; a ROM larger than the address window is a caller error the bus
// silently bounds rather than rejects, matching the teacher's
// caller-does-the-validating convention.
func (b *Bus) LoadROM(img []byte) {
	n := len(img)
	if n > romSize {
		n = romSize
	}
	b.rom = make([]byte, romSize)
	copy(b.rom, img[:n])
}

// LoadBIOS copies img into the BIOS region.
func (b *Bus) LoadBIOS(img []byte) {
	copy(b.bios[:], img)
}

// region locates the backing slice and base address for addr, or nil if addr
// falls in an unmapped hole.
func (b *Bus) region(addr uint32) (slice []byte, base uint32) {
	switch {
	case addr >= biosBase && addr < biosBase+biosSize:
		return b.bios[:], biosBase
	case addr >= ewramBase && addr < ewramBase+ewramSize:
		return b.ewram[:], ewramBase
	case addr >= iwramBase && addr < iwramBase+iwramSize:
		return b.iwram[:], iwramBase
	case addr >= mmioBase && addr < mmioBase+mmioSize:
		return b.mmio[:], mmioBase
	case addr >= paletteBase && addr < paletteBase+paletteSize:
		return b.palette[:], paletteBase
	case addr >= vramBase && addr < vramBase+vramWindow:
		// The upper two 32 KiB blocks mirror each other across the 128 KiB
		// window (spec.md §6); fold any offset past 96 KiB back by 32 KiB.
		off := (addr - vramBase) % vramWindow
		if off >= uint32(vramSize) {
			off -= 0x8000
		}
		return b.vram[:], addr - off
	case addr >= oamBase && addr < oamBase+oamSize:
		return b.oam[:], oamBase
	case addr >= romBase && addr < romBase+romSize:
		if b.rom == nil {
			return nil, 0
		}
		return b.rom, romBase
	case addr >= sramBase && addr < sramBase+sramSize:
		return b.sram[:], sramBase
	default:
		return nil, 0
	}
}

func (b *Bus) ReadByte(addr uint32) uint8 {
	slice, base := b.region(addr)
	if slice == nil {
		return 0
	}
	return slice[addr-base]
}

func (b *Bus) WriteByte(addr uint32, v uint8) {
	slice, base := b.region(addr)
	if slice == nil {
		return
	}
	slice[addr-base] = v
}

func (b *Bus) ReadHalfword(addr uint32) uint16 {
	slice, base := b.region(addr)
	if slice == nil {
		return 0
	}
	off := addr - base
	if int(off)+2 > len(slice) {
		return uint16(slice[off])
	}
	return binary.LittleEndian.Uint16(slice[off:])
}

func (b *Bus) WriteHalfword(addr uint32, v uint16) {
	slice, base := b.region(addr)
	if slice == nil {
		return
	}
	off := addr - base
	if int(off)+2 > len(slice) {
		return
	}
	binary.LittleEndian.PutUint16(slice[off:], v)
}

func (b *Bus) ReadWord(addr uint32) uint32 {
	slice, base := b.region(addr)
	if slice == nil {
		return 0
	}
	off := addr - base
	if int(off)+4 > len(slice) {
		return 0
	}
	return binary.LittleEndian.Uint32(slice[off:])
}

func (b *Bus) WriteWord(addr uint32, v uint32) {
	slice, base := b.region(addr)
	if slice == nil {
		return
	}
	off := addr - base
	if int(off)+4 > len(slice) {
		return
	}
	binary.LittleEndian.PutUint32(slice[off:], v)
}
