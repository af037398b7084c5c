package cpu

/*
 * coreboy - debug trace sink (C8), adapted from the teacher's slog.Handler
 * wrapper.
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

import (
	"log/slog"
)

// NewTrace builds a Trace hook that logs one record per step through logger,
// with R0..R15, CPSR, and both pipeline slots in hex as attributes. How the
// record is laid out is up to logger's handler: util/logger prints it four
// registers per row. logger is expected to be the process-wide handler the rest of the
// program logs through, so traces interleave with ordinary log output
// instead of needing their own sink.
func NewTrace(logger *slog.Logger) func(s *State) {
	return func(s *State) {
		args := make([]any, 0, 19)
		for n := 0; n < 16; n++ {
			args = append(args, slog.String(regName(n), hex32(s.Read(n))))
		}
		args = append(args,
			slog.String("cpsr", hex32(s.CPSR())),
			slog.String("slot0", hex32(s.Slot0())),
			slog.String("slot1", hex32(s.Slot1())),
		)
		logger.Info("step", args...)
	}
}

func regName(n int) string {
	names := [...]string{
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	}
	return names[n]
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	buf := [8]byte{}
	for i := 7; i >= 0; i-- {
		buf[i] = digits[v&0xF]
		v >>= 4
	}
	return string(buf[:])
}
