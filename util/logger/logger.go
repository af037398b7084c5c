/*
 * coreboy - slog.Handler wrapper that tees to a log file and, above
 * LevelDebug, to stderr. Adapted from the teacher's util/logger package,
 * with a dedicated layout for this core's per-step register trace records.
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

// Package logger wraps log/slog with a handler that writes a plain
// timestamp-prefixed line per record to an optional log file, and mirrors
// anything above LevelDebug to stderr so operational errors are never
// silently buried in a file the operator forgot to tail. Step-trace records
// from cpu.NewTrace (message "step", one attr per register plus cpsr and
// both pipeline slots) get a fixed four-per-row register dump instead of
// the generic space-joined attribute list, since a single long line of
// sixteen hex registers is unreadable when scanning a trace by eye.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// stepTraceMessage and stepTraceAttrCount identify a cpu.NewTrace record:
// 16 registers plus cpsr, slot0, slot1 (see cpu/trace.go).
const (
	stepTraceMessage   = "step"
	stepTraceAttrCount = 19
	regsPerRow         = 4
)

type LogHandler struct {
	out   io.Writer
	h     slog.Handler
	mu    *sync.Mutex
	debug bool
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{h: h.h.WithAttrs(attrs), mu: h.mu}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{h: h.h.WithGroup(name), mu: h.mu}
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	formattedTime := r.Time.Format("2006/01/02 15:04:05")

	strs := []string{formattedTime, level, r.Message}

	switch {
	case r.Message == stepTraceMessage && r.NumAttrs() == stepTraceAttrCount:
		strs = append(strs, formatStepTrace(r)...)
	case r.NumAttrs() != 0:
		r.Attrs(func(a slog.Attr) bool {
			strs = append(strs, a.Key+"="+a.Value.String())
			return true
		})
	}

	result := strings.Join(strs, " ") + "\n"
	b := []byte(result)

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(b)
	}

	if h.debug || r.Level > slog.LevelDebug {
		_, err = os.Stderr.Write(b)
	}
	return err
}

// formatStepTrace lays the 16 general registers out four to a line
// (separated by "\n  " so they stay readable inside the single log line
// slog expects), followed by cpsr and both pipeline slots on their own
// trailing group.
func formatStepTrace(r slog.Record) []string {
	attrs := make([]slog.Attr, 0, stepTraceAttrCount)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	var rows []string
	for i := 0; i < 16; i += regsPerRow {
		var row strings.Builder
		for j := i; j < i+regsPerRow && j < 16; j++ {
			if j > i {
				row.WriteByte(' ')
			}
			row.WriteString(attrs[j].Key + "=" + attrs[j].Value.String())
		}
		rows = append(rows, "\n  "+row.String())
	}

	var tail strings.Builder
	for _, a := range attrs[16:] {
		if tail.Len() > 0 {
			tail.WriteByte(' ')
		}
		tail.WriteString(a.Key + "=" + a.Value.String())
	}
	rows = append(rows, "\n  "+tail.String())

	return rows
}

func (h *LogHandler) SetDebug(debug *bool) {
	h.debug = *debug
}

func NewHandler(file io.Writer, opts *slog.HandlerOptions, debug *bool) *LogHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &LogHandler{
		out: file,
		h: slog.NewTextHandler(file, &slog.HandlerOptions{
			Level:       opts.Level,
			AddSource:   opts.AddSource,
			ReplaceAttr: nil,
		}),
		mu:    &sync.Mutex{},
		debug: *debug,
	}
}
