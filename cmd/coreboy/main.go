/*
 * coreboy - command-line front end: loads a ROM (and optionally a BIOS
 * image) into the flat bus, then single-steps the core a fixed number of
 * times, logging a start line and a final summary, plus a per-step trace
 * with --trace.
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

package main

import (
	"errors"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/coreboy/cpu"
	"github.com/rcornwell/coreboy/internal/flatbus"
	logger "github.com/rcornwell/coreboy/util/logger"
)

var Logger *slog.Logger

func main() {
	optROM := getopt.StringLong("rom", 'r', "", "ROM image to load")
	optBIOS := getopt.StringLong("bios", 'b', "", "BIOS image to load")
	optSkipFirmware := getopt.BoolLong("skip-firmware", 's', "Skip the firmware boot sequence")
	optTrace := getopt.BoolLong("trace", 't', "Log a line per executed step")
	optSteps := getopt.Uint64Long("steps", 'n', 1000, "Number of instructions to execute")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	debug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	Logger.Info("coreboy started")

	if *optROM == "" {
		Logger.Error("Please specify a ROM image with --rom")
		os.Exit(1)
	}

	romImage, err := os.ReadFile(*optROM)
	if err != nil {
		Logger.Error("Could not read ROM", "path", *optROM, "error", err.Error())
		os.Exit(1)
	}

	bus := flatbus.New()
	bus.LoadROM(romImage)

	if *optBIOS != "" {
		biosImage, err := os.ReadFile(*optBIOS)
		if err != nil {
			Logger.Error("Could not read BIOS", "path", *optBIOS, "error", err.Error())
			os.Exit(1)
		}
		bus.LoadBIOS(biosImage)
	}

	state := &cpu.State{}
	state.Reset(bus)

	if *optSkipFirmware {
		state.SkipFirmware(bus)
	}
	if *optTrace {
		state.Trace = cpu.NewTrace(Logger)
	}

	var irq cpu.Interrupts

	var executed uint64
	for executed = 0; executed < *optSteps; executed++ {
		_, err := state.Step(bus, irq)
		if err != nil {
			if errors.Is(err, cpu.ErrUndefinedInstruction) || errors.Is(err, cpu.ErrUnimplemented) {
				Logger.Error("stopped", "reason", err.Error(), "pc", state.PC(), "steps", executed)
				os.Exit(1)
			}
			Logger.Error("internal error", "reason", err.Error(), "pc", state.PC(), "steps", executed)
			os.Exit(1)
		}
	}

	Logger.Info("coreboy finished", "steps", executed, "pc", state.PC())
}
