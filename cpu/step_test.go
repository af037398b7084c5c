package cpu

import "testing"

// panicBus wraps testBus and panics from ReadWord, standing in for a real
// Bus implementation that discovers its own invariant violation mid-access.
type panicBus struct {
	*testBus
	panicValue any
}

func (b *panicBus) ReadWord(addr uint32) uint32 {
	panic(b.panicValue)
}

func TestStepInvokesTraceHookOnce(t *testing.T) {
	bus := newTestBus()
	s := newReadyState(bus, 0x8000) // pipeline pre-loaded with 0s (NOP-ish MOV R0,R0 since word 0 decodes as AND-family; use explicit NOP-equivalent)
	// MOV R0, R0 at 0x8000 so Step has a harmless instruction to execute.
	bus.WriteWord(0x8000, uint32(0xE1A00000))
	s.SetPC(0x8000)
	s.pipe.reload(s, bus)

	calls := 0
	s.Trace = func(st *State) { calls++ }

	if _, err := s.Step(bus, Interrupts{}); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("Trace invocation count = %d, want 1", calls)
	}
}

func TestStepTakesPendingUnmaskedInterrupt(t *testing.T) {
	bus := newTestBus()
	s := newReadyState(bus, 0x8000)
	bus.WriteWord(0x8000, uint32(0xE1A00000)) // MOV R0,R0 - must NOT execute this step
	s.SetPC(0x8000)
	s.pipe.reload(s, bus)
	s.Write(0, 0xAAAA)

	irq := Interrupts{MasterEnable: true, IE: 0x1, IF: 0x1}
	cycles, err := s.Step(bus, irq)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if cycles != cyclesInterruptEntry {
		t.Errorf("cycles = %d, want %d", cycles, cyclesInterruptEntry)
	}
	if s.Mode() != ModeIRQ {
		t.Errorf("mode after pending IRQ = %#x, want ModeIRQ", s.Mode())
	}
	if s.PC() != VectorIRQ+8 {
		t.Errorf("PC after pending IRQ = %#x, want vector+8", s.PC())
	}
	if s.Read(0) != 0xAAAA {
		t.Errorf("R0 = %#x, want unchanged 0xaaaa (the MOV must not have run)", s.Read(0))
	}
}

func TestStepIgnoresPendingInterruptWhenDisabled(t *testing.T) {
	bus := newTestBus()
	s := newReadyState(bus, 0x8000)
	bus.WriteWord(0x8000, uint32(0xE1A00000)) // MOV R0,R0
	s.SetPC(0x8000)
	s.pipe.reload(s, bus)
	s.setIRQDisabled(true)

	irq := Interrupts{MasterEnable: true, IE: 0x1, IF: 0x1}
	cycles, err := s.Step(bus, irq)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if s.Mode() == ModeIRQ {
		t.Error("Step took the interrupt despite IRQDisabled()")
	}
	if cycles != cyclesDataProcSimple {
		t.Errorf("cycles = %d, want the executed MOV's %d", cycles, cyclesDataProcSimple)
	}
}

func TestStepDispatchesByThumbBit(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(1, 7)
	// MOV R0, #9 (Thumb): op=0x0, Rd=0.
	bus.WriteHalfword(0x8000, uint16(0x2000)|0<<8|9)
	s.SetPC(0x8000)
	s.pipe.reload(s, bus)

	if _, err := s.Step(bus, Interrupts{}); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if s.Read(0) != 9 {
		t.Errorf("R0 after Thumb Step = %d, want 9 (Thumb decoder must have run)", s.Read(0))
	}
}

func TestStepConvertsInternalInvariantPanicToError(t *testing.T) {
	inner := newTestBus()
	bus := &panicBus{testBus: inner, panicValue: ErrInternalInvariant}
	s := newReadyState(inner, 0x8000)
	bus.WriteWord(0x8000, uint32(0xE1A00000)) // MOV R0,R0, written after the pipeline load, so slot0 still holds 0; the step's prefetch hits the panicking ReadWord either way

	cycles, err := s.Step(bus, Interrupts{})
	if err != ErrInternalInvariant {
		t.Fatalf("Step() error = %v, want ErrInternalInvariant", err)
	}
	if cycles != 0 {
		t.Errorf("cycles = %d, want 0 on a recovered panic", cycles)
	}
}

func TestStepRepanicsNonErrorPanic(t *testing.T) {
	inner := newTestBus()
	bus := &panicBus{testBus: inner, panicValue: "not an error"}
	s := newReadyState(inner, 0x8000)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Step() swallowed a non-error panic instead of re-panicking")
		}
		if r != "not an error" {
			t.Errorf("recovered panic = %v, want the original string", r)
		}
	}()
	s.Step(bus, Interrupts{})
	t.Fatal("Step() returned normally; expected the non-error panic to propagate")
}
