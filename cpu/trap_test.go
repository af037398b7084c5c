package cpu

import "testing"

func TestEnterSoftwareInterruptDivSequence(t *testing.T) {
	bus := newTestBus()
	s := newReadyState(bus, 0x8000)
	s.setMode(ModeUser)
	s.SetFlags(true, false, false, false) // N set, distinctive in the saved CPSR
	s.Write(0, 10)
	s.Write(1, 3)

	retAddrBefore := s.PC() - instructionWidth(s)
	savedCPSRBefore := s.CPSR()

	cycles, err := s.enterSoftwareInterrupt(bus, firmwareCallDiv)
	if err != nil {
		t.Fatalf("enterSoftwareInterrupt() error = %v", err)
	}
	if cycles != cyclesSWI {
		t.Errorf("cycles = %d, want %d", cycles, cyclesSWI)
	}

	// The firmware call ran: R0=quotient, R1=remainder, R3=|quotient|.
	if s.Read(0) != 3 || s.Read(1) != 1 || s.Read(3) != 3 {
		t.Errorf("registers after SWI div = (%d,%d,%d), want (3,1,3)", s.Read(0), s.Read(1), s.Read(3))
	}

	// RestoreStatus brought back the original mode/flags, so by the time
	// enterSoftwareInterrupt returns we're back in ModeUser with N set.
	if s.Mode() != ModeUser {
		t.Errorf("mode after SWI return = %#x, want ModeUser (restored)", s.Mode())
	}
	n, _, _, _ := s.Flags()
	if !n {
		t.Error("N flag lost across the SWI round trip")
	}

	if spsr, err := s.SPSR(BankSVC); err != nil || spsr != savedCPSRBefore {
		t.Errorf("SPSR_svc = %#x (err=%v), want the original CPSR %#x", spsr, err, savedCPSRBefore)
	}
	if s.bankedR14[bankIndex(BankSVC)] != retAddrBefore {
		t.Errorf("R14_svc = %#x, want the SWI's return address %#x", s.bankedR14[bankIndex(BankSVC)], retAddrBefore)
	}
}

func TestEnterSoftwareInterruptUnimplementedCallIsFatal(t *testing.T) {
	bus := newTestBus()
	s := newReadyState(bus, 0x8000)

	_, err := s.enterSoftwareInterrupt(bus, 0xFF)
	if err != ErrInternalInvariant {
		t.Fatalf("enterSoftwareInterrupt(unimplemented) error = %v, want ErrInternalInvariant", err)
	}
}

func TestEnterSoftwareInterruptRoundTripRestoresIRQMask(t *testing.T) {
	bus := newTestBus()
	s := newReadyState(bus, 0x8000)
	s.Write(0, 8)
	s.Write(1, 2)
	// The trap entry masks IRQs, but the return sequence restores the whole
	// CPSR from SPSR_svc, so the mask must come back as it was before the
	// trap (clear here).
	s.setIRQDisabled(false)

	if _, err := s.enterSoftwareInterrupt(bus, firmwareCallDiv); err != nil {
		t.Fatalf("enterSoftwareInterrupt() error = %v", err)
	}
	if s.IRQDisabled() {
		t.Error("IRQ mask left set after a software-interrupt round trip; the restored CPSR had it clear")
	}
}

func TestTakeInterruptEntersIRQModeAtVector(t *testing.T) {
	bus := newTestBus()
	s := newReadyState(bus, 0x8000)
	s.setMode(ModeUser)
	s.SetFlags(false, true, false, false) // Z set, to check round-trip via SPSR_irq
	pcBefore := s.PC()

	s.TakeInterrupt(bus)

	if s.Mode() != ModeIRQ {
		t.Errorf("mode after TakeInterrupt = %#x, want ModeIRQ", s.Mode())
	}
	if !s.IRQDisabled() {
		t.Error("IRQ mask not set after TakeInterrupt")
	}
	if s.Thumb() {
		t.Error("TakeInterrupt left Thumb set; A-mode is mandatory at the IRQ vector")
	}
	if s.PC() != VectorIRQ+8 {
		t.Errorf("PC after TakeInterrupt = %#x, want vector+8 (pipeline reload)", s.PC())
	}

	wantRetAddr := pcBefore - 2*instructionWidth(s) + 4
	if s.bankedR14[bankIndex(BankIRQ)] != wantRetAddr {
		t.Errorf("R14_irq = %#x, want %#x", s.bankedR14[bankIndex(BankIRQ)], wantRetAddr)
	}
	if spsr, err := s.SPSR(BankIRQ); err != nil || spsr&flagZ == 0 {
		t.Errorf("SPSR_irq = %#x (err=%v), did not preserve the Z flag", spsr, err)
	}
}
