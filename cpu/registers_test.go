package cpu

import "testing"

func TestModeAndCPSRRoundTrip(t *testing.T) {
	s := &State{}
	s.setMode(ModeSVC)
	if s.Mode() != ModeSVC {
		t.Fatalf("Mode() = %#x, want ModeSVC", s.Mode())
	}
	if s.CurrentBank() != BankSVC {
		t.Fatalf("CurrentBank() = %v, want BankSVC", s.CurrentBank())
	}

	if err := s.SetCPSR(uint32(ModeIRQ)); err != nil {
		t.Fatalf("SetCPSR() with valid mode returned %v", err)
	}
	if s.Mode() != ModeIRQ {
		t.Fatalf("Mode() after SetCPSR = %#x, want ModeIRQ", s.Mode())
	}

	if err := s.SetCPSR(0x15); err == nil {
		t.Fatalf("SetCPSR() with invalid mode field did not error")
	}
}

func TestFlagsPackAndRead(t *testing.T) {
	s := &State{}
	s.SetFlags(true, false, true, false)
	n, z, c, v := s.Flags()
	if !n || z || !c || v {
		t.Fatalf("Flags() = (%v,%v,%v,%v), want (true,false,true,false)", n, z, c, v)
	}

	s.setIRQDisabled(true)
	s.setFIQDisabled(false)
	if !s.IRQDisabled() || s.FIQDisabled() {
		t.Fatalf("IRQDisabled/FIQDisabled mismatch after explicit set")
	}
	// Confirm setting the mask bits didn't disturb the flag nibble.
	n, z, c, v = s.Flags()
	if !n || z || !c || v {
		t.Fatalf("Flags() changed by mask bit writes: (%v,%v,%v,%v)", n, z, c, v)
	}
}

func TestR13BankedPerMode(t *testing.T) {
	s := &State{}
	s.setMode(ModeUser)
	s.Write(13, 0x1000)
	s.setMode(ModeSVC)
	s.Write(13, 0x2000)
	s.setMode(ModeIRQ)
	s.Write(13, 0x3000)

	s.setMode(ModeUser)
	if got := s.Read(13); got != 0x1000 {
		t.Errorf("R13 in user mode = %#x, want 0x1000", got)
	}
	s.setMode(ModeSVC)
	if got := s.Read(13); got != 0x2000 {
		t.Errorf("R13 in SVC mode = %#x, want 0x2000", got)
	}
	s.setMode(ModeIRQ)
	if got := s.Read(13); got != 0x3000 {
		t.Errorf("R13 in IRQ mode = %#x, want 0x3000", got)
	}
	s.setMode(ModeSystem)
	if got := s.Read(13); got != 0x1000 {
		t.Errorf("R13 in system mode = %#x, want 0x1000 (shared with user)", got)
	}
}

func TestFIQBanksR8ThroughR14(t *testing.T) {
	s := &State{}
	s.setMode(ModeUser)
	s.Write(8, 0xAAAA)
	s.setMode(ModeFIQ)
	s.Write(8, 0xBBBB)

	s.setMode(ModeUser)
	if got := s.Read(8); got != 0xAAAA {
		t.Errorf("R8 in user mode = %#x, want 0xaaaa", got)
	}
	s.setMode(ModeFIQ)
	if got := s.Read(8); got != 0xBBBB {
		t.Errorf("R8 in FIQ mode = %#x, want 0xbbbb", got)
	}
	// R0..R7 and R15 are never banked, including under FIQ.
	s.setMode(ModeUser)
	s.Write(0, 1)
	s.setMode(ModeFIQ)
	if got := s.Read(0); got != 1 {
		t.Errorf("R0 differs across FIQ banking: got %#x, want 1", got)
	}
}

func TestSlotPanicsOnOutOfRangeRegister(t *testing.T) {
	s := &State{}
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("slot(16) did not panic")
		}
		if err, ok := r.(error); !ok || err != ErrInternalInvariant {
			t.Fatalf("slot(16) panicked with %v, want ErrInternalInvariant", r)
		}
	}()
	s.slot(16)
}

func TestSaveAndRestoreStatus(t *testing.T) {
	s := &State{}
	s.setMode(ModeSVC)
	s.SetFlags(true, true, false, false)
	cpsrBefore := s.CPSR()

	if err := s.SaveStatus(BankSVC); err != nil {
		t.Fatalf("SaveStatus(BankSVC) = %v", err)
	}
	s.SetFlags(false, false, false, false)
	if err := s.RestoreStatus(BankSVC); err != nil {
		t.Fatalf("RestoreStatus(BankSVC) = %v", err)
	}
	if s.CPSR() != cpsrBefore {
		t.Errorf("CPSR after restore = %#x, want %#x", s.CPSR(), cpsrBefore)
	}

	if err := s.SaveStatus(BankNone); err == nil {
		t.Error("SaveStatus(BankNone) did not error")
	}
	if err := s.RestoreStatus(BankNone); err == nil {
		t.Error("RestoreStatus(BankNone) did not error")
	}
	if _, err := s.SPSR(BankNone); err == nil {
		t.Error("SPSR(BankNone) did not error")
	}
	if err := s.SetSPSR(BankNone, 0); err == nil {
		t.Error("SetSPSR(BankNone) did not error")
	}
}

func TestResetEntersSVCAndBanksOldState(t *testing.T) {
	bus := newTestBus()
	s := &State{}
	s.SetPC(0x1234)
	s.SetFlags(true, false, false, false)

	s.Reset(bus)

	if s.Mode() != ModeSVC {
		t.Errorf("Mode() after Reset = %#x, want ModeSVC", s.Mode())
	}
	if !s.IRQDisabled() || !s.FIQDisabled() {
		t.Error("Reset did not mask IRQ/FIQ")
	}
	if s.Thumb() {
		t.Error("Reset left T-bit set")
	}
	if got := s.Read(14); got != 0x1234 {
		t.Errorf("R14_SVC after Reset = %#x, want 0x1234", got)
	}
	if got := s.PC(); got != 8 {
		t.Errorf("PC after Reset+reload = %#x, want 8 (0 + 2*4)", got)
	}
}

func TestSkipFirmwareSeedsSystemMode(t *testing.T) {
	bus := newTestBus()
	s := &State{}
	s.SkipFirmware(bus)

	if s.Mode() != ModeSystem {
		t.Errorf("Mode() after SkipFirmware = %#x, want ModeSystem", s.Mode())
	}
	if got := s.Read(13); got != seedR13System {
		t.Errorf("R13 after SkipFirmware = %#x, want %#x", got, seedR13System)
	}
	if got := s.PC(); got != seedPC+8 {
		t.Errorf("PC after SkipFirmware+reload = %#x, want %#x", got, seedPC+8)
	}
}
