package cpu

import "testing"

func TestThumbExecMultipleTransferStoreAndLoad(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(0, 0x11)
	s.Write(1, 0x22)
	s.Write(5, 0x4000) // base register

	// STMIA R5!, {R0,R1}: load=0, Rb=5, list=0b00000011.
	instr := uint16(0xC000) | 5<<8 | 0x03
	cycles, err := s.thumbExecMultipleTransfer(bus, instr)
	if err != nil {
		t.Fatalf("thumbExecMultipleTransfer(STM) error = %v", err)
	}
	if bus.ReadWord(0x4000) != 0x11 || bus.ReadWord(0x4004) != 0x22 {
		t.Fatalf("STMIA did not store in register order: %#x,%#x", bus.ReadWord(0x4000), bus.ReadWord(0x4004))
	}
	if s.Read(5) != 0x4008 {
		t.Errorf("R5 after STMIA! of 2 regs = %#x, want 0x4008", s.Read(5))
	}
	if cycles != 2+1 {
		t.Errorf("cycles = %d, want %d", cycles, 2+1)
	}

	// LDMIA R5!, {R2,R3}: load=1, Rb=5, list=0b00001100. Rewind R5 back to
	// the base the STM above wrote from.
	s.Write(5, 0x4000)
	instr = uint16(0xC800) | 5<<8 | 0x0C
	_, err = s.thumbExecMultipleTransfer(bus, instr)
	if err != nil {
		t.Fatalf("thumbExecMultipleTransfer(LDM) error = %v", err)
	}
	if s.Read(2) != 0x11 || s.Read(3) != 0x22 {
		t.Errorf("registers after LDMIA = (%#x,%#x), want (0x11,0x22)", s.Read(2), s.Read(3))
	}
}

func TestThumbExecMultipleTransferEmptyListQuirk(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	bus.WriteWord(0x5000, 0x9000)
	s.Write(2, 0x5000)

	// LDMIA R2!, {} : load=1, Rb=2, empty list.
	instr := uint16(0xC800) | 2<<8
	_, err := s.thumbExecMultipleTransfer(bus, instr)
	if err != nil {
		t.Fatalf("thumbExecMultipleTransfer(empty list) error = %v", err)
	}
	if s.PC() != 0x9000+4 {
		t.Errorf("PC after empty-list LDMIA = %#x, want %#x", s.PC(), 0x9000+4)
	}
	if s.Read(2) != 0x5000+0x40 {
		t.Errorf("R2 after empty-list LDMIA! = %#x, want base+0x40", s.Read(2))
	}
}

func TestThumbExecPushPopBasic(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(13, 0x7000) // SP
	s.Write(0, 0xAA)
	s.Write(1, 0xBB)
	s.Write(14, 0xCC) // LR

	// PUSH {R0,R1,LR}: pop=0, extra(R)=1, list=0b00000011.
	instr := uint16(0xB400) | 1<<8 | 0x03
	_, err := s.thumbExecPushPop(bus, instr)
	if err != nil {
		t.Fatalf("thumbExecPushPop(PUSH) error = %v", err)
	}
	if s.Read(13) != 0x7000-0xC {
		t.Errorf("SP after PUSH of 3 words = %#x, want %#x", s.Read(13), 0x7000-0xC)
	}
	if bus.ReadWord(0x7000-0xC) != 0xAA || bus.ReadWord(0x7000-0x8) != 0xBB || bus.ReadWord(0x7000-0x4) != 0xCC {
		t.Fatalf("PUSH wrote the wrong values/order")
	}

	// POP {R2,R3,PC}: pop=1, extra(R)=1, list=0b00001100.
	instr = uint16(0xBC00) | 1<<8 | 0x0C
	_, err = s.thumbExecPushPop(bus, instr)
	if err != nil {
		t.Fatalf("thumbExecPushPop(POP) error = %v", err)
	}
	if s.Read(2) != 0xAA || s.Read(3) != 0xBB {
		t.Errorf("registers after POP = (%#x,%#x), want (0xaa,0xbb)", s.Read(2), s.Read(3))
	}
	if s.PC() != 0xCC+4 {
		t.Errorf("PC after POP {PC} = %#x, want %#x", s.PC(), 0xCC+4)
	}
	if s.Read(13) != 0x7000 {
		t.Errorf("SP after matching POP = %#x, want restored 0x7000", s.Read(13))
	}
}

func TestThumbExecHalfwordTransferRoundTrip(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(1, 0x6000) // Rb
	s.Write(2, 0x1234) // Rd (store source)

	// STRH R2, [R1, #4]: load=0, offset5=2(<<1=4), Rb=1, Rd=2.
	instr := uint16(0x8000) | 2<<6 | 1<<3 | 2
	if _, err := s.thumbExecHalfwordTransfer(bus, instr); err != nil {
		t.Fatalf("thumbExecHalfwordTransfer(STRH) error = %v", err)
	}
	if bus.ReadHalfword(0x6004) != 0x1234 {
		t.Fatalf("STRH did not write the expected halfword: %#x", bus.ReadHalfword(0x6004))
	}

	// LDRH R3, [R1, #4]: load=1, Rd=3.
	instr = uint16(0x8800) | 2<<6 | 1<<3 | 3
	if _, err := s.thumbExecHalfwordTransfer(bus, instr); err != nil {
		t.Fatalf("thumbExecHalfwordTransfer(LDRH) error = %v", err)
	}
	if s.Read(3) != 0x1234 {
		t.Errorf("R3 after LDRH = %#x, want 0x1234", s.Read(3))
	}
}

func TestThumbExecSPRelativeTransferRoundTrip(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(13, 0x8000) // SP
	s.Write(2, 0xDEAD)

	// STR R2, [SP, #8]: load=0, Rd=2, offset=2(<<2=8).
	instr := uint16(0x9000) | 2<<8 | 2
	if _, err := s.thumbExecSPRelativeTransfer(bus, instr); err != nil {
		t.Fatalf("thumbExecSPRelativeTransfer(STR) error = %v", err)
	}
	if bus.ReadWord(0x8008) != 0xDEAD {
		t.Fatalf("SP-relative STR wrote to the wrong address: %#x", bus.ReadWord(0x8008))
	}

	// LDR R3, [SP, #8]: load=1, Rd=3.
	instr = uint16(0x9800) | 3<<8 | 2
	if _, err := s.thumbExecSPRelativeTransfer(bus, instr); err != nil {
		t.Fatalf("thumbExecSPRelativeTransfer(LDR) error = %v", err)
	}
	if s.Read(3) != 0xDEAD {
		t.Errorf("R3 after SP-relative LDR = %#x, want 0xdead", s.Read(3))
	}
}

func TestThumbExecLoadAddressPCAndSP(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(13, 0x7000)

	// ADD R0, PC, #4: spRelative=0, Rd=0, offset=1(<<2=4).
	instr := uint16(0xA000) | 0<<8 | 1
	if _, err := s.thumbExecLoadAddress(bus, instr); err != nil {
		t.Fatalf("thumbExecLoadAddress(PC) error = %v", err)
	}
	if s.Read(0) != (s.PC()&^3)+4 {
		t.Errorf("R0 after ADD R0,PC,#4 = %#x, want %#x", s.Read(0), (s.PC()&^3)+4)
	}

	// ADD R1, SP, #8: spRelative=1, Rd=1, offset=2(<<2=8).
	instr = uint16(0xA800) | 1<<8 | 2
	if _, err := s.thumbExecLoadAddress(bus, instr); err != nil {
		t.Fatalf("thumbExecLoadAddress(SP) error = %v", err)
	}
	if s.Read(1) != 0x7008 {
		t.Errorf("R1 after ADD R1,SP,#8 = %#x, want 0x7008", s.Read(1))
	}
}

func TestThumbExecImmOffsetTransferWordAndByte(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(1, 0x3000) // Rb
	s.Write(2, 0xCAFEBABE)

	// STR R2, [R1, #4]: byteAccess=0, load=0, offset5=1(<<2=4).
	instr := uint16(0x6000) | 1<<6 | 1<<3 | 2
	if _, err := s.thumbExecImmOffsetTransfer(bus, instr); err != nil {
		t.Fatalf("thumbExecImmOffsetTransfer(STR) error = %v", err)
	}
	if bus.ReadWord(0x3004) != 0xCAFEBABE {
		t.Fatalf("STR wrote the wrong value/address: %#x", bus.ReadWord(0x3004))
	}

	// LDRB R3, [R1, #4]: byteAccess=1, load=1, offset5=4(unscaled).
	instr = uint16(0x7800) | 4<<6 | 1<<3 | 3
	if _, err := s.thumbExecImmOffsetTransfer(bus, instr); err != nil {
		t.Fatalf("thumbExecImmOffsetTransfer(LDRB) error = %v", err)
	}
	if s.Read(3) != 0xBE {
		t.Errorf("R3 after LDRB [R1,#4] = %#x, want the low byte 0xbe", s.Read(3))
	}
}

func TestThumbExecRegOffsetTransferWord(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(1, 0x3000) // Rb
	s.Write(4, 0x10)   // Ro
	s.Write(2, 0x55667788)

	// STR R2, [R1, R4]: load=0, byteAccess=0, Ro=4, Rb=1, Rd=2.
	instr := uint16(0x5000) | 4<<6 | 1<<3 | 2
	if _, err := s.thumbExecRegOffsetTransfer(bus, instr); err != nil {
		t.Fatalf("thumbExecRegOffsetTransfer(STR) error = %v", err)
	}
	if bus.ReadWord(0x3010) != 0x55667788 {
		t.Fatalf("reg-offset STR wrote the wrong address: %#x", bus.ReadWord(0x3010))
	}
}

func TestThumbExecSignExtendedTransferLDRSHMisalignedQuirk(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(1, 0x4001) // Rb, misaligned
	s.Write(4, 0)       // Ro
	bus.WriteByte(0x4001, 0xFE)

	// LDRSH R0, [R1, R4]: op = seLoadSignedHalf (H=1,S=1).
	instr := uint16(0x5000) | 1<<11 | 1<<10 | 4<<6 | 1<<3 | 0
	_, err := s.thumbExecSignExtendedTransfer(bus, instr)
	if err != nil {
		t.Fatalf("thumbExecSignExtendedTransfer(LDRSH misaligned) error = %v", err)
	}
	want := uint32(0xFFFFFFFE) // byte 0xFE sign-extended
	if s.Read(0) != want {
		t.Errorf("R0 after misaligned LDRSH = %#x, want %#x", s.Read(0), want)
	}
}

func TestThumbExecSignExtendedTransferLDRSB(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	s.Write(1, 0x4000)
	s.Write(4, 0)
	bus.WriteByte(0x4000, 0x80) // negative as signed byte

	// LDRSB R0, [R1, R4]: op = seLoadSignedByte (H=0,S=1).
	instr := uint16(0x5000) | 1<<10 | 4<<6 | 1<<3 | 0
	_, err := s.thumbExecSignExtendedTransfer(bus, instr)
	if err != nil {
		t.Fatalf("thumbExecSignExtendedTransfer(LDRSB) error = %v", err)
	}
	want := uint32(0xFFFFFF80) // byte 0x80 sign-extended
	if s.Read(0) != want {
		t.Errorf("R0 after LDRSB = %#x, want %#x", s.Read(0), want)
	}
}

func TestThumbExecPCRelativeLoad(t *testing.T) {
	bus := newTestBus()
	s := newReadyThumbState(bus, 0x8000)
	addr := (s.PC() &^ 3) + 4
	bus.WriteWord(addr, 0x13579BDF)

	// LDR R0, [PC, #4]: Rd=0, offset=1(<<2=4).
	instr := uint16(0x4800) | 0<<8 | 1
	cycles, err := s.thumbExecPCRelativeLoad(bus, instr)
	if err != nil {
		t.Fatalf("thumbExecPCRelativeLoad() error = %v", err)
	}
	if s.Read(0) != 0x13579BDF {
		t.Errorf("R0 after PC-relative LDR = %#x, want 0x13579bdf", s.Read(0))
	}
	if cycles != cyclesLoad {
		t.Errorf("cycles = %d, want %d", cycles, cyclesLoad)
	}
}
