package kernel

import "testing"

func TestInitStackLayout(t *testing.T) {
	var stack [StackWords]uint32
	sp := InitStack(stack[:], 7)

	if want := StackPointer(StackWords - FrameWords); sp != want {
		t.Fatalf("sp = %d, want %d", sp, want)
	}

	want := []uint32{
		ModeSVC,
		7,
		0x01010101, 0x02020202, 0x03030303, 0x04040404,
		0x05050505, 0x06060606, 0x07070707, 0x08080808,
		0x09090909, 0x0a0a0a0a, 0x0b0b0b0b, 0x0c0c0c0c,
		0x0e0e0e0e,
		TrampolinePC,
	}
	for i, w := range want {
		if got := stack[int(sp)+i]; got != w {
			t.Fatalf("stack[sp+%d] = %#x, want %#x", i, got, w)
		}
	}
	for i := 0; i < int(sp); i++ {
		if stack[i] != 0 {
			t.Fatalf("stack[%d] = %#x below the frame", i, stack[i])
		}
	}
}

func TestStoreLoadFrame(t *testing.T) {
	var stack [64]uint32
	f := Frame{CPSR: ModeSVC | IRQDisable, LR: 0xdead, PC: 0xbeef}
	for i := range f.R {
		f.R[i] = uint32(100 + i)
	}

	sp := StoreFrame(stack[:], 40, &f)
	if sp != 40-FrameWords {
		t.Fatalf("StoreFrame() = %d, want %d", sp, 40-FrameWords)
	}
	if stack[39] != 0xbeef || stack[int(sp)] != ModeSVC|IRQDisable {
		t.Fatalf("frame boundaries = %#x..%#x", stack[int(sp)], stack[39])
	}

	got, top := LoadFrame(stack[:], sp)
	if top != 40 {
		t.Fatalf("LoadFrame() sp = %d, want 40", top)
	}
	if got != f {
		t.Fatalf("LoadFrame() = %+v, want %+v", got, f)
	}
	if got.IRQEnabled() {
		t.Fatal("IRQEnabled() = true with IRQDisable set")
	}
}
