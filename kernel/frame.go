package kernel

// Processor status values used in saved frames.
const (
	ModeSVC    uint32 = 0x13
	ModeMask   uint32 = 0x1f
	IRQDisable uint32 = 1 << 7
)

// TrampolinePC is the entry address written into a fresh frame. Dispatching a
// frame with this PC runs the thread's entry point through Handler.RunThread.
const TrampolinePC uint32 = 0x0000_8000

// FrameWords is the size of a saved register frame.
const FrameWords = 16

// Frame is one saved register set. On the stack it is laid out from the
// stack pointer upward as CPSR, R0..R12, LR, PC.
type Frame struct {
	CPSR uint32
	R    [13]uint32
	LR   uint32
	PC   uint32
}

// IRQEnabled reports whether the frame resumes with interrupts unmasked.
func (f *Frame) IRQEnabled() bool { return f.CPSR&IRQDisable == 0 }

// Mode returns the processor mode bits of the frame.
func (f *Frame) Mode() uint32 { return f.CPSR & ModeMask }

// InitStack lays down the synthetic interrupt-return frame of a new thread at
// the top of stack and returns the resulting stack pointer. R0 carries data.
func InitStack(stack []uint32, data uint32) StackPointer {
	f := Frame{
		CPSR: ModeSVC,
		LR:   0x0e0e0e0e,
		PC:   TrampolinePC,
	}
	f.R[0] = data
	for i := 1; i < len(f.R); i++ {
		f.R[i] = uint32(i) * 0x01010101
	}
	return StoreFrame(stack, StackPointer(len(stack)), &f)
}

// StoreFrame pushes f below sp and returns the new stack pointer.
func StoreFrame(stack []uint32, sp StackPointer, f *Frame) StackPointer {
	p := int(sp)
	p--
	stack[p] = f.PC
	p--
	stack[p] = f.LR
	for i := len(f.R) - 1; i >= 0; i-- {
		p--
		stack[p] = f.R[i]
	}
	p--
	stack[p] = f.CPSR
	return StackPointer(p)
}

// LoadFrame pops the frame at sp and returns it with the stack pointer above
// it.
func LoadFrame(stack []uint32, sp StackPointer) (Frame, StackPointer) {
	var f Frame
	p := int(sp)
	f.CPSR = stack[p]
	p++
	for i := range f.R {
		f.R[i] = stack[p]
		p++
	}
	f.LR = stack[p]
	p++
	f.PC = stack[p]
	p++
	return f, StackPointer(p)
}
