package vm

import (
	"fmt"
	"testing"

	"simpleisa/asm"
	"simpleisa/isa"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func assembleAndRun(t *testing.T, source string) *VM {
	res, err := asm.Assemble(source)
	assert(t, err == nil, "failed to assemble: %v", err)

	machine := New(res.Image)
	assert(t, machine.Run() == nil, "VM run failed")
	return machine
}

func TestNopThenEnd(t *testing.T) {
	machine := assembleAndRun(t, "NOP\nEND")
	for i, r := range machine.Reg {
		assert(t, r == 0, "expected r%d == 0, got 0x%02X", i, r)
	}
	assert(t, machine.Flag == 0, "expected all flags clear, got %s", machine.Flag)
}

func TestLoadConstantsAndAdd(t *testing.T) {
	machine := assembleAndRun(t, `
		LDC r0 0x03
		LDC r1 0x04
		ADD r0 r1
		END
	`)
	assert(t, machine.Reg[0] == 0x07, "expected r0 == 0x07, got 0x%02X", machine.Reg[0])
	assert(t, machine.Reg[1] == 0x04, "expected r1 == 0x04, got 0x%02X", machine.Reg[1])
	assert(t, !machine.Flag.Zero(), "expected Z=0")
	assert(t, !machine.Flag.Negative(), "expected N=0")
}

func TestUnsignedOverflow(t *testing.T) {
	machine := assembleAndRun(t, `
		LDC r0 0xFF
		INC r0
		END
	`)
	assert(t, machine.Reg[0] == 0x00, "expected r0 == 0x00, got 0x%02X", machine.Reg[0])
	assert(t, machine.Flag.Zero(), "expected Z=1")
	assert(t, machine.Flag.Carry(), "expected C=1 (sign flipped 1->0)")
}

func TestSignedCompareAndJump(t *testing.T) {
	machine := assembleAndRun(t, `
		LDC r0 0x01
		LDC r1 0xFF
		CMP r0 r1
		JSG greater
		LDC r2 0x00
		JMP done
		greater: LDC r2 0xAA
		done: END
	`)
	assert(t, machine.Reg[2] == 0xAA, "expected r2 == 0xAA (1 > -1 signed), got 0x%02X", machine.Reg[2])
}

func TestMemoryRoundTrip(t *testing.T) {
	machine := assembleAndRun(t, `
		LDC r0 0xBE
		LDC r1 0x80
		STM r0 r1
		LDC r0 0x00
		LDM r0 r1
		END
	`)
	assert(t, machine.Reg[0] == 0xBE, "expected r0 == 0xBE, got 0x%02X", machine.Reg[0])
	assert(t, machine.Mem[0x80] == 0xBE, "expected M[0x80] == 0xBE, got 0x%02X", machine.Mem[0x80])
}

func TestLoopUsingJul(t *testing.T) {
	machine := assembleAndRun(t, `
		LDC r0 0x03
		LDC r1 0x01
		loop: SUB r0 r1
		JUL done
		JMP loop
		done: END
	`)
	assert(t, machine.Reg[0] == 0xFF, "expected r0 == 0xFF after underflow, got 0x%02X", machine.Reg[0])
	assert(t, machine.Flag.Carry(), "expected C=1")
}

func TestInvalidInstructionHalts(t *testing.T) {
	var img isa.Image
	img[0] = 0x42 // not a defined opcode
	machine := New(img)
	err := machine.Run()
	assert(t, err != nil, "expected an error for an unrecognized opcode")
}

func TestPCWraparound(t *testing.T) {
	// PC starts at the last valid address; fetching there must wrap to
	// 0 rather than run off the end of the 256-byte image.
	var img isa.Image
	img[255] = byte(isa.NOP)
	img[0] = byte(isa.END)
	machine := New(img)
	machine.PC = 255
	assert(t, machine.Run() == nil, "VM run failed")
}
