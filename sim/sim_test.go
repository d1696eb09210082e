package sim

import (
	"fmt"
	"testing"

	"simpleisa/asm"
	"simpleisa/vm"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func assembleAndRun(t *testing.T, source string) *Simulation {
	res, err := asm.Assemble(source)
	assert(t, err == nil, "failed to assemble: %v", err)

	s := New(res.Image)
	assert(t, s.Run() == nil, "simulation run failed")
	return s
}

func TestNopThenEnd(t *testing.T) {
	s := assembleAndRun(t, "NOP\nEND")
	snap := s.Snapshot()
	assert(t, snap.Halted, "expected halted")
	assert(t, snap.Flags == 0, "expected all flags clear")
	// NOP (3 cycles, K=0) then END (3 cycles, K=0).
	assert(t, snap.Cycle == 6, "expected exactly 6 cycles, got %d", snap.Cycle)
}

func TestUnsignedOverflow(t *testing.T) {
	s := assembleAndRun(t, `
		LDC r0 0xFF
		INC r0
		END
	`)
	snap := s.Snapshot()
	assert(t, snap.Regs[0] == 0x00, "expected r0 == 0x00, got 0x%02X", snap.Regs[0])
	assert(t, snap.Flags.Zero(), "expected Z=1")
	assert(t, snap.Flags.Carry(), "expected C=1")
}

func TestMemoryRoundTrip(t *testing.T) {
	s := assembleAndRun(t, `
		LDC r0 0xBE
		LDC r1 0x80
		STM r0 r1
		LDC r0 0x00
		LDM r0 r1
		END
	`)
	snap := s.Snapshot()
	assert(t, snap.Regs[0] == 0xBE, "expected r0 == 0xBE, got 0x%02X", snap.Regs[0])
	mem := s.Memory.Snapshot()
	assert(t, mem[0x80] == 0xBE, "expected M[0x80] == 0xBE, got 0x%02X", mem[0x80])
}

func TestSignedCompareAndJump(t *testing.T) {
	s := assembleAndRun(t, `
		LDC r0 0x01
		LDC r1 0xFF
		CMP r0 r1
		JSG greater
		LDC r2 0x00
		JMP done
		greater: LDC r2 0xAA
		done: END
	`)
	snap := s.Snapshot()
	assert(t, snap.Regs[2] == 0xAA, "expected r2 == 0xAA, got 0x%02X", snap.Regs[2])
}

func TestLoopUsingJul(t *testing.T) {
	s := assembleAndRun(t, `
		LDC r0 0x03
		LDC r1 0x01
		loop: SUB r0 r1
		JUL done
		JMP loop
		done: END
	`)
	snap := s.Snapshot()
	assert(t, snap.Regs[0] == 0xFF, "expected r0 == 0xFF, got 0x%02X", snap.Regs[0])
	assert(t, snap.Flags.Carry(), "expected C=1")
}

// TestAssembleThenExecuteEquivalence checks the VM and the simulator
// reach the same final register file, memory image, flags, and halt
// status for the same assembled program — the universal property both
// engines must satisfy since the simulator is the reference semantics
// and the VM a faster equivalent.
func TestAssembleThenExecuteEquivalence(t *testing.T) {
	source := `
		LDC r0 0x03
		LDC r1 0x01
		loop: SUB r0 r1
		JUL done
		JMP loop
		done: LDC r2 0x42
		STM r2 r0
		END
	`
	res, err := asm.Assemble(source)
	assert(t, err == nil, "assemble failed: %v", err)

	vmMachine := vm.New(res.Image)
	assert(t, vmMachine.Run() == nil, "VM run failed")

	simMachine := New(res.Image)
	assert(t, simMachine.Run() == nil, "simulation run failed")
	snap := simMachine.Snapshot()

	assert(t, snap.Flags == vmMachine.Flag, "flags diverged: sim=%s vm=%s", snap.Flags, vmMachine.Flag)
	for i := 0; i < 16; i++ {
		assert(t, snap.Regs[i] == vmMachine.Reg[i], "r%d diverged: sim=0x%02X vm=0x%02X", i, snap.Regs[i], vmMachine.Reg[i])
	}
	assert(t, simMachine.Memory.Snapshot() == vmMachine.Mem, "final memory image diverged")
}

func TestEachInstructionConsumesThreePlusKCycles(t *testing.T) {
	res, err := asm.Assemble("NOP\nEND")
	assert(t, err == nil, "assemble failed: %v", err)
	sim := New(res.Image)

	assert(t, sim.Step() == nil, "step failed")
	assert(t, sim.Cycles == 1, "expected 1 cycle so far")
	for !sim.Halted() {
		assert(t, sim.Step() == nil, "step failed")
	}
	assert(t, sim.Cycles == 6, "NOP (3 cycles) + END (3 cycles) should total 6, got %d", sim.Cycles)
}
