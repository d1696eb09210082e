package sim

import (
	"fmt"

	"simpleisa/isa"
)

// Meta-states. Opcode-specific microstates are tagged
// (opcode<<8)|microstep and are never confused with these because every
// opcode with extra microsteps has a nonzero opcode byte in the high
// byte of its tag.
const (
	stateHalt   uint16 = 0x0000
	stateFetch0 uint16 = 0xF000
	stateFetch1 uint16 = 0xF001
	stateFetch2 uint16 = 0xF002
)

// microOp is one cycle's worth of control signals: which mux inputs feed
// the ALU, which registers latch the ALU's output this cycle, and
// whether memory is read or written.
type microOp struct {
	aluSelA   int // 0=REG_A, 1=PC, 2=MDR
	aluSelOne bool // B = ONE when true, else REG_B
	aluOp     isa.ALUOp

	ldPC, ldIR, ldMAR, ldMDR, ldReg, ldFlags bool
	memRead, memWrite                        bool
}

// Controller is the microcoded Moore FSM driving the datapath. It tracks
// the decoded opcode and the remaining microprogram for the instruction
// currently in flight; DECODE itself costs no cycle, matching the
// "3 + K cycles per instruction" property — decoding happens
// combinationally in the same cycle as the third fetch microstep.
type Controller struct {
	state   uint16
	opcode  isa.Opcode
	program []microOp
	step    int
}

func (c *Controller) reset() {
	c.state = stateFetch0
	c.program = nil
	c.step = 0
}

// cycle runs exactly one clock cycle: compute this cycle's control
// signals, execute the combinational sweep, and latch every enabled
// sequential element.
func (c *Controller) cycle(s *Simulation) error {
	switch c.state {
	case stateFetch0:
		execute(s, pcToMAR())
		c.state = stateFetch1
		return nil

	case stateFetch1:
		execute(s, memReadAndIncPC())
		c.state = stateFetch2
		return nil

	case stateFetch2:
		execute(s, mdrToIR())
		opcode := isa.Opcode(s.IR.Q.value)
		if !opcode.Valid() {
			return fmt.Errorf("%w: 0x%02X", isa.ErrInvalidInstruction, byte(opcode))
		}
		c.opcode = opcode
		c.program = buildMicroprogram(s, opcode)
		c.step = 0
		c.advanceOrFetch()
		return nil

	default:
		// Opcode-specific microstate.
		op := c.program[c.step]
		execute(s, op)
		c.step++
		c.advanceOrFetch()
		return nil
	}
}

// advanceOrFetch sets state to the next opcode microstate's tag, or back
// to FETCH_0 (starting the next instruction) once the program drains, or
// to HALT for END.
func (c *Controller) advanceOrFetch() {
	if c.opcode == isa.END && (c.program == nil || c.step >= len(c.program)) {
		c.state = stateHalt
		return
	}
	if c.step >= len(c.program) {
		c.state = stateFetch0
		return
	}
	c.state = uint16(c.opcode)<<8 | uint16(c.step)
}

// execute runs the combinational sweep for one microOp against sim and
// commits every element's next state at the cycle edge: sequential
// outputs (register Q values) are read first, combinational elements
// (muxes, the ALU, memory's read port) evaluate from those, and finally
// every stateful element latches.
func execute(s *Simulation, m microOp) {
	sel := s.IR.Q.value
	s.RegFile.Read(sel)

	one := KnownWire(1)
	s.ALU.A = Mux3(m.aluSelA, s.RegFile.OutA, KnownWire(s.PC.Q.value), s.MDR.Q)
	s.ALU.B = Mux2(m.aluSelOne, s.RegFile.OutB, one)
	s.ALU.Op = m.aluOp
	newFlags := s.ALU.Eval(s.Flags)

	s.Memory.Read(s.MAR.Q)
	mdrIn := Mux2(m.memRead, s.ALU.Out, s.Memory.DataOut)

	s.MDREnable.A = boolWire(m.ldMDR)
	s.MDREnable.B = boolWire(m.memRead)
	s.MDREnable.Eval()
	mdrEnable, _ := s.MDREnable.Out.Value()

	s.PC.Load(s.ALU.Out, m.ldPC)
	s.IR.Load(s.ALU.Out, m.ldIR)
	s.MAR.Load(s.ALU.Out, m.ldMAR)
	s.RegFile.Write(sel, s.ALU.Out, m.ldReg)
	s.MDR.Load(mdrIn, mdrEnable != 0)
	s.Memory.Write(s.MAR.Q, s.MDR.Q, m.memWrite)

	if m.ldFlags {
		s.Flags = newFlags
	}

	s.PC.Transition()
	s.IR.Transition()
	s.MAR.Transition()
	s.MDR.Transition()
	s.RegFile.Transition(sel)
	s.Memory.Transition()
}

func pcToMAR() microOp {
	return microOp{aluSelA: 1, aluOp: isa.ALUPassA, ldMAR: true}
}

func memReadAndIncPC() microOp {
	return microOp{aluSelA: 1, aluSelOne: true, aluOp: isa.ALUAdd, ldPC: true, memRead: true}
}

func mdrToIR() microOp {
	return microOp{aluSelA: 2, aluOp: isa.ALUPassA, ldIR: true}
}

func marFromRegB() microOp {
	return microOp{aluSelOne: false, aluOp: isa.ALUPassB, ldMAR: true}
}

func memReadOnly() microOp {
	return microOp{memRead: true}
}

func regFromMDR() microOp {
	return microOp{aluSelA: 2, aluOp: isa.ALUPassA, ldReg: true}
}

func mdrFromRegA() microOp {
	return microOp{aluSelA: 0, aluOp: isa.ALUPassA, ldMDR: true}
}

func memWriteStep() microOp {
	return microOp{memWrite: true}
}

func pcPlusOne() microOp {
	return microOp{aluSelA: 1, aluSelOne: true, aluOp: isa.ALUAdd, ldPC: true}
}

func pcFromMDR() microOp {
	return microOp{aluSelA: 2, aluOp: isa.ALUPassA, ldPC: true}
}

// buildMicroprogram returns the opcode-specific microstate sequence that
// follows the 3 universal instruction-fetch cycles, per the per-opcode
// microcode table. Conditional jumps resolve their branch here, against
// the flags register's value at decode time, rather than re-checking it
// every cycle — the controller is a Moore machine, so the decision is
// baked into which microprogram gets queued.
func buildMicroprogram(s *Simulation, op isa.Opcode) []microOp {
	operandFetch := []microOp{pcToMAR(), memReadAndIncPC(), mdrToIR()}

	switch op {
	case isa.NOP, isa.END:
		return nil

	case isa.MOV:
		return append(operandFetch, microOp{aluSelOne: false, aluOp: isa.ALUPassB, ldReg: true})

	case isa.LDC:
		seq := append(operandFetch, pcToMAR(), memReadAndIncPC())
		return append(seq, regFromMDR())

	case isa.LDM:
		return append(operandFetch, marFromRegB(), memReadOnly(), regFromMDR())

	case isa.STM:
		return append(operandFetch, marFromRegB(), mdrFromRegA(), memWriteStep())

	case isa.INC, isa.DEC:
		aluOp, _ := isa.ALUOpFor(op)
		return append(operandFetch, microOp{aluSelA: 0, aluSelOne: true, aluOp: aluOp, ldReg: true, ldFlags: true})

	case isa.NEG, isa.BCM, isa.USR, isa.SSR, isa.USL:
		aluOp, _ := isa.ALUOpFor(op)
		return append(operandFetch, microOp{aluSelA: 0, aluOp: aluOp, ldReg: true, ldFlags: true})

	case isa.ADD, isa.SUB, isa.AND, isa.OR:
		aluOp, _ := isa.ALUOpFor(op)
		return append(operandFetch, microOp{aluSelA: 0, aluOp: aluOp, ldReg: true, ldFlags: true})

	case isa.CMP:
		return append(operandFetch, microOp{aluSelA: 0, aluOp: isa.ALUSub, ldFlags: true})

	case isa.JMP:
		return []microOp{pcToMAR(), memReadAndIncPC(), pcFromMDR()}

	case isa.JEQ, isa.JUL, isa.JUG, isa.JSL, isa.JSG:
		if jumpTaken(op, s.Flags) {
			return []microOp{pcToMAR(), memReadAndIncPC(), pcFromMDR()}
		}
		return []microOp{pcPlusOne()}

	default:
		return nil
	}
}

func jumpTaken(op isa.Opcode, f isa.Flags) bool {
	switch op {
	case isa.JEQ:
		return f.Zero()
	case isa.JUL:
		return f.Carry()
	case isa.JUG:
		return !f.Carry() && !f.Zero()
	case isa.JSL:
		return f.Negative() != f.Overflow()
	case isa.JSG:
		return !f.Zero() && f.Negative() == f.Overflow()
	default:
		return false
	}
}
