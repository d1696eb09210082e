package sim

import "simpleisa/isa"

// Simulation owns every hardware element of one run and drives them
// cycle by cycle. Every element lives as a plain field rather than in
// a package-level registry, so two Simulations never interfere with
// each other.
type Simulation struct {
	PC    Register
	IR    Register
	MAR   Register
	MDR   Register
	Flags isa.Flags

	RegFile   RegFile
	ALU       ALU
	Memory    Memory
	MDREnable OrGate

	Controller Controller

	Cycles int
}

// New constructs a Simulation with memory loaded from img and every
// register reset to zero, matching the VM's reset lifecycle.
func New(img isa.Image) *Simulation {
	s := &Simulation{}
	s.Memory.Load(img)
	s.Controller.reset()
	return s
}

// Halted reports whether the controller has reached the HALT meta-state.
func (s *Simulation) Halted() bool { return s.Controller.state == stateHalt }

// Step advances the datapath exactly one cycle: start_cycle (combinational
// evaluation against current register state), transition (latch enabled
// registers and memory/regfile writes at the cycle edge), and
// post_transition (nothing to do here; callers may inspect Snapshot
// between Step calls for the same effect).
func (s *Simulation) Step() error {
	if s.Halted() {
		return nil
	}
	if err := s.Controller.cycle(s); err != nil {
		return err
	}
	s.Cycles++
	return nil
}

// Run steps the simulation until the controller halts or an invariant
// violation surfaces as an error.
func (s *Simulation) Run() error {
	for !s.Halted() {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot captures everything spec's "Observability" clause says the
// simulator publishes at the end of a cycle.
type Snapshot struct {
	State   uint16
	PC      byte
	IR      byte
	MAR     byte
	MDR     byte
	ALUA    Wire
	ALUB    Wire
	ALUOut  Wire
	Flags   isa.Flags
	Regs    [16]byte
	Cycle   int
	Halted  bool
}

// Snapshot returns the simulation's current observable state.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		State:  s.Controller.state,
		PC:     s.PC.Q.value,
		IR:     s.IR.Q.value,
		MAR:    s.MAR.Q.value,
		MDR:    s.MDR.Q.value,
		ALUA:   s.ALU.A,
		ALUB:   s.ALU.B,
		ALUOut: s.ALU.Out,
		Flags:  s.Flags,
		Cycle:  s.Cycles,
		Halted: s.Halted(),
	}
	for i := 0; i < 16; i++ {
		snap.Regs[i] = s.RegFile.Get(byte(i))
	}
	return snap
}
