package sim

import "simpleisa/isa"

// Register synchronously loads D into Q on the cycle edge when its
// enable is asserted during that cycle, and holds otherwise. Q is the
// value readable by the rest of the datapath during start_cycle; next is
// computed during the cycle and committed by Transition.
type Register struct {
	Q    Wire
	next Wire
}

// Load computes this register's next state for the current cycle: D
// when enable is set, otherwise its own current value (a hold).
func (r *Register) Load(d Wire, enable bool) {
	if enable {
		r.next = d
	} else {
		r.next = r.Q
	}
}

// Transition commits the cycle's computed next state to Q.
func (r *Register) Transition() {
	r.Q = r.next
}

// Mux2 selects b when sel is true, else a — the datapath's two-way
// selectors (ALUSelB, the MDR input mux) are both two-way.
func Mux2(sel bool, a, b Wire) Wire {
	if sel {
		return b
	}
	return a
}

// Mux3 selects among three inputs by a 0/1/2 selector (ALUSelA picks
// among REG_A, PC, MDR).
func Mux3(sel int, a, b, c Wire) Wire {
	switch sel {
	case 0:
		return a
	case 1:
		return b
	default:
		return c
	}
}

// orWires bitwise-ORs two wires, propagating Unknown. It is the shared
// combinational rule behind the OrGate element.
func orWires(a, b Wire) Wire {
	return combine2(a, b, func(x, y byte) byte { return x | y })
}

// OrGate is the datapath's one combinational OR gate: it drives the MDR's
// load enable from LdMDR and MemRead, per spec §4.3 ("MDR's enable is
// LdMDR OR MemRead"). Like the ALU it is purely combinational — Eval
// recomputes Out every cycle from A and B, nothing to latch.
type OrGate struct {
	A, B Wire
	Out  Wire
}

// Eval recomputes Out from the gate's current inputs.
func (g *OrGate) Eval() {
	g.Out = orWires(g.A, g.B)
}

// boolWire renders a control signal (a plain Go bool, since control
// signals are decided by the microcode rather than carried on a datapath
// wire of their own) as a one-bit Wire for feeding into a gate.
func boolWire(b bool) Wire {
	if b {
		return KnownWire(1)
	}
	return KnownWire(0)
}

// RegFile is the 16x8 register file. sel packs two 4-bit addresses: the
// high nibble addresses A (the read/write port), the low nibble
// addresses B (read-only). OutA/OutB present the current contents of
// those two addresses; on the cycle edge, if WriteEn was asserted, A's
// register receives DataIn.
type RegFile struct {
	regs [16]byte

	OutA, OutB Wire
	nextA      byte
	writeA     bool
}

// Read computes OutA/OutB from sel for the current cycle.
func (rf *RegFile) Read(sel byte) {
	rf.OutA = KnownWire(rf.regs[sel>>4])
	rf.OutB = KnownWire(rf.regs[sel&0x0F])
}

// Write stages a write to register A (the high nibble of the most
// recent Read's sel) for the next cycle edge.
func (rf *RegFile) Write(sel byte, dataIn Wire, writeEn bool) {
	rf.writeA = false
	if !writeEn {
		return
	}
	if v, ok := dataIn.Value(); ok {
		rf.nextA = v
		rf.writeA = true
	}
	_ = sel
}

// Transition commits any staged write.
func (rf *RegFile) Transition(sel byte) {
	if rf.writeA {
		rf.regs[sel>>4] = rf.nextA
		rf.writeA = false
	}
}

// Get reads a register directly, for observability snapshots.
func (rf *RegFile) Get(i byte) byte { return rf.regs[i&0x0F] }

// ALU is purely combinational: Eval recomputes Out and Flags from A, B,
// Op every cycle. It delegates the actual truth table to isa.ALUOp so
// the VM and the simulator can never disagree on flag semantics.
type ALU struct {
	A, B Wire
	Op   isa.ALUOp
	Out  Wire
}

// Eval recomputes Out and the new flags from the current A, B, Op, and
// the flags register's current value (for ops that leave C/V alone).
// Per the datapath spec, an unknown operand yields an unknown Out and
// leaves flags untouched.
func (a *ALU) Eval(prevFlags isa.Flags) isa.Flags {
	av, aok := a.A.Value()
	bv, bok := a.B.Value()
	if !aok || !bok {
		a.Out = UnknownWire
		return prevFlags
	}
	result, flags := a.Op.Eval(av, bv, prevFlags)
	a.Out = KnownWire(result)
	return flags
}

// Memory is the 256-cell byte-addressable store shared by program and
// data. DataOut presents the addressed cell during the cycle; a write,
// if enabled, commits at the cycle edge.
type Memory struct {
	cells isa.Image

	DataOut      Wire
	nextAddr     byte
	nextData     byte
	pendingWrite bool
}

// Load initializes memory from img (the assembler/loader's output).
func (m *Memory) Load(img isa.Image) {
	m.cells = img
}

// Read computes DataOut for addr during the current cycle.
func (m *Memory) Read(addr Wire) {
	v, ok := addr.Value()
	if !ok {
		m.DataOut = UnknownWire
		return
	}
	m.DataOut = KnownWire(m.cells[v])
}

// Write stages a write for the next cycle edge.
func (m *Memory) Write(addr, dataIn Wire, writeEn bool) {
	m.pendingWrite = false
	if !writeEn {
		return
	}
	a, aok := addr.Value()
	d, dok := dataIn.Value()
	if aok && dok {
		m.nextAddr, m.nextData = a, d
		m.pendingWrite = true
	}
}

// Transition commits a staged write.
func (m *Memory) Transition() {
	if m.pendingWrite {
		m.cells[m.nextAddr] = m.nextData
		m.pendingWrite = false
	}
}

// Snapshot returns the current 256-byte memory image, for observability
// and for the final post-halt dump.
func (m *Memory) Snapshot() isa.Image { return m.cells }
