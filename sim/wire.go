// Package sim implements the cycle-accurate SIMPLE-ISA datapath: a
// netlist of discrete hardware elements (registers, an ALU, a register
// file, memory, muxes, an OR gate) driven by a microcoded Moore
// controller. It is the reference semantics; package vm is a faster,
// observationally equivalent interpreter over the same ISA.
package sim

// Wire carries either a known n-bit value or "unknown", as an explicit
// optional value rather than an untyped nil. Combinational elements
// propagate Unknown inputs to Unknown outputs.
type Wire struct {
	value   byte
	unknown bool
}

// UnknownWire is the zero-information wire state.
var UnknownWire = Wire{unknown: true}

// KnownWire constructs a wire carrying v.
func KnownWire(v byte) Wire { return Wire{value: v} }

// Known reports whether the wire carries a defined value.
func (w Wire) Known() bool { return !w.unknown }

// Value returns the carried value and whether it was known. Reading an
// unknown wire returns (0, false); callers that need a concrete byte for
// arithmetic must check Known first.
func (w Wire) Value() (byte, bool) {
	if w.unknown {
		return 0, false
	}
	return w.value, true
}

// combine2 applies f to two input wires, propagating Unknown if either
// input is unknown. The OR gate uses it; the ALU checks its operands
// itself before calling isa.ALUOp.Eval.
func combine2(a, b Wire, f func(a, b byte) byte) Wire {
	av, aok := a.Value()
	bv, bok := b.Value()
	if !aok || !bok {
		return UnknownWire
	}
	return KnownWire(f(av, bv))
}
