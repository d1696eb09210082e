// Package vm implements the SIMPLE-ISA interpreter: a tight
// fetch-decode-execute loop over the 256-byte image, the fastest of the
// two observationally-equivalent execution engines (the other being
// package sim's cycle-accurate datapath).
package vm

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"

	"simpleisa/isa"
)

// VM holds the full machine state: the 256-byte memory, the 16-register
// file, the flags register, and the program counter.
type VM struct {
	Mem  isa.Image
	Reg  [16]byte
	PC   byte
	Flag isa.Flags

	halted bool
}

// New creates a VM with memory initialized from img. Registers, flags,
// and PC all reset to zero, per the data model's lifecycle rule.
func New(img isa.Image) *VM {
	return &VM{Mem: img}
}

// fetch reads the byte at PC and advances PC by one. PC is an unmasked
// byte so the advance wraps modulo 256 for free, satisfying the PC
// wraparound invariant without an explicit mod.
func (v *VM) fetch() byte {
	b := v.Mem[v.PC]
	v.PC++
	return b
}

// Run executes instructions until END or an invalid opcode is reached.
// Like the bytecode interpreter this one descends from, it disables the
// garbage collector for the duration of the run: the image and register
// file are allocated up front, so nothing in the fetch-decode-execute
// loop itself should trigger a GC pause.
func (v *VM) Run() error {
	original := currentGCPercent()
	debug.SetGCPercent(-1)
	defer debug.SetGCPercent(original)

	for !v.halted {
		if err := v.step(); err != nil {
			return err
		}
	}
	return nil
}

func currentGCPercent() int {
	if val, ok := os.LookupEnv("GOGC"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return 100
}

func (v *VM) step() error {
	opcode := isa.Opcode(v.fetch())

	if opcode == isa.NOP {
		return nil
	}
	if opcode == isa.END {
		v.halted = true
		return nil
	}

	shape, ok := opcode.Shape()
	if !ok {
		return fmt.Errorf("%w: 0x%02X", isa.ErrInvalidInstruction, byte(opcode))
	}

	switch shape {
	case isa.ShapeReg:
		rx := v.fetch() >> 4
		v.execReg(opcode, rx)

	case isa.ShapeRegReg:
		operand := v.fetch()
		ra, rb := operand>>4, operand&0x0F
		v.execRegReg(opcode, ra, rb)

	case isa.ShapeRegConst:
		rx := v.fetch() >> 4
		imm := v.fetch()
		v.Reg[rx] = imm

	case isa.ShapeConst:
		imm := v.fetch()
		v.execJump(opcode, imm)
	}
	return nil
}

// execReg executes INC/DEC/NEG/BCM/USR/SSR/USL, all of which read and
// write a single register. INC/DEC drive the ALU's B input with the
// constant 1 (ALUSelB=ONE in the datapath); the others ignore B.
func (v *VM) execReg(op isa.Opcode, rx byte) {
	a := v.Reg[rx]
	aluOp, _ := isa.ALUOpFor(op)
	result, flags := aluOp.Eval(a, 1, v.Flag)
	v.Reg[rx] = result
	v.Flag = flags
}

func (v *VM) execRegReg(op isa.Opcode, ra, rb byte) {
	switch op {
	case isa.MOV:
		v.Reg[ra] = v.Reg[rb]
	case isa.LDM:
		v.Reg[ra] = v.Mem[v.Reg[rb]]
	case isa.STM:
		v.Mem[v.Reg[rb]] = v.Reg[ra]
	default:
		a := v.Reg[ra]
		aluOp, _ := isa.ALUOpFor(op)
		result, flags := aluOp.Eval(a, v.Reg[rb], v.Flag)
		v.Flag = flags
		if op != isa.CMP {
			v.Reg[ra] = result
		}
	}
}

func (v *VM) execJump(op isa.Opcode, target byte) {
	taken := false
	switch op {
	case isa.JMP:
		taken = true
	case isa.JEQ:
		taken = v.Flag.Zero()
	case isa.JUL:
		taken = v.Flag.Carry()
	case isa.JUG:
		taken = !v.Flag.Carry() && !v.Flag.Zero()
	case isa.JSL:
		taken = v.Flag.Negative() != v.Flag.Overflow()
	case isa.JSG:
		taken = !v.Flag.Zero() && v.Flag.Negative() == v.Flag.Overflow()
	}
	if taken {
		v.PC = target
	}
}
