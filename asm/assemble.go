// Package asm implements the SIMPLE-ISA assembler: a single forward pass
// over the token stream with label backpatching, emitting the 256-byte
// image the VM and simulator both consume.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"simpleisa/isa"
)

// Result is the output of a successful assemble: the unpadded program
// bytes (for the .hex dump) and the zero-padded 256-byte image.
type Result struct {
	Program []byte
	Image   isa.Image
}

// Assemble lowers SIMPLE-ISA source text to a byte stream per the
// encoding rules in the opcode shape table, resolving labels with a
// single pass and backpatching forward references.
func Assemble(source string) (Result, error) {
	toks := tokenize(source)

	var out []byte
	labels := map[string]int{}
	// waiting maps a still-unresolved label name to every output offset
	// that emitted a placeholder byte pending that label's address.
	waiting := map[string][]int{}

	emitConstOrLabel := func(tok token) error {
		text := tok.text
		if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
			v, err := strconv.ParseUint(text[2:], 16, 8)
			if err != nil {
				return fmt.Errorf("%w: %q at line %d", isa.ErrIllegalToken, text, tok.line)
			}
			out = append(out, byte(v))
			return nil
		}
		// Bare identifier: a label reference, resolved now if already
		// defined, else backpatched when its definition is seen.
		if addr, ok := labels[text]; ok {
			out = append(out, byte(addr))
			return nil
		}
		waiting[text] = append(waiting[text], len(out))
		out = append(out, 0x00)
		return nil
	}

	next := func(i *int) (token, bool) {
		if *i >= len(toks) {
			return token{}, false
		}
		t := toks[*i]
		*i++
		return t, true
	}

	requireRegister := func(i *int) (int, error) {
		t, ok := next(i)
		if !ok {
			return 0, isa.ErrUnexpectedEOF
		}
		n, ok := isRegister(t.text)
		if !ok || n >= 16 {
			return 0, fmt.Errorf("%w: %q at line %d", isa.ErrIllegalToken, t.text, t.line)
		}
		return n, nil
	}

	requireConst := func(i *int) error {
		t, ok := next(i)
		if !ok {
			return isa.ErrUnexpectedEOF
		}
		return emitConstOrLabel(t)
	}

	for i := 0; i < len(toks); {
		t := toks[i]
		i++

		if isLabelDef(t.text) {
			name := t.text[:len(t.text)-1]
			addr := len(out)
			labels[name] = addr
			for _, offset := range waiting[name] {
				out[offset] = byte(addr)
			}
			delete(waiting, name)
			continue
		}

		op, ok := isa.LookupMnemonic(t.text)
		if !ok {
			return Result{}, fmt.Errorf("%w: %q at line %d", isa.ErrIllegalToken, t.text, t.line)
		}
		shape, _ := op.Shape()
		out = append(out, byte(op))

		switch shape {
		case isa.ShapeNone:
			// opcode only

		case isa.ShapeReg:
			rx, err := requireRegister(&i)
			if err != nil {
				return Result{}, err
			}
			out = append(out, byte(rx<<4))

		case isa.ShapeRegReg:
			ra, err := requireRegister(&i)
			if err != nil {
				return Result{}, err
			}
			rb, err := requireRegister(&i)
			if err != nil {
				return Result{}, err
			}
			out = append(out, byte(ra<<4|rb))

		case isa.ShapeRegConst:
			rx, err := requireRegister(&i)
			if err != nil {
				return Result{}, err
			}
			out = append(out, byte(rx<<4))
			if err := requireConst(&i); err != nil {
				return Result{}, err
			}

		case isa.ShapeConst:
			if err := requireConst(&i); err != nil {
				return Result{}, err
			}
		}
	}

	if len(waiting) > 0 {
		names := make([]string, 0, len(waiting))
		for name := range waiting {
			names = append(names, name)
		}
		return Result{}, fmt.Errorf("%w: %s", isa.ErrMissingLabel, strings.Join(names, ", "))
	}

	if len(out) > isa.MemorySize {
		return Result{}, fmt.Errorf("%w: %d", isa.ErrProgramTooLarge, len(out))
	}

	var img isa.Image
	copy(img[:], out)
	return Result{Program: out, Image: img}, nil
}
