// Command asm assembles SIMPLE-ISA source into a .hex dump and a
// memory.bin image.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"simpleisa/asm"
	"simpleisa/isa"
)

func main() {
	root := &cobra.Command{
		Use:   "asm <source-file>",
		Short: "Assemble SIMPLE-ISA source into a .hex dump and memory.bin",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.SilenceErrors = true
	root.SilenceUsage = true

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", isa.ErrIoFailure, err)
	}

	result, err := asm.Assemble(string(src))
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	hexPath := stem + ".hex"
	if err := isa.WriteHex(hexPath, result.Program); err != nil {
		return err
	}
	if err := isa.WriteBin("memory.bin", result.Image); err != nil {
		return err
	}
	return nil
}
