// Command vm runs a .hex or .bin SIMPLE-ISA image on the fetch-decode-
// execute interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"simpleisa/isa"
	"simpleisa/vm"
)

func main() {
	root := &cobra.Command{
		Use:   "vm <image-file>",
		Short: "Run a .hex or .bin SIMPLE-ISA image on the VM interpreter",
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
	img, err := isa.LoadImage(args[0])
	if err != nil {
		return err
	}

	machine := vm.New(img)
	if err := machine.Run(); err != nil {
		return err
	}

	fmt.Printf("halted: pc=0x%02X flags=%s\n", machine.PC, machine.Flag)
	for i, r := range machine.Reg {
		fmt.Printf("r%-2d = 0x%02X\n", i, r)
	}
	return nil
}
