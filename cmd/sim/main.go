// Command sim runs a .hex or .bin SIMPLE-ISA image on the cycle-accurate
// datapath simulator and prints the post-halt register and memory
// summary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"simpleisa/isa"
	"simpleisa/sim"
)

func main() {
	root := &cobra.Command{
		Use:   "sim <image-file>",
		Short: "Run a .hex or .bin SIMPLE-ISA image on the cycle-accurate simulator",
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

	simulation := sim.New(img)
	if err := simulation.Run(); err != nil {
		return err
	}

	snap := simulation.Snapshot()
	fmt.Printf("halted after %d cycles: pc=0x%02X flags=%s\n", snap.Cycle, snap.PC, snap.Flags)
	for i, r := range snap.Regs {
		fmt.Printf("r%-2d = 0x%02X\n", i, r)
	}

	mem := simulation.Memory.Snapshot()
	fmt.Println("memory:")
	for row := 0; row < isa.MemorySize; row += 16 {
		line := fmt.Sprintf("%02X:", row)
		for _, b := range mem[row : row+16] {
			line += fmt.Sprintf(" %02X", b)
		}
		fmt.Println(line)
	}
	return nil
}
