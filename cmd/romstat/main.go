// Command romstat prints the iNES header fields and resolved mapper for a
// ROM without running it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ktakagaki/nescore/internal/mapper"
	"github.com/ktakagaki/nescore/internal/rom"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s <rom-path>\n", os.Args[0])
		os.Exit(2)
	}

	img, err := rom.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	h := img.Header
	fmt.Printf("file:      %s\n", flag.Arg(0))
	fmt.Printf("prg:       %d x 16 KiB (%d bytes)\n", h.PRGBanks(), len(img.PRG))
	if img.CHRRAM {
		fmt.Printf("chr:       8 KiB RAM\n")
	} else {
		fmt.Printf("chr:       %d x 8 KiB (%d bytes)\n", h.CHRBanks(), len(img.CHR))
	}
	fmt.Printf("mapper:    %d\n", h.MapperID())
	fmt.Printf("mirroring: %s\n", h.Mirroring())
	fmt.Printf("battery:   %v\n", h.HasBattery())
	fmt.Printf("trainer:   %v\n", h.HasTrainer())

	if _, err := mapper.New(img); err != nil {
		if errors.Is(err, mapper.ErrUnsupported) {
			fmt.Printf("supported: no (%v)\n", err)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("supported: yes\n")
}
