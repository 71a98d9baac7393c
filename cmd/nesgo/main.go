// Command nesgo runs a ROM in an SDL2 window, or headless for a fixed
// number of frames when exercising the core without a display.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ktakagaki/nescore/internal/console"
	"github.com/ktakagaki/nescore/internal/hostui"
	"github.com/ktakagaki/nescore/internal/logx"
)

func main() {
	logLevel := flag.String("log-level", "warn", "off, error, warn, info, debug or trace")
	logFile := flag.String("log-file", "", "log to this file instead of stdout")
	cpuLog := flag.Bool("cpu-log", false, "enable CPU trace channel")
	ppuLog := flag.Bool("ppu-log", false, "enable PPU trace channel")
	apuLog := flag.Bool("apu-log", false, "enable APU trace channel")
	mapperLog := flag.Bool("mapper-log", false, "enable mapper trace channel")
	headless := flag.Bool("headless", false, "run without a window")
	testFrames := flag.Int("test-frames", 60, "frames to run in headless mode")
	scale := flag.Int("scale", 3, "window scale factor")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <rom-path>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	level, err := logx.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logx.Init(level, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logx.Close()
	logx.Enable(logx.CPU, *cpuLog)
	logx.Enable(logx.PPU, *ppuLog)
	logx.Enable(logx.APU, *apuLog)
	logx.Enable(logx.Mapper, *mapperLog)

	romPath := flag.Arg(0)
	c, err := console.New(romPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	c.Powerup()

	if *headless {
		if err := runHeadless(c, *testFrames); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	shell, err := hostui.New(c, "nesgo - "+romPath, *scale)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer shell.Destroy()

	if err := shell.Loop(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runHeadless renders n frames as fast as possible and reports a checksum
// of the last one, which is enough to spot regressions from scripts.
func runHeadless(c *console.Console, n int) error {
	var sum uint64
	for i := 0; i < n; i++ {
		frame, err := c.RunFrame()
		if err != nil {
			return err
		}
		sum = 0
		for _, b := range frame {
			sum = sum*31 + uint64(b)
		}
	}
	fmt.Printf("ran %d frames, last frame checksum %016x\n", n, sum)
	return nil
}
