package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/veandco/go-sdl2/sdl"

	"halcyon/cart"
	"halcyon/emu"
	"halcyon/emu/rpc"
	"halcyon/hw/input"
)

// emuMain runs the emulator with the given rom.
func emuMain(args Run) {
	var exitcode int
	sdl.Main(func() {
		rom, err := cart.Open(args.RomPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading ROM: %s\n", err)
			exitcode = 1
			return
		}

		cfg := emu.LoadConfigOrDefault()
		cfg.Video.Monitor = args.Monitor
		cfg.WavOut = args.Wav
		if args.Trace != nil {
			cfg.TraceOut = args.Trace
			defer args.Trace.Close()
		}

		emulator, err := emu.Launch(rom, args.RomPath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
			exitcode = 1
			return
		}

		if args.CPUProfile != "" {
			f, err := os.Create(args.CPUProfile)
			checkf(err, "failed to create cpu profile file")
			checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
			defer func() {
				pprof.StopCPUProfile()
				f.Close()
				fmt.Println("CPU profile written to", args.CPUProfile)
			}()
		}

		if args.Port != 0 {
			server, err := rpc.NewServer(args.Port, emulator)
			if err != nil {
				fmt.Fprintf(os.Stderr, "RPC error: %v\n", err)
				exitcode = 1
				return
			}
			defer server.Close()
		}

		emulator.Run()
	})
	os.Exit(exitcode)
}

func captureMain(args Capture) {
	sdl.Main(func() {
		code, err := input.Capture(args.Button)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error capturing input: %v\n", err)
			os.Exit(1)
		}
		out, err := code.MarshalText()
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal text error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s", out)
		os.Exit(0)
	})
}
