package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"halcyon/cart"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case runMode:
		emuMain(cfg.Run)
	case romInfosMode:
		rom, err := cart.Open(cfg.RomInfos.RomPath)
		checkf(err, "failed to open rom")
		rom.PrintInfos(os.Stdout)
	case versionMode:
		printVersion()
	case captureMode:
		captureMain(cfg.Capture)
	}
}

func printVersion() {
	version := "devel"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("halcyon", version)
}
