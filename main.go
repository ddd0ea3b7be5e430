package main

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/alecthomas/kong"

	"picproc/cmd/quantize"
	"picproc/orient"
	"picproc/parallel"
)

type cli struct {
	Workers  int             `help:"Number of worker goroutines for batch operations" default:"0"`
	Quantize quantize.CLICmd `cmd:"" help:"Reduce a folder of images to an indexed palette, with optional dithering"`
	Orient   orient.CLICmd   `cmd:"" help:"Sort a folder of images into portrait/landscape subfolders"`
}

func main() {
	var c cli
	kctx := kong.Parse(&c)

	workers := c.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool := parallel.Start(workers)
	defer pool.Close()

	err := kctx.Run(pool)
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
