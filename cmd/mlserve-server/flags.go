package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
)

type Flags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	Version    bool
}

func ParseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigFile, "config", "", "Path to configuration file")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flag.StringVar(&flags.LogFormat, "log-format", "", "Log format override (json, text)")
	flag.BoolVar(&flags.Version, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nModel Serving Runtime\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flags.Version {
		fmt.Printf("mlserve-server %s (commit %s, built %s, %s %s/%s)\n",
			Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	return flags
}
