package main

import (
	"flag"
	"log"

	"github.com/go-socialgate/socialgate/internal/bootstrap"
	"github.com/go-socialgate/socialgate/internal/config"
	"github.com/go-socialgate/socialgate/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		version.PrintVersion()
		return
	}

	cfg := config.Load()
	if err := bootstrap.Run(cfg); err != nil {
		log.Fatalf("[Main] Failed to start: %v", err)
	}
}
