package main

import (
	"os"

	"cssvars.dev/cvls/internal/config"
	"cssvars.dev/cvls/internal/log"
	"cssvars.dev/cvls/lsp"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Error("configuration: %v", err)
		os.Exit(2)
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))

	server := lsp.NewServer(cfg)

	// stdio transport, for editors
	if err := server.RunStdio(); err != nil {
		log.Error("server error: %v", err)
		os.Exit(1)
	}
}
