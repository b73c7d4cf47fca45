package main

import (
	"flag"
	"log"

	"github.com/aussiebroadwan/campus/internal/portal/app"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml); environment variables take precedence")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
