package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/curately/groundtruth-backend/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	_ = godotenv.Load()

	a, err := app.New(*configPath)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		a.Log.Fatal("Server exited", "error", err)
	}
}
