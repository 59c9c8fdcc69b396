package main

import (
	"log"

	"refhub_backend/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("application failed: %v", err)
	}
}
