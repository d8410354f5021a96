package main

import (
	"context"
	"log"

	"github.com/Apurer/storelink-fic-sync/internal/app/worker"
)

func main() {
	if err := worker.Run(context.Background()); err != nil {
		log.Fatalf("order sync worker failed: %v", err)
	}
}
