package main

import (
	"context"
	"flag"
	"log"

	"neongrid/server/internal/app"
)

func main() {
	clientDir := flag.String("client", "", "directory of static client assets to serve")
	flag.Parse()

	if err := app.Run(context.Background(), app.Config{ClientDir: *clientDir}); err != nil {
		log.Fatalf("%v", err)
	}
}
