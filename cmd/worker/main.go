package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <digest|seed|migrate> [args]")
	}

	var err error
	switch os.Args[1] {
	case "digest":
		err = RunDigest(os.Args[2:])
	case "seed":
		err = RunSeed(os.Args[2:])
	case "migrate":
		err = RunMigrate(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}
