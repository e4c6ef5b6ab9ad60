package main

import (
	"flag"
	"log"
	"os"

	"github.com/anupcshan/netmac/intelhex"
)

func main() {
	flag.Parse()

	log.SetFlags(log.Lmicroseconds | log.Lshortfile)

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	defer f.Close()

	parser := intelhex.NewParser(f)
	for parser.HasNext() {
		if err := parser.ReadRecord(); err != nil {
			log.Fatal(err)
		}
	}

	var payloadSum uint16
	var bad int
	for _, rec := range parser.Records {
		if !rec.Valid() {
			log.Printf("Line %d: mismatched checksum %02X", rec.Line+1, rec.Checksum)
			bad++
		}
		if rec.IsData() {
			for _, b := range rec.PayloadBytes() {
				payloadSum += uint16(b)
			}
		}
	}

	log.Printf("Payload checksum: %04x, %d bad records", payloadSum, bad)
}
