package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/anupcshan/netmac/intelhex"
	"github.com/anupcshan/netmac/membuf"
)

// hex2bin writes the concatenated payload of all data records, which is the
// byte stream MAC searches run over.
func main() {
	in := flag.String("in", "", "Input hex file")
	out := flag.String("out", "", "Output bin file (default stdout)")

	flag.Parse()

	log.SetFlags(log.Lmicroseconds | log.Lshortfile)

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal(err)
	}

	parser := intelhex.NewParser(f)
	for parser.HasNext() {
		if err := parser.ReadRecord(); err != nil {
			log.Fatal(err)
		}
	}
	_ = f.Close()

	var outF io.Writer = os.Stdout
	if *out != "" {
		outFile, err := os.OpenFile(*out, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
		if err != nil {
			log.Fatal(err)
		}
		defer outFile.Close()
		outF = outFile
	}

	stream := membuf.NewStream(parser.Records)
	if _, err := outF.Write(stream.Bytes()); err != nil {
		log.Fatal(err)
	}
}
