package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/anupcshan/netmac/macdefaults"
	"github.com/anupcshan/netmac/membuf"
)

func main() {
	in := flag.String("in", "", "Input hex file")
	out := flag.String("out", "", "Output hex file")
	oldPattern := flag.String("old", macdefaults.Net.Old.String(), "Hex bytes to search for")
	newPattern := flag.String("new", macdefaults.Net.New.String(), "Hex bytes to write, same length as -old")

	flag.Parse()

	log.SetFlags(log.Lmicroseconds | log.Lshortfile)

	var updateCfg membuf.UpdateConfig
	var err error
	if updateCfg.Old, err = membuf.ParsePattern(*oldPattern); err != nil {
		log.Fatal(err)
	}
	if updateCfg.New, err = membuf.ParsePattern(*newPattern); err != nil {
		log.Fatal(err)
	}

	if *out == "" {
		*out = "Net" + updateCfg.New.String() + ".hex"
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal(err)
	}

	outF, err := os.CreateTemp(filepath.Dir(*out), ".hexsed-*")
	if err != nil {
		log.Fatal(err)
	}

	_, err = membuf.Patch(f, outF, &updateCfg)
	_ = f.Close()
	_ = outF.Close()
	if err != nil {
		_ = os.Remove(outF.Name())
		log.Fatal(err)
	}

	if err := os.Rename(outF.Name(), *out); err != nil {
		_ = os.Remove(outF.Name())
		log.Fatal(err)
	}
}
