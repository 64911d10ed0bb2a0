// chandump prints the mix kernels available on this machine and the samples
// found in sample files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chriskillpack/chanmix"
	"github.com/chriskillpack/chanmix/source"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("chandump: ")
	flag.Parse()

	m, err := chanmix.Default()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Kernels:\t%s\n", strings.Join(chanmix.Kernels(), " "))
	fmt.Printf("Selected:\t%s (width %d)\n", m.Kernel().Name(), m.Kernel().Width())
	fmt.Printf("Formats:\t%s\n", strings.Join(source.Formats(), " "))

	for _, path := range flag.Args() {
		bank, err := source.Load(path)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println()
		if err := bank.Dump(os.Stdout); err != nil {
			log.Fatal(err)
		}
	}
}
