// Command vectrace replays a vector workload and reports how length,
// capacity and the allocator evolved.
//
//	vectrace -ops workload.txt [-mmap] [-budget N] [-port 8080] [-v]
//
// Each workload line is one operation: push V, pop, reserve N, resize N V,
// at I, clear, clone, release. Blank lines and lines starting with # are
// skipped.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/funny-falcon/vector/alloc"
)

var opsfile = flag.String("ops", "-", "workload file, - for stdin")
var useMmap = flag.Bool("mmap", false, "take buffers from anonymous mmap")
var budget = flag.Int("budget", 0, "fail allocations beyond this many slots, 0 for no limit")
var port = flag.String("port", "", "serve the report over HTTP on this port instead of printing it")
var verbose = flag.Bool("v", false, "log every allocate and deallocate")

var config = jsoniter.Config{
	OnlyTaggedField: true,
	CaseSensitive:   true,
}.Froze()

func main() {
	log.SetFlags(log.Lmicroseconds | log.Lshortfile)
	flag.Parse()

	var in io.Reader = os.Stdin
	if *opsfile != "-" {
		f, err := os.Open(*opsfile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}
	ops, err := Load(in)
	if err != nil {
		log.Fatal(err)
	}

	counting := alloc.NewCounting(baseAllocator())
	if *verbose {
		counting.Log = log.New(os.Stderr, "alloc ", log.Lmicroseconds)
	}
	report := Replay(ops, counting)
	log.Printf("replayed %d ops, len %d cap %d, peak %d bytes",
		len(report.Steps), report.Final.Len(), report.Final.Cap(), report.Stats.PeakBytes)

	if *port == "" {
		if err := writeReport(os.Stdout, report); err != nil {
			log.Fatal(err)
		}
		return
	}

	log.Printf("serving report on :%s", *port)
	err = fasthttp.ListenAndServe(":"+*port, handler(report))
	if err != nil {
		log.Fatal(err)
	}
}

func baseAllocator() alloc.Allocator[int64] {
	var a alloc.Allocator[int64] = alloc.Heap[int64]{}
	if *useMmap {
		a = alloc.Mmap[int64]{}
	}
	if *budget > 0 {
		a = alloc.NewBudget(a, *budget)
	}
	return a
}

func writeReport(w io.Writer, report *Report) error {
	out, err := config.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	if _, err = w.Write(append(out, '\n')); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}
