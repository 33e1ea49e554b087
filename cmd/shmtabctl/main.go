// Command shmtabctl attaches to a named shmtab region and reports what
// it finds, without altering the calling process's role as owner or
// attacher. It only understands the uint64->uint64 HashTable
// instantiation, since a generic container has no single wire format a
// standalone binary could introspect without knowing K and V ahead of
// time.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dstroots/shmtab"
	"github.com/dstroots/shmtab/region"
)

type table = shmtab.HashTable[uint64, uint64, shmtab.ComparableHasher[uint64], shmtab.ComparableEqual[uint64], shmtab.RollbackOff]

func main() {
	name := flag.String("name", "", "region name to attach to")
	capacity := flag.Int("capacity", 1024, "capacity to use if this process creates the region")
	destroy := flag.Bool("destroy", false, "remove the region after inspecting it")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: shmtabctl -name=<region> [-capacity=N] [-destroy]")
		os.Exit(2)
	}

	spec, err := shmtab.HashTableSpec[uint64, uint64, shmtab.ComparableHasher[uint64], shmtab.ComparableEqual[uint64], shmtab.RollbackOff](*capacity)
	if err != nil {
		logger.Error("invalid capacity", "error", err)
		os.Exit(1)
	}

	storage, status, err := shmtab.Open[*table](*name, spec, shmtab.WithRegionProvider(&region.POSIXProvider{}))
	if err != nil {
		logger.Error("open region", "name", *name, "error", err)
		os.Exit(1)
	}
	if !status.OK() {
		logger.Error("bind region", "name", *name, "status", status.String())
		os.Exit(1)
	}
	defer storage.Close()

	stats := storage.Value().Stats()
	fmt.Printf("region:     %s\n", *name)
	fmt.Printf("capacity:   %d\n", stats.Capacity)
	fmt.Printf("ready:      %d\n", stats.Ready)
	fmt.Printf("accessing:  %d\n", stats.Accessing)
	fmt.Printf("inserting:  %d\n", stats.Inserting)
	fmt.Printf("empty:      %d\n", stats.Empty)
	fmt.Printf("load:       %.2f\n", stats.LoadFactor)

	if *destroy {
		if err := storage.Destroy(); err != nil {
			logger.Error("destroy region", "name", *name, "error", err)
			os.Exit(1)
		}
		fmt.Printf("destroyed:  %s\n", *name)
	}
}
