// Command bufferpool-demo loads a pool config, pins and writes a
// handful of pages, flushes, and prints statistics. It is a
// demonstration entrypoint, not a harness or REPL, grounded on the
// teacher's own src/cmd/main.go.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/smalldb/bufferpool/internal/bufferpool"
	"github.com/smalldb/bufferpool/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config.yaml>\n", os.Args[0])
		os.Exit(2)
	}

	log := logrus.StandardLogger()

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		log.Fatalf("parse strategy: %v", err)
	}

	if _, err := os.Stat(cfg.Pool.File); os.IsNotExist(err) {
		if err := bufferpool.CreatePageFile(cfg.Pool.File); err != nil {
			log.Fatalf("create page file: %v", err)
		}
	}

	pool, err := bufferpool.NewPool(cfg.Pool.File, cfg.Pool.NumFrames, strategy, nil, log)
	if err != nil {
		log.Fatalf("init buffer pool: %v", err)
	}

	for i := 0; i < 3; i++ {
		h, err := pool.Pin(i)
		if err != nil {
			log.Fatalf("pin page %d: %v", i, err)
		}
		copy(h.Buffer, fmt.Sprintf("page-%d", i))
		if err := pool.MarkDirty(h); err != nil {
			log.Fatalf("mark dirty page %d: %v", i, err)
		}
		if err := pool.Unpin(h); err != nil {
			log.Fatalf("unpin page %d: %v", i, err)
		}
	}

	if err := pool.FlushPool(); err != nil {
		log.Fatalf("flush pool: %v", err)
	}

	fmt.Printf("frames:  %v\n", pool.FrameContents())
	fmt.Printf("dirty:   %v\n", pool.DirtyFlags())
	fmt.Printf("pins:    %v\n", pool.FixCounts())
	fmt.Printf("reads:   %d\n", pool.NumReadIO())
	fmt.Printf("writes:  %d\n", pool.NumWriteIO())

	if err := pool.Shutdown(); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
