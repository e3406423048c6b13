// Command bench measures the digest rate and the search time of a single worker.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/miner"
	"github.com/spacemeshos/blockminer/shared"
	"github.com/spacemeshos/blockminer/transport"
)

const digests = 1 << 20

func main() {
	runtime.MemProfileRate = 0
	println("Memory profiling disabled.")

	cfg, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}

	if cfg.CPU {
		dir, err := os.Getwd()
		if err != nil {
			log.Fatal("cant get current dir", err)
		}

		profFilePath := path.Join(dir, "./CPU.prof")
		fmt.Printf("CPU profile: %s\n", profFilePath)

		f, err := os.Create(profFilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()

		println("Cpu profiling enabled and started...")
	}

	content := make([]byte, cfg.Size)
	for i := range content {
		content[i] = 'a' + byte(i%26)
	}
	template, err := shared.NewTemplate(content)
	if err != nil {
		log.Fatal("invalid content size: ", err)
	}
	fmt.Printf("block size: %d, zeros: %d\n", template.Len(), cfg.Zeros)

	t1 := time.Now()
	for i := uint32(0); i < digests; i++ {
		template.SetCounter(i % shared.CounterSpace)
		_ = shared.Sha256Hex(template.Bytes())
	}
	e := time.Since(t1)
	fmt.Printf("%d digests in %s (%.0f digests-per-sec)\n", digests, e, digests/e.Seconds())

	ctx := logging.NewContext(context.Background(), logging.New(zap.WarnLevel, logging.FileConfig{}, false))
	var total time.Duration
	for run := 0; run < cfg.Runs; run++ {
		ch := transport.NewInMemory()
		w, err := miner.New(run, content, cfg.Zeros, ch)
		if err != nil {
			log.Fatal("invalid worker parameters: ", err)
		}
		t1 = time.Now()
		if err := w.Run(ctx); err != nil {
			log.Fatal("search failed: ", err)
		}
		e = time.Since(t1)
		total += e
		block, err := ch.Receive(ctx, template.Len())
		if err != nil {
			log.Fatal("no result: ", err)
		}
		fmt.Printf("run %d: %s in %s\n", run, block[len(content):], e)
	}
	if cfg.Runs > 0 {
		fmt.Printf("mean search time: %s\n", total/time.Duration(cfg.Runs))
	}
}
