package probe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kvwire/kvnet/pkg/env"
	"github.com/kvwire/kvnet/pkg/transport"
)

// PingOptions configures RunPing.
type PingOptions struct {
	Kind     env.Kind
	Dial     transport.DialConfig
	Count    int // total PINGs, each on a fresh connection
	Parallel int // connections open at once
}

// PingResult summarizes RunPing.
type PingResult struct {
	Sent      int
	Succeeded int
	Errors    []error
	Latencies []time.Duration // sorted, successful round trips only
}

// Percentile returns the p-th percentile latency (0 < p <= 100).
func (r PingResult) Percentile(p float64) time.Duration {
	if len(r.Latencies) == 0 {
		return 0
	}
	i := int(float64(len(r.Latencies))*p/100+0.5) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(r.Latencies) {
		i = len(r.Latencies) - 1
	}
	return r.Latencies[i]
}

// RunPing opens Count connections, at most Parallel at a time, and sends
// one PING over each. The connect, the round trip and the close are all
// timed together.
func RunPing(ctx context.Context, e env.Environment, opts PingOptions) (PingResult, error) {
	if opts.Count < 1 {
		opts.Count = 1
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}

	slots := e.Semaphore(opts.Parallel)
	var (
		mu  sync.Mutex
		res = PingResult{Sent: opts.Count}
		wg  sync.WaitGroup
	)

	for i := 0; i < opts.Count; i++ {
		if err := slots.Acquire(ctx); err != nil {
			res.Sent = i
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer slots.Release()

			d, err := pingOnce(ctx, e, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors = append(res.Errors, err)
				return
			}
			res.Succeeded++
			res.Latencies = append(res.Latencies, d)
		}()
	}
	wg.Wait()

	sort.Slice(res.Latencies, func(i, j int) bool { return res.Latencies[i] < res.Latencies[j] })
	if res.Succeeded == 0 && len(res.Errors) > 0 {
		return res, errors.Join(res.Errors...)
	}
	return res, ctx.Err()
}

func pingOnce(ctx context.Context, e env.Environment, opts PingOptions) (time.Duration, error) {
	start := time.Now()

	conn, err := e.Socket(ctx, opts.Kind, opts.Dial)
	if err != nil {
		return 0, err
	}
	s := NewSession(conn, e.Lock(), 0)
	defer s.Close()

	reply, err := s.Do(ctx, "PING")
	if err != nil {
		return 0, err
	}
	if reply.IsError() {
		return 0, fmt.Errorf("PING: %s", reply.Str)
	}
	return time.Since(start), nil
}
