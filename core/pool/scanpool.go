package pool

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/chainreactors/logs"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
)

// NewScanPool probes TCP ports on a single host. Unlike the lane pool it
// shares one limiter across all workers, the connect attempts are cheap
// enough that per-worker pacing buys nothing.
func NewScanPool(ctx context.Context, host string, rateLimit int, timeout time.Duration) (*ScanPool, error) {
	pctx, cancel := context.WithCancel(ctx)
	pool := &ScanPool{
		host:    host,
		timeout: timeout,
		ctx:     pctx,
		Cancel:  cancel,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		wg:      &sync.WaitGroup{},
	}
	p, err := ants.NewPoolWithFunc(rateLimit, pool.Invoke)
	if err != nil {
		cancel()
		return nil, err
	}
	pool.Pool = p
	return pool, nil
}

type ScanPool struct {
	Pool    *ants.PoolWithFunc
	Cancel  context.CancelFunc
	host    string
	timeout time.Duration
	ctx     context.Context
	limiter *rate.Limiter
	wg      *sync.WaitGroup
	mu      sync.Mutex
	open    []string
}

func (pool *ScanPool) Run(ports []string) []string {
	for _, port := range ports {
		if pool.ctx.Err() != nil {
			break
		}
		pool.wg.Add(1)
		if err := pool.Pool.Invoke(port); err != nil {
			pool.wg.Done()
		}
	}
	pool.wg.Wait()
	pool.Pool.Release()

	sort.Strings(pool.open)
	return pool.open
}

func (pool *ScanPool) Invoke(v interface{}) {
	defer pool.wg.Done()
	port := v.(string)
	if err := pool.limiter.Wait(pool.ctx); err != nil {
		return
	}

	addr := net.JoinHostPort(pool.host, port)
	conn, err := net.DialTimeout("tcp", addr, pool.timeout)
	if err != nil {
		logs.Log.Debugf("%s, %s", addr, err.Error())
		return
	}
	_ = conn.Close()
	logs.Log.Console(fmt.Sprintf("%s open\n", addr))
	pool.mu.Lock()
	pool.open = append(pool.open, port)
	pool.mu.Unlock()
}
