package pool

import (
	"context"
	"sync"
	"time"

	"github.com/chainreactors/logs"
	"github.com/stormloft/pummel/pkg"
	"github.com/stormloft/pummel/pkg/ihttp"
	"golang.org/x/time/rate"
)

// NewLanePool builds a pool of config.Rate lanes. Each lane owns a
// one-request-per-second limiter, so the pool's ceiling is Rate requests
// per second in aggregate.
func NewLanePool(ctx context.Context, config *Config) (*LanePool, error) {
	pctx, cancel := context.WithCancel(ctx)
	pool := &LanePool{
		Config:    config,
		Statistor: pkg.NewStatistor(config.BaseURL),
		ctx:       pctx,
		Cancel:    cancel,
		client: ihttp.NewClient(&ihttp.ClientConfig{
			Thread:      config.Rate,
			Type:        config.ClientType,
			Timeout:     config.Timeout,
			ProxyClient: config.ProxyClient,
		}),
		// capacity-1 queues, the producer stays at most one unit ahead
		submitCh:  make(chan *Unit, 1),
		OutcomeCh: make(chan *pkg.Outcome, 1),
		wg:        &sync.WaitGroup{},
	}
	return pool, nil
}

type LanePool struct {
	*Config
	Statistor *pkg.Statistor
	Bar       *pkg.Bar
	Cancel    context.CancelFunc
	OutcomeCh chan *pkg.Outcome
	client    *ihttp.Client
	ctx       context.Context
	submitCh  chan *Unit
	wg        *sync.WaitGroup
}

func (pool *LanePool) Run() {
	for i := 0; i < pool.Rate; i++ {
		pool.wg.Add(1)
		go pool.lane()
	}
}

// Submit hands a unit to whichever lane drains the queue first. Returns
// false once the pool context is cancelled.
func (pool *LanePool) Submit(u *Unit) bool {
	select {
	case pool.submitCh <- u:
		return true
	case <-pool.ctx.Done():
		return false
	}
}

// CloseSubmit signals the lanes that no further units are coming. The lanes
// finish their in-flight work before exiting.
func (pool *LanePool) CloseSubmit() {
	close(pool.submitCh)
}

func (pool *LanePool) Join() {
	pool.wg.Wait()
}

// Done reports pool-internal cancellation, independent of the caller context.
func (pool *LanePool) Done() <-chan struct{} {
	return pool.ctx.Done()
}

func (pool *LanePool) Close() {
	pool.Cancel()
	if pool.Bar != nil {
		pool.Bar.Close()
	}
}

func (pool *LanePool) lane() {
	defer pool.wg.Done()
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	for {
		select {
		case unit, ok := <-pool.submitCh:
			if !ok {
				return
			}
			if err := limiter.Wait(pool.ctx); err != nil {
				return
			}
			pool.execute(unit)
		case <-pool.ctx.Done():
			return
		}
	}
}

func (pool *LanePool) execute(unit *Unit) {
	candidate := unit.candidate
	uri := candidate.URL.String()

	var outcome *pkg.Outcome
	for attempt := 0; ; attempt++ {
		req, err := ihttp.BuildRequest(pool.ctx, pool.ClientType, candidate.Method, uri, candidate.Host, candidate.Header, candidate.Body)
		if err != nil {
			outcome = pkg.NewFailedOutcome(unit.number, candidate.Word, uri, attempt, err)
			break
		}

		start := time.Now()
		resp, reqerr := pool.client.Do(req)
		if reqerr == nil {
			outcome = pkg.NewOutcome(unit.number, candidate.Word, uri, resp)
			outcome.Spended = time.Since(start).Milliseconds()
			outcome.Retries = attempt
			resp.Release()
			req.Release()
			break
		}
		req.Release()
		logs.Log.Debugf("%s %s, %s", candidate.Word, uri, reqerr.Error())

		if attempt >= pool.RetryLimit {
			outcome = pkg.NewFailedOutcome(unit.number, candidate.Word, uri, attempt, reqerr)
			break
		}
		select {
		case <-time.After(time.Second):
		case <-pool.ctx.Done():
			outcome = pkg.NewFailedOutcome(unit.number, candidate.Word, uri, attempt, pool.ctx.Err())
			pool.send(outcome)
			return
		}
	}

	pool.send(outcome)
}

func (pool *LanePool) send(outcome *pkg.Outcome) {
	select {
	case pool.OutcomeCh <- outcome:
	case <-pool.ctx.Done():
	}
}
