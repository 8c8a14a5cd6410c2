package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chainreactors/files"
	"github.com/chainreactors/logs"
	"github.com/chainreactors/proxyclient"
	"github.com/expr-lang/expr/vm"
	"github.com/stormloft/pummel/core/pool"
	"github.com/stormloft/pummel/pkg"
	"github.com/stormloft/pummel/pkg/ihttp"
	"github.com/vbauerster/mpb/v8"
)

type Runner struct {
	*Option

	Mode        pool.Mode
	Template    *pkg.Template
	BaseURL     *url.URL
	Wordlist    []string
	Ports       []string
	Criteria    *pkg.Criteria
	Headers     map[string]string
	MatchExpr   *vm.Program
	FilterExpr  *vm.Program
	ProxyClient proxyclient.Dial
	ClientType  int
	OutputCh    chan *pkg.Outcome
	OutWg       *sync.WaitGroup
	OutputFile  *files.File
	Progress    *mpb.Progress
	Total       int
	Color       bool
}

func (r *Runner) PrepareConfig() *pool.Config {
	clientType := r.ClientType
	if clientType == ihttp.Auto {
		// raw skeletons carry arbitrary headers and hosts, the standard
		// client round-trips them most faithfully
		clientType = ihttp.STANDARD
	}
	return &pool.Config{
		BaseURL:     r.Option.URL,
		Rate:        r.Option.Rate,
		Timeout:     time.Duration(r.Option.Timeout) * time.Second,
		RetryLimit:  r.Option.RetryCount,
		ClientType:  clientType,
		ProxyClient: r.ProxyClient,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	if r.Mode == pool.PortMode {
		return r.runPortScan(ctx)
	}
	return r.runBrute(ctx)
}

func (r *Runner) runBrute(ctx context.Context) error {
	config := r.PrepareConfig()
	lanePool, err := pool.NewLanePool(ctx, config)
	if err != nil {
		return err
	}
	lanePool.Statistor.Total = r.Total
	lanePool.Statistor.Offset = r.Option.Offset
	lanePool.Statistor.Word = r.Option.Word
	lanePool.Statistor.Dictionaries = r.Option.Dictionaries
	lanePool.Bar = pkg.NewBar(r.Option.URL, r.Total, r.Progress)

	r.OutputHandler()
	lanePool.Run()

	var produceErr error
	go func() {
		defer lanePool.CloseSubmit()
		produceErr = r.produce(ctx, lanePool)
		if produceErr != nil {
			lanePool.Cancel()
		}
	}()

	collectErr := r.collect(ctx, lanePool)

	lanePool.Join()
	close(r.OutputCh)
	r.OutWg.Wait()
	if r.OutputFile != nil {
		r.OutputFile.Close()
	}
	lanePool.Close()
	if r.Progress != nil {
		r.Progress.Wait()
	}

	lanePool.Statistor.EndTime = time.Now().Unix()
	if !r.Option.NoStat {
		logs.Log.Important(lanePool.Statistor.String())
		logs.Log.Log(pkg.LogVerbose, lanePool.Statistor.CountString())
	}

	if produceErr != nil {
		return produceErr
	}
	return collectErr
}

// produce materializes one candidate per in-window word and hands it to the
// lanes. A skeleton that stops parsing mid-run is fatal.
func (r *Runner) produce(ctx context.Context, lanePool *pool.LanePool) error {
	worder := pool.NewBruteWords(lanePool.Config, r.Wordlist)
	count := 0
	number := 0
	for {
		select {
		case word, ok := <-worder.Output:
			if !ok {
				return nil
			}
			count++
			if count <= r.Option.Offset {
				continue
			}
			// past the window: keep draining so the worder can finish
			if r.Option.Limit > 0 && count > r.Option.Offset+r.Option.Limit {
				continue
			}

			candidate, err := r.Template.Materialize(word, r.BaseURL)
			if err != nil {
				logs.Log.Error(err.Error())
				return err
			}
			for k, v := range r.Headers {
				candidate.Header.Set(k, v)
			}

			number++
			if !lanePool.Submit(pool.NewUnit(number, candidate)) {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// collect consumes exactly Total outcomes, classifies each one and forwards
// the verdict in completion order.
func (r *Runner) collect(ctx context.Context, lanePool *pool.LanePool) error {
	for i := 0; i < r.Total; i++ {
		select {
		case outcome := <-lanePool.OutcomeCh:
			r.classify(outcome)
			lanePool.Statistor.Record(outcome)
			lanePool.Bar.Done()
			r.OutWg.Add(1)
			r.OutputCh <- outcome
		case <-ctx.Done():
			return ctx.Err()
		case <-lanePool.Done():
			return errors.New("pool cancelled before all outcomes arrived")
		}
	}
	return nil
}

// classify assigns the verdict. A transport failure is FAILURE outright; the
// criteria and expressions only ever see received responses.
func (r *Runner) classify(o *pkg.Outcome) {
	if o.IsFailed() {
		return
	}

	if err := r.Criteria.Check(o); err == nil {
		o.IsValid = true
	} else {
		o.Reason = err.Error()
	}

	if r.MatchExpr != nil {
		o.IsValid = pkg.CompareWithExpr(r.MatchExpr, map[string]interface{}{"current": o})
	}
	if o.IsValid && r.FilterExpr != nil && pkg.CompareWithExpr(r.FilterExpr, map[string]interface{}{"current": o}) {
		o.IsValid = false
		o.Reason = pkg.ErrCustomFilter.Error()
	}
}

func (r *Runner) Output(o *pkg.Outcome) {
	var out string
	if r.Option.Json {
		out = o.Json()
	} else {
		out = o.String()
	}
	logs.Log.Console(out + "\n")

	if r.OutputFile != nil {
		r.OutputFile.SafeWrite(o.Json() + "\n")
		r.OutputFile.SafeSync()
	}
}

func (r *Runner) OutputHandler() {
	go func() {
		for o := range r.OutputCh {
			r.Output(o)
			r.OutWg.Done()
		}
	}()
}

func (r *Runner) runPortScan(ctx context.Context) error {
	scanPool, err := pool.NewScanPool(ctx, r.Option.URL, r.Option.Rate, time.Duration(r.Option.Timeout)*time.Second)
	if err != nil {
		return err
	}
	defer scanPool.Cancel()

	start := time.Now()
	open := scanPool.Run(r.Ports)
	if !r.Option.NoStat {
		logs.Log.Important(fmt.Sprintf("[stat] %s took %s, probed %d ports, %d open", r.Option.URL, time.Since(start).Truncate(time.Millisecond), len(r.Ports), len(open)))
	}
	return nil
}
