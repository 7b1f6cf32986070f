// Package match identifies features by comparing their mass and NET with
// those of a set of comparison features, scoring every candidate with the
// SLiC score.
package match

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/524D/slicmatch/internal/feature"
	"github.com/524D/slicmatch/internal/massindex"
	"github.com/524D/slicmatch/internal/notify"
	"github.com/524D/slicmatch/internal/tolerance"
)

const (
	// Progress is reported, and cancellation checked, every progressInterval
	// features. It is also the unit of work for parallel matching.
	progressInterval = 100
	healthInterval   = 10000

	progressDescription = "Matching features"
)

// Engine matches features against comparison features. An Engine can be
// reused, but runs one Identify at a time.
type Engine struct {
	opts  Options
	abort atomic.Bool
}

// New creates an engine. Out of range options are corrected.
func New(opts Options) *Engine {
	return &Engine{opts: opts.sanitize()}
}

// Options returns the (corrected) options of the engine
func (e *Engine) Options() Options {
	return e.opts
}

// Abort asks the running Identify to stop. The request is honored at the
// next progress checkpoint. An Abort while no run is in progress cancels
// the next run before it matches any feature. The request is cleared when
// a run ends.
func (e *Engine) Abort() {
	e.abort.Store(true)
}

// run is the state of one Identify call, shared by all workers
type run struct {
	e          *Engine
	ctx        context.Context
	th         *tolerance.Thresholds
	toIdentify *feature.Store
	comparison *feature.CompareStore
	index      *massindex.Index
	obs        notify.Observer
	results    *ResultStore
	total      int

	processed    atomic.Int64
	matched      atomic.Int64
	massFallback sync.Once
	netFallback  sync.Once
}

// worker holds the scratch buffers of one goroutine
type worker struct {
	sc  scorer
	raw []rawMatch
	out []Result
}

// Identify matches every feature in toIdentify against comparison, in store
// position order. index may be nil; it is (re)built when it does not cover
// the comparison store. Progress and events are reported to obs, which may
// be nil.
//
// The returned bool is false only if the run was cancelled, through ctx or
// Abort. Results found before the cancellation are kept in the store.
func (e *Engine) Identify(ctx context.Context, th *tolerance.Thresholds,
	toIdentify *feature.Store, comparison *feature.CompareStore,
	index *massindex.Index, obs notify.Observer) (*ResultStore, bool) {

	start := time.Now()
	defer e.abort.Store(false)
	if ctx == nil {
		ctx = context.Background()
	}
	if obs == nil {
		obs = notify.Nop{}
	}
	if th == nil {
		th = tolerance.New()
	}
	r := &run{
		e:          e,
		ctx:        ctx,
		th:         th,
		toIdentify: toIdentify,
		comparison: comparison,
		obs:        notify.NewMonotonic(obs),
		results:    NewResultStore(),
	}
	if toIdentify != nil {
		r.total = toIdentify.Count()
	}

	completed := true
	if r.total == 0 || comparison == nil || comparison.Count() == 0 {
		r.obs.Log("nothing to match", notify.Normal)
		r.processed.Store(int64(r.total))
		r.obs.Progress(progressDescription, 100)
	} else {
		r.index = r.prepareIndex(index)
		th.Check(r.obs)
		r.obs.Log(fmt.Sprintf("matching %d features against %d comparison features",
			r.total, comparison.Count()), notify.Normal)
		if e.opts.Workers > 1 {
			completed = r.parallel()
		} else {
			completed = r.sequential()
		}
	}

	stats := RunStats{
		Features:  r.total,
		Processed: int(r.processed.Load()),
		Matched:   int(r.matched.Load()),
		Stored:    r.results.Count(),
		Elapsed:   time.Since(start),
		Completed: completed,
	}
	r.results.setStats(stats)
	if completed {
		r.obs.Log(fmt.Sprintf("matching done: %d of %d features matched, %d results",
			stats.Matched, stats.Features, stats.Stored), notify.Normal)
	} else {
		r.obs.Log(fmt.Sprintf("matching cancelled after %d of %d features",
			stats.Processed, stats.Features), notify.Normal)
	}
	return r.results, completed
}

func (r *run) prepareIndex(index *massindex.Index) *massindex.Index {
	if index == nil {
		return massindex.Build(r.comparison)
	}
	if index.Count() != r.comparison.Count() {
		r.obs.Log(fmt.Sprintf("mass index holds %d masses, comparison store %d: rebuilding",
			index.Count(), r.comparison.Count()), notify.Normal)
		index.Rebuild(r.comparison)
	}
	return index
}

func (r *run) cancelled() bool {
	return r.e.abort.Load() || r.ctx.Err() != nil
}

func (r *run) newWorker() *worker {
	w := &worker{}
	w.sc = scorer{
		slic:         r.th.SLiC(),
		perCandidate: r.e.opts.UsePerCandidateNETStdDev,
		netStdDevOf:  r.comparison.NETStdDevByPosition,
		onMassFallback: func() {
			r.massFallback.Do(func() {
				r.obs.Log(fmt.Sprintf("mass standard deviation is not positive, using %g Da",
					fallbackMassStdDev), notify.Error)
			})
		},
		onNETFallback: func() {
			r.netFallback.Do(func() {
				r.obs.Log(fmt.Sprintf("NET standard deviation is not positive, using %g",
					fallbackNETStdDev), notify.Error)
			})
		},
	}
	return w
}

func (r *run) sequential() bool {
	if r.cancelled() {
		return false
	}
	w := r.newWorker()
	for pos := 0; pos < r.total; pos++ {
		r.matchAt(pos, w)
		n := pos + 1
		r.processed.Store(int64(n))
		if n%progressInterval == 0 || n == r.total {
			r.progress(n)
			if n%healthInterval == 0 {
				r.health(n)
			}
			if n < r.total && r.cancelled() {
				return false
			}
		}
	}
	return true
}

// parallel distributes blocks of progressInterval features over the
// workers. Cancellation is checked before each block is handed out; blocks
// in progress are finished.
func (r *run) parallel() bool {
	pool := sync.Pool{New: func() any { return r.newWorker() }}
	var g errgroup.Group
	g.SetLimit(r.e.opts.Workers)

	completed := true
	for start := 0; start < r.total; start += progressInterval {
		if r.cancelled() {
			completed = false
			break
		}
		g.Go(func() error {
			w := pool.Get().(*worker)
			defer pool.Put(w)
			end := min(start+progressInterval, r.total)
			for pos := start; pos < end; pos++ {
				r.matchAt(pos, w)
			}
			n := int(r.processed.Add(int64(end - start)))
			r.progress(n)
			if (n-(end-start))/healthInterval != n/healthInterval {
				r.health(n)
			}
			return nil
		})
	}
	_ = g.Wait()
	return completed
}

func (r *run) progress(n int) {
	r.obs.Progress(progressDescription, 100*float64(n)/float64(r.total))
}

func (r *run) health(n int) {
	r.obs.Log(fmt.Sprintf("%d of %d features processed, %d matched",
		n, r.total, r.matched.Load()), notify.Health)
}

// matchAt matches the feature at position pos and stores its results
func (r *run) matchAt(pos int, w *worker) {
	f, ok := r.toIdentify.ByPosition(pos)
	if !ok {
		r.obs.Log(fmt.Sprintf("no feature at position %d, skipped", pos), notify.Error)
		return
	}
	res := r.match(f, w)
	if len(res) > 0 {
		r.results.Append(f.ID, res...)
		r.matched.Add(1)
	}
}

// match finds, scores and filters the candidates for f. The returned slice
// is reused by the next call with the same worker.
func (r *run) match(f feature.Feature, w *worker) []Result {
	opts := r.e.opts
	tol := r.th.Compute(f.Mass)
	massTol, netTol := tol.MassFinal, tol.NETFinal
	if opts.UseBroadDistanceAndScoring {
		massTol, netTol = tol.MassBroad, tol.NETBroad
	}

	first, last, err := r.index.FindRange(f.Mass, massTol)
	if err != nil {
		return nil
	}

	w.raw = w.raw[:0]
	for i := first; i <= last; i++ {
		pos, ok := r.index.OriginalIndex(i)
		if !ok {
			continue
		}
		c, ok := r.comparison.ByPosition(pos)
		if !ok {
			r.obs.Log(fmt.Sprintf("no comparison feature at position %d, skipped", pos), notify.Error)
			continue
		}
		netErr := float64(f.NET) - float64(c.NET)
		if !(math.Abs(netErr) <= netTol) {
			continue
		}
		massErr := f.Mass - c.Mass
		if !opts.UseBroadDistanceAndScoring && opts.UseEllipseRegion &&
			!InEllipse(netErr, massErr, netTol, massTol) {
			continue
		}
		w.raw = append(w.raw, rawMatch{pos: pos, massErr: massErr, netErr: netErr})
	}
	if len(w.raw) == 0 {
		return nil
	}

	w.sc.score(f.Mass, w.raw)

	w.out = w.out[:0]
	for _, m := range w.raw {
		if !InEllipse(m.netErr, m.massErr, tol.NETFinal, tol.MassFinal) {
			continue
		}
		c, _ := r.comparison.ByPosition(m.pos)
		w.out = append(w.out, Result{
			MatchingID:    c.ID,
			SLiCScore:     m.slic,
			DelSLiC:       m.delSLiC,
			MassErr:       m.massErr,
			NETErr:        m.netErr,
			MultiHitCount: len(w.raw),
		})
		if len(w.out) == opts.MaxResultsPerFeature {
			break
		}
	}
	return w.out
}
