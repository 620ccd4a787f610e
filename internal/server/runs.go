package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hummingbird-labs/hummingbird/internal/enrich"
	"github.com/hummingbird-labs/hummingbird/internal/plan"
	"github.com/hummingbird-labs/hummingbird/internal/runner"
	"github.com/hummingbird-labs/hummingbird/internal/session"
	"github.com/hummingbird-labs/hummingbird/models"
)

// planRunner executes the generation plan for ready sessions, at most one run
// per session at a time. Distinct sessions run concurrently; the logo cache is
// the only state they share.
type planRunner struct {
	store    session.Store
	runner   *runner.Runner
	plan     *plan.Plan
	enricher *enrich.Enricher
	timeout  time.Duration
	logger   *log.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

func newPlanRunner(store session.Store, r *runner.Runner, p *plan.Plan,
	e *enrich.Enricher, timeout time.Duration) *planRunner {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &planRunner{
		store:    store,
		runner:   r,
		plan:     p,
		enricher: e,
		timeout:  timeout,
		logger:   log.New(log.Writer(), "[RUNS] ", log.LstdFlags),
		inflight: make(map[string]struct{}),
	}
}

// Start launches a run for the session unless one is already in flight.
func (p *planRunner) Start(sessionID, description string) {
	p.mu.Lock()
	if _, busy := p.inflight[sessionID]; busy {
		p.mu.Unlock()
		p.logger.Printf("session %s: run already in flight", sessionID)
		return
	}
	p.inflight[sessionID] = struct{}{}
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			p.mu.Lock()
			delete(p.inflight, sessionID)
			p.mu.Unlock()
		}()
		p.execute(sessionID, description)
	}()
}

// Wait blocks until every in-flight run has finished. Test hook.
func (p *planRunner) Wait() { p.wg.Wait() }

func (p *planRunner) execute(sessionID, description string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	out, err := p.runner.Run(ctx, p.plan, map[string]interface{}{
		"product_description": description,
	})
	if err != nil {
		p.logger.Printf("session %s: run failed: %v", sessionID, err)
		p.recordFailure(ctx, sessionID, err)
		return
	}

	set, ok := out.(*models.RecommendationSet)
	if !ok {
		p.logger.Printf("session %s: run produced %T, expected recommendation set", sessionID, out)
		p.recordFailure(ctx, sessionID, models.ErrResultNotReady)
		return
	}

	p.enricher.Enrich(ctx, set)

	sess, err := p.store.Get(ctx, sessionID)
	if err != nil {
		p.logger.Printf("session %s: loading after run: %v", sessionID, err)
		return
	}
	sess.Status = session.StatusCompleted
	sess.Result = set
	sess.RunErr = ""
	if err := p.store.Save(ctx, sess); err != nil {
		p.logger.Printf("session %s: saving result: %v", sessionID, err)
	}
}

func (p *planRunner) recordFailure(ctx context.Context, sessionID string, runErr error) {
	sess, err := p.store.Get(ctx, sessionID)
	if err != nil {
		p.logger.Printf("session %s: loading after failure: %v", sessionID, err)
		return
	}
	sess.RunErr = runErr.Error()
	if err := p.store.Save(ctx, sess); err != nil {
		p.logger.Printf("session %s: saving failure: %v", sessionID, err)
	}
}
