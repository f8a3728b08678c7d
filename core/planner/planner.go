// Package planner orchestrates a scheduling day: balance jobs over the
// roster, sequence each route, rate and check the result, optionally repair
// conflicts, then persist and announce it. The planner keeps no route state
// between calls; every action loads a snapshot from the store and saves a new
// one.
package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fieldsched/core/balance"
	"github.com/kilianp07/fieldsched/core/conflict"
	"github.com/kilianp07/fieldsched/core/events"
	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/monitoring"
	"github.com/kilianp07/fieldsched/core/planlog"
	"github.com/kilianp07/fieldsched/core/quality"
	"github.com/kilianp07/fieldsched/core/scoring"
	"github.com/kilianp07/fieldsched/core/sequence"
	"github.com/kilianp07/fieldsched/core/store"
	"github.com/kilianp07/fieldsched/core/travel"
	"github.com/kilianp07/fieldsched/internal/eventbus"
)

type Planner struct {
	cfg       Config
	store     store.Store
	drives    *travel.Adapter
	scorer    *scoring.Scorer
	sequencer *sequence.Sequencer
	rater     *quality.Rater
	detector  *conflict.Detector
	fixer     *conflict.Fixer
	plans     *eventbus.TypedBus[events.PlanEvent]
	alerts    *eventbus.TypedBus[events.ConflictEvent]
	planLog   planlog.LogStore
	log       logger.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Planner.
type Option func(*Planner)

// WithPlanBus publishes a PlanEvent after every action.
func WithPlanBus(b *eventbus.TypedBus[events.PlanEvent]) Option {
	return func(p *Planner) { p.plans = b }
}

// WithConflictBus publishes every open critical conflict.
func WithConflictBus(b *eventbus.TypedBus[events.ConflictEvent]) Option {
	return func(p *Planner) { p.alerts = b }
}

// WithPlanLog appends a record of every action to s.
func WithPlanLog(s planlog.LogStore) Option {
	return func(p *Planner) { p.planLog = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithIDs replaces the plan ID generator.
func WithIDs(next func() string) Option {
	return func(p *Planner) { p.newID = next }
}

// New builds a planner over st. A nil drives adapter uses a flat table of
// travel.DefaultFallbackMinutes for every leg.
func New(cfg Config, st store.Store, drives *travel.Adapter, log logger.Logger, opts ...Option) *Planner {
	cfg.SetDefaults()
	log = logger.OrNop(log)
	if drives == nil {
		drives = travel.NewAdapter(travel.NewStaticProvider(travel.DefaultFallbackMinutes), nil, travel.Options{}, log)
	}
	p := &Planner{
		cfg:       cfg,
		store:     st,
		drives:    drives,
		scorer:    scoring.NewScorer(cfg.Scoring, drives, log),
		sequencer: sequence.New(cfg.Sequence, log),
		rater:     quality.New(cfg.Quality),
		detector:  conflict.NewDetector(cfg.Conflict, log),
		fixer:     conflict.NewFixer(cfg.Conflict, log),
		planLog:   planlog.NopStore{},
		log:       log,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Config returns the effective configuration.
func (p *Planner) Config() Config { return p.cfg }

// DefaultOptions returns the call options implied by the configuration.
func (p *Planner) DefaultOptions() PlanOptions {
	return PlanOptions{AutoFix: p.cfg.AutoFix}
}

// PlanDay rebuilds the whole day: every job is released, balanced over the
// available technicians and sequenced. Conflicts are detected and, when
// opts.AutoFix is set, repaired and the touched routes sequenced again before
// the final detection. The result is saved and announced.
func (p *Planner) PlanDay(ctx context.Context, date time.Time, opts PlanOptions) (*Plan, error) {
	started := p.now()
	plan := newPlan(p.newID(), date, events.ActionPlan)
	d, err := p.load(ctx, date)
	if err != nil {
		return nil, p.fail(ctx, plan, started, err)
	}

	pool := make([]model.Job, 0, len(d.jobs))
	for i := range d.jobs {
		d.jobs[i].Unassign()
		pool = append(pool, d.jobs[i])
	}
	d.routes = model.RouteMap{}

	if len(pool) > 0 {
		active := d.available()
		asg, err := balance.New(p.log, balance.WithZonePenalty(p.cfg.ZonePenaltyHours)).Balance(pool, active)
		if err != nil {
			return nil, p.fail(ctx, plan, started, err)
		}
		for _, t := range active {
			if len(asg[t.ID]) == 0 {
				continue
			}
			p.apply(d, plan, t.ID, p.sequenceRoute(ctx, d, t, asg[t.ID], opts.Start))
		}
	}
	return p.finish(ctx, d, plan, opts, started)
}

// Recommend ranks the roster for one job of the day. limit <= 0 uses the
// scoring default.
func (p *Planner) Recommend(ctx context.Context, date time.Time, jobID model.JobID, limit int) ([]scoring.Candidate, error) {
	d, err := p.load(ctx, date)
	if err != nil {
		return nil, err
	}
	i := d.index(jobID)
	if i < 0 {
		return nil, fmt.Errorf("job %s on %s: %w", jobID, d.key, store.ErrNotFound)
	}
	hist, err := p.history(ctx, date)
	if err != nil {
		return nil, err
	}
	day := scoring.Day{Routes: d.routes, Availability: d.avail, History: hist}
	return p.scorer.Rank(ctx, day, d.jobs[i], d.techs, limit), nil
}

// SmartFill gives every unassigned job, earliest window first, to its
// top-ranked technician and then sequences the routes it touched. Jobs with
// no eligible technician stay unassigned.
func (p *Planner) SmartFill(ctx context.Context, date time.Time, opts PlanOptions) (*Plan, error) {
	started := p.now()
	plan := newPlan(p.newID(), date, events.ActionFill)
	d, err := p.load(ctx, date)
	if err != nil {
		return nil, p.fail(ctx, plan, started, err)
	}
	hist, err := p.history(ctx, date)
	if err != nil {
		return nil, p.fail(ctx, plan, started, err)
	}

	var pending []model.Job
	for _, j := range d.jobs {
		if j.AssignedTech == nil {
			pending = append(pending, j)
		}
	}
	sort.SliceStable(pending, func(a, b int) bool {
		return pending[a].Window.Start < pending[b].Window.Start
	})

	day := scoring.Day{Routes: d.routes, Availability: d.avail, History: hist}
	touched := map[model.TechnicianID]bool{}
	for _, j := range pending {
		best := p.scorer.Rank(ctx, day, j, d.techs, 1)
		if len(best) == 0 {
			p.log.Warnf("fill %s: no eligible technician for %s", d.key, j.ID)
			continue
		}
		id := best[0].Technician.ID
		j.AssignTo(id)
		r := d.routes[id]
		r.TechnicianID = id
		r.Jobs = append(r.Jobs, j.Clone())
		d.routes[id] = r
		d.replace(j)
		touched[id] = true
		p.log.Debugf("fill %s: %s -> %s (score %d)", d.key, j.ID, id, best[0].Result.Score)
	}

	for _, id := range sortedIDs(touched) {
		t, ok := model.FindTechnician(d.techs, id)
		if !ok {
			continue
		}
		p.apply(d, plan, id, p.sequenceRoute(ctx, d, t, d.routes[id].PrimaryJobs(), opts.Start))
	}
	return p.finish(ctx, d, plan, opts, started)
}

// Resequence orders one stored route again without touching the others.
func (p *Planner) Resequence(ctx context.Context, date time.Time, techID model.TechnicianID) (*Plan, error) {
	started := p.now()
	plan := newPlan(p.newID(), date, events.ActionResequence)
	d, err := p.load(ctx, date)
	if err != nil {
		return nil, p.fail(ctx, plan, started, err)
	}
	r, ok := d.routes[techID]
	if !ok {
		return nil, p.fail(ctx, plan, started, fmt.Errorf("route of %s on %s: %w", techID, d.key, store.ErrNotFound))
	}
	t, ok := model.FindTechnician(d.techs, techID)
	if !ok {
		return nil, p.fail(ctx, plan, started, fmt.Errorf("technician %s: %w", techID, store.ErrNotFound))
	}
	p.apply(d, plan, techID, p.sequenceRoute(ctx, d, t, r.PrimaryJobs(), nil))
	return p.finish(ctx, d, plan, PlanOptions{}, started)
}

// Inspect rates and checks the stored day without changing it.
func (p *Planner) Inspect(ctx context.Context, date time.Time) (*Plan, error) {
	d, err := p.load(ctx, date)
	if err != nil {
		return nil, err
	}
	plan := newPlan("", date, "inspect")
	plan.Routes = d.routes
	plan.Jobs = d.jobs
	plan.Ratings = p.rater.RateAll(d.routes)
	plan.Conflicts = p.detector.Detect(d.routes, d.jobs, d.avail, d.techs)
	plan.Unassigned = d.unassigned()
	return plan, nil
}

// Conflicts detects the violations in the stored day.
func (p *Planner) Conflicts(ctx context.Context, date time.Time) ([]model.Conflict, error) {
	plan, err := p.Inspect(ctx, date)
	if err != nil {
		return nil, err
	}
	return plan.Conflicts, nil
}

func (p *Planner) sequenceRoute(ctx context.Context, d *day, t model.Technician, jobs []model.Job, start *model.Clock) sequence.Result {
	return p.sequencer.Sequence(ctx, sequence.Request{
		Technician: t,
		Jobs:       jobs,
		Start:      start,
		Travel:     p.source(ctx, d, t, jobs),
	})
}

func (p *Planner) source(ctx context.Context, d *day, t model.Technician, jobs []model.Job) sequence.TravelSource {
	if p.cfg.TrafficAware {
		date := d.date
		return sequence.ProviderSource{Drives: p.drives, Day: &date}
	}
	m, err := travel.BuildMatrix(ctx, p.drives, sequence.Addresses(t.Depot, jobs), p.cfg.MatrixConcurrency, nil)
	if err != nil {
		p.log.Warnf("travel matrix for %s: %v", t.ID, err)
		return sequence.ProviderSource{Drives: p.drives}
	}
	return sequence.MatrixSource{Matrix: m}
}

// apply stores a sequencing result for one technician.
func (p *Planner) apply(d *day, plan *Plan, id model.TechnicianID, res sequence.Result) {
	if len(res.Jobs) == 0 {
		delete(d.routes, id)
	} else {
		d.routes[id] = res.Route(id)
	}
	for _, j := range res.Jobs {
		d.replace(j)
	}
	for _, u := range res.Unassignable {
		if i := d.index(u.Job.ID); i >= 0 {
			d.jobs[i].Unassign()
		}
		plan.Unassignable = append(plan.Unassignable, u)
	}
	plan.Strategies[id] = res.Strategy
}

func (p *Planner) finish(ctx context.Context, d *day, plan *Plan, opts PlanOptions, started time.Time) (*Plan, error) {
	d.attachHelpers()
	found := p.detector.Detect(d.routes, d.jobs, d.avail, d.techs)
	if opts.AutoFix && len(found) > 0 {
		fx := p.fixer.Fix(found, d.routes, d.jobs, d.techs, d.avail)
		d.routes, d.jobs = fx.Routes, fx.Jobs
		plan.Fixed, plan.Unfixed = fx.Fixed, fx.Unfixed
		for _, id := range fx.NeedsResequence {
			t, ok := model.FindTechnician(d.techs, id)
			if !ok {
				continue
			}
			p.apply(d, plan, id, p.sequenceRoute(ctx, d, t, d.routes[id].PrimaryJobs(), opts.Start))
		}
		d.attachHelpers()
		found = p.detector.Detect(d.routes, d.jobs, d.avail, d.techs)
	}

	plan.Routes = d.routes
	plan.Jobs = d.jobs
	plan.Conflicts = found
	plan.Ratings = p.rater.RateAll(d.routes)
	plan.Unassigned = d.unassigned()

	if err := p.store.SaveRoutes(ctx, d.date, d.routes.Slice()); err != nil {
		return nil, p.fail(ctx, plan, started, fmt.Errorf("save routes: %w", err))
	}
	if err := p.store.SaveJobs(ctx, d.date, d.jobs); err != nil {
		return nil, p.fail(ctx, plan, started, fmt.Errorf("save jobs: %w", err))
	}

	took := p.now().Sub(started)
	runsTotal.WithLabelValues(plan.Action, "success").Inc()
	runDuration.WithLabelValues(plan.Action).Observe(took.Seconds())
	unassignedJobs.WithLabelValues(plan.Action).Set(float64(len(plan.Unassigned)))
	for _, c := range plan.Fixed {
		conflictsTotal.WithLabelValues(string(c.Kind), "fixed").Inc()
	}
	for _, c := range plan.Conflicts {
		conflictsTotal.WithLabelValues(string(c.Kind), "open").Inc()
	}
	p.log.Infof("%s %s: %d routes, %d unassigned, %d conflicts (%d fixed) in %s",
		plan.Action, plan.Date, len(plan.Routes), len(plan.Unassigned), len(plan.Conflicts), len(plan.Fixed), took)
	p.announce(ctx, plan, took, nil)
	return plan, nil
}

func (p *Planner) fail(ctx context.Context, plan *Plan, started time.Time, err error) error {
	took := p.now().Sub(started)
	runsTotal.WithLabelValues(plan.Action, "error").Inc()
	runDuration.WithLabelValues(plan.Action).Observe(took.Seconds())
	monitoring.Capture("planner", err, "action", plan.Action, "date", plan.Date)
	p.log.Errorf("%s %s failed: %v", plan.Action, plan.Date, err)
	p.announce(ctx, plan, took, err)
	return err
}

func (p *Planner) announce(ctx context.Context, plan *Plan, took time.Duration, err error) {
	ev := plan.Event(took, err)
	if p.plans != nil {
		p.plans.Publish(ev)
	}
	if p.alerts != nil {
		for _, c := range plan.Conflicts {
			if c.Severity == model.SeverityCritical {
				p.alerts.Publish(events.ConflictEvent{PlanID: plan.ID, Date: plan.Date, Conflict: c})
			}
		}
	}
	if aerr := p.planLog.Append(ctx, planlog.FromEvent(ev, p.now())); aerr != nil {
		p.log.Warnf("plan log append: %v", aerr)
	}
}

// history counts the job types each technician handled over the previous
// HistoryDays days.
func (p *Planner) history(ctx context.Context, date time.Time) (scoring.History, error) {
	h := scoring.History{}
	for i := 1; i <= p.cfg.HistoryDays; i++ {
		jobs, err := p.store.LoadJobs(ctx, date.AddDate(0, 0, -i))
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		for _, j := range jobs {
			if j.AssignedTech == nil || j.Type == "" {
				continue
			}
			id := *j.AssignedTech
			if h[id] == nil {
				h[id] = map[string]int{}
			}
			h[id][scoring.NormalizeJobType(j.Type)]++
		}
	}
	return h, nil
}

func sortedIDs(set map[model.TechnicianID]bool) []model.TechnicianID {
	out := make([]model.TechnicianID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
