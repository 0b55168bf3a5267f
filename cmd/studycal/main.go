package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"studycal/internal/config"
	"studycal/internal/gcal"
	"studycal/internal/ics"
	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/proxy"
	"studycal/internal/store"
	"studycal/internal/study"
	"studycal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	logLevel   string
}

func main() {
	flags := parseFlags()
	if flags.logLevel != "" {
		appLog.SetLevel(appLog.ParseLevel(flags.logLevel))
	}

	appLog.Info("studycal starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel == "" {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	loc := resolveLocationOrLocal(conf.Timezone)

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"feed_count", len(conf.Feeds),
		"google", conf.Google != nil,
		"proxy", conf.Proxy != nil,
		"study_policy", conf.Study.Policy,
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	a := newApp(ctx, conf, loc)

	// Initial synchronous refresh so the API starts with data.
	if err := a.refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	if flags.once {
		appLog.Info("single-shot refresh done", "events", a.store.Len())
		return
	}

	// Periodic refresh.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(conf.RefreshCron, func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer refreshCancel()
		if err := a.refresh(refreshCtx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := web.NewServer(conf, a.store, a.refresh)
	if err := server.ListenAndServe(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("studycal exiting")
}

// app bundles the source adapters and the store they feed.
type app struct {
	cfg     *config.Config
	loc     *time.Location
	store   *store.Store
	fetcher *ics.Fetcher
	gcal    *gcal.Client
	proxy   *proxy.Client

	refreshMu sync.Mutex
}

func newApp(ctx context.Context, cfg *config.Config, loc *time.Location) *app {
	a := &app{
		cfg:     cfg,
		loc:     loc,
		store:   store.New(),
		fetcher: ics.NewFetcher(cfg.CacheDir),
	}

	if cfg.Google != nil {
		client, err := gcal.New(ctx, cfg.Google, loc)
		if err != nil {
			// The daemon still runs on its other sources.
			appLog.Error("google source disabled", err)
		} else {
			a.gcal = client
		}
	}
	if cfg.Proxy != nil && cfg.Proxy.URL != "" {
		a.proxy = proxy.New(cfg.Proxy.URL, loc)
	}
	return a
}

// refresh re-ingests every configured source and regenerates study blocks.
// Cron ticks and API triggers share one mutex, so two pipelines never run
// concurrently. Individual source failures are collected; the merge still
// happens for whatever succeeded. When everything fails and the sample
// fallback is enabled, the built-in feed is merged so the API has something
// to show.
func (a *app) refresh(ctx context.Context) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	now := time.Now().In(a.loc)
	rangeStart := now.AddDate(0, 0, -a.cfg.BackfillDays)
	rangeEnd := now.AddDate(0, 0, a.cfg.HorizonDays)

	var errs []error
	anySucceeded := false

	if a.refreshFeeds(ctx, rangeStart, rangeEnd, &errs) {
		anySucceeded = true
	}
	if a.refreshGoogle(ctx, rangeStart, rangeEnd, &errs) {
		anySucceeded = true
	}
	if a.refreshProxy(ctx, &errs) {
		anySucceeded = true
	}

	hasSources := len(a.cfg.Feeds) > 0 || a.gcal != nil || a.proxy != nil
	if hasSources && !anySucceeded && a.cfg.SampleOnFailure {
		appLog.Info("all sources failed, merging sample feed")
		a.mergeSample(rangeStart, rangeEnd)
	}

	a.regenerateStudyBlocks()

	appLog.Info("refresh completed", "events", a.store.Len(), "error_count", len(errs))
	if len(errs) > 0 {
		return aggregate(errs)
	}
	return nil
}

func (a *app) refreshFeeds(ctx context.Context, rangeStart, rangeEnd time.Time, errs *[]error) bool {
	if len(a.cfg.Feeds) == 0 {
		return false
	}

	sources := make([]ics.Source, 0, len(a.cfg.Feeds))
	for _, f := range a.cfg.Feeds {
		if f.URL == "" {
			continue
		}
		id := f.ID
		if id == "" {
			id = f.Name
		}
		sources = append(sources, ics.Source{ID: id, Name: f.Name, URL: f.URL})
	}

	results, fetchErrs := a.fetcher.FetchAll(ctx, sources)
	*errs = append(*errs, fetchErrs...)

	ok := false
	for _, res := range results {
		events, err := a.feedToEvents(res.Source, res.Body, rangeStart, rangeEnd)
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		a.mergeMixed(events)
		ok = true
	}
	return ok
}

func (a *app) feedToEvents(src ics.Source, body []byte, rangeStart, rangeEnd time.Time) ([]model.Event, error) {
	parsed, err := ics.ParseFeed(src, body)
	if err != nil {
		return nil, err
	}
	occurrences, err := ics.Expand(parsed, ics.ExpandConfig{
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	})
	if err != nil {
		return nil, err
	}
	return ics.FeedEvents(occurrences, a.loc), nil
}

func (a *app) refreshGoogle(ctx context.Context, rangeStart, rangeEnd time.Time, errs *[]error) bool {
	if a.gcal == nil {
		return false
	}
	ok := false
	for _, calendarID := range a.cfg.Google.CalendarIDs {
		events, err := a.gcal.ListEvents(ctx, calendarID, rangeStart, rangeEnd)
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		a.mergeMixed(events)
		ok = true
	}
	return ok
}

func (a *app) refreshProxy(ctx context.Context, errs *[]error) bool {
	if a.proxy == nil {
		return false
	}
	events, err := a.proxy.FetchEvents(ctx)
	if err != nil {
		*errs = append(*errs, err)
		return false
	}
	a.mergeMixed(events)
	return true
}

func (a *app) mergeSample(rangeStart, rangeEnd time.Time) {
	events, err := a.feedToEvents(ics.SampleSource, []byte(ics.SampleFeed), rangeStart, rangeEnd)
	if err != nil {
		appLog.Error("sample feed unusable", err)
		return
	}
	a.mergeMixed(events)
}

// mergeMixed groups a batch by source type and merges each group, since
// adapters may promote Canvas-like items to feed assignments within one
// response.
func (a *app) mergeMixed(events []model.Event) {
	groups := make(map[model.SourceType][]model.Event)
	for _, ev := range events {
		groups[ev.Source] = append(groups[ev.Source], ev)
	}
	for source, group := range groups {
		a.store.MergeBatch(source, group)
	}
}

// regenerateStudyBlocks plans blocks over the current assignment list and
// merges them. Block IDs are derived from assignment IDs, so regeneration
// replaces rather than duplicates.
func (a *app) regenerateStudyBlocks() {
	items := a.store.Assignments(store.SortByDate)
	assignments := make([]model.Event, 0, len(items))
	for _, item := range items {
		assignments = append(assignments, item.Event)
	}

	blocks := study.Plan(assignments, study.Config{
		Policy:          study.Policy(a.cfg.Study.Policy),
		StudyTime:       a.cfg.Study.StudyTime,
		PreferredTimes:  a.cfg.Study.PreferredTimes,
		Duration:        time.Duration(a.cfg.Study.DurationMinutes) * time.Minute,
		DaysBefore:      a.cfg.Study.DaysBefore,
		MaxBlocksPerDay: a.cfg.Study.MaxBlocksPerDay,
		MaxHoursPerDay:  a.cfg.Study.MaxHoursPerDay,
	})
	a.store.MergeBatch(model.SourceStudyBlock, blocks)
	appLog.Info("study blocks generated", "assignments", len(assignments), "blocks", len(blocks))
}

func aggregate(errs []error) error {
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone, falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/studycal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh cycle and exit")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Minimum log level: debug, info, error")

	flag.Parse()
	return cfg
}
