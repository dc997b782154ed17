package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyp0633/openinvite/export"
	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/planner"
	"github.com/cyp0633/openinvite/recurrence"
	"github.com/cyp0633/openinvite/seed"
	"github.com/cyp0633/openinvite/social"
	"github.com/cyp0633/openinvite/storage"
	"github.com/cyp0633/openinvite/visibility"

	_ "github.com/cyp0633/openinvite/storage/jsonfile"
	_ "github.com/cyp0633/openinvite/storage/kvdb"
	_ "github.com/cyp0633/openinvite/storage/memory"
	_ "github.com/cyp0633/openinvite/storage/sqlite"
)

// collectionSocial holds the directory snapshot next to the planner
// collections
const collectionSocial = "social"

func main() {
	var (
		dbStr       = flag.String("db", "memory://", "storage connection string: memory://, json://DIR, kvdb://FILE or sqlite://FILE")
		logLevelArg = flag.String("log-level", "INFO", "log level")
		viewer      = flag.String("viewer", seed.CurrentUser, "user whose discovery feed is printed")
		exportFmt   = flag.String("export", "", "print the viewer's plans as ics or xcal instead of the feed")
		seedDemo    = flag.Bool("seed", true, "load the demo data into an empty store")
		strict      = flag.Bool("strict", false, "refuse RSVPs after the deadline")
		extendTo    = flag.String("extend", "", "materialize every series up to this date (YYYY-MM-DD)")
		tz          = flag.String("tz", "UTC", "time zone plan times are exported in")
		duration    = flag.Duration("duration", export.DefaultDuration, "length of exported events")
		today       = flag.String("today", "", "pretend the current date is this day (YYYY-MM-DD)")
		addr        = flag.String("serve", "", "serve calendar subscriptions (/<user>.ics, /<user>.xml) on this address instead of printing")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logLevel slog.Level
	err := logLevel.UnmarshalText([]byte(*logLevelArg))
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	if err != nil {
		logger.Error("unable to parse log level", "level-input", *logLevelArg, "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(ctx, logger, options{
		db:       *dbStr,
		viewer:   *viewer,
		export:   *exportFmt,
		seed:     *seedDemo,
		strict:   *strict,
		extendTo: *extendTo,
		tz:       *tz,
		duration: *duration,
		today:    *today,
		addr:     *addr,
	}, os.Stdout); err != nil {
		logger.Error("openinvite failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	db       string
	viewer   string
	export   string
	seed     bool
	strict   bool
	extendTo string
	tz       string
	duration time.Duration
	today    string
	addr     string
}

func run(ctx context.Context, logger *slog.Logger, opts options, out io.Writer) error {
	loc, err := time.LoadLocation(opts.tz)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", opts.tz, err)
	}

	persister, err := storage.Open(opts.db)
	if err != nil {
		return err
	}
	defer persister.Close()
	logger.Info("storage opened", "db", opts.db)

	dir := social.New(social.WithLogger(logger.With("component", "social")))
	if err := loadDirectory(ctx, persister, dir); err != nil {
		return err
	}

	config := planner.DefaultConfig
	if opts.strict {
		config = planner.StrictConfig
	}
	now := time.Now
	if opts.today != "" {
		d, err := dates.Parse(opts.today)
		if err != nil {
			return err
		}
		fixed := dates.MustParseTimeOfDay("12:00").On(d, loc)
		now = func() time.Time { return fixed }
	}

	store := planner.New(
		planner.WithLogger(logger.With("component", "planner")),
		planner.WithPersister(persister),
		planner.WithDirectory(dir),
		planner.WithConfig(config),
		planner.WithClock(now),
	)
	defer store.Close()

	if err := store.Load(ctx); err != nil {
		return err
	}

	if opts.seed {
		data := seed.Fixtures()
		seeded, err := seed.Bootstrap(ctx, store, dir, data)
		if err != nil {
			return err
		}
		if seeded {
			logger.Info("demo data loaded", "unread_notifications", data.Unread(seed.CurrentUser))
		}
	}
	if err := saveDirectory(ctx, persister, dir); err != nil {
		logger.Warn("failed to persist collection", "collection", collectionSocial, "error", err)
	}

	if opts.extendTo != "" {
		horizon, err := dates.Parse(opts.extendTo)
		if err != nil {
			return err
		}
		for _, id := range store.Series() {
			added, err := store.ExtendSeries(ctx, id, horizon)
			if err != nil {
				return err
			}
			logger.Info("series extended", "series_id", id, "added", len(added))
		}
	}

	enc := export.NewEncoder(export.WithLocation(loc), export.WithDuration(opts.duration), export.WithClock(now))
	if opts.addr != "" {
		return serve(ctx, logger, opts.addr, export.NewHandler(store, enc,
			export.WithHandlerLogger(logger.With("component", "http"))))
	}

	switch opts.export {
	case "":
		return printFeed(out, store, opts.viewer)
	case "ics":
		return enc.EncodeICS(out, store.PlansFor(opts.viewer))
	case "xcal":
		return enc.EncodeXCal(out, store.PlansFor(opts.viewer))
	default:
		return fmt.Errorf("unknown export format %q", opts.export)
	}
}

func serve(ctx context.Context, logger *slog.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("start and listen", "address", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func loadDirectory(ctx context.Context, p storage.Persister, dir *social.Directory) error {
	blobs, err := p.Load(ctx)
	if err != nil {
		return err
	}
	data, ok := blobs[collectionSocial]
	if !ok || len(data) == 0 {
		return nil
	}
	var snap social.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collectionSocial, err)
	}
	dir.Restore(snap)
	return nil
}

func saveDirectory(ctx context.Context, p storage.Persister, dir *social.Directory) error {
	data, err := json.Marshal(dir.Snapshot())
	if err != nil {
		return err
	}
	return p.Save(ctx, collectionSocial, data)
}

// feedLine is one discovery entry as printed on stdout
type feedLine struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Date      string            `json:"date"`
	Time      string            `json:"time"`
	Location  string            `json:"location"`
	OpenSpots int               `json:"openSpots"`
	Reason    visibility.Reason `json:"reason"`
	Group     string            `json:"group,omitempty"`
	Repeats   string            `json:"repeats,omitempty"`
}

func printFeed(out io.Writer, store *planner.Store, viewer string) error {
	enc := json.NewEncoder(out)
	for _, d := range store.DiscoverFeed(viewer) {
		line := feedLine{
			ID:        d.Plan.ID,
			Title:     d.Plan.Title,
			Date:      d.Plan.Date.String(),
			Time:      d.Plan.Time.String(),
			Location:  d.Plan.Location,
			OpenSpots: d.Plan.OpenSpots(),
			Reason:    d.Reason,
			Group:     d.GroupName,
			Repeats:   recurrence.Label(&d.Plan),
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
