package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	_ "modernc.org/sqlite"

	"github.com/dtnlabs/campusim/core"
	"github.com/dtnlabs/campusim/internal/logging"
	"github.com/dtnlabs/campusim/internal/observability"
	"github.com/dtnlabs/campusim/report"
	"github.com/dtnlabs/campusim/timectrl"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and write the reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarioPath, _ := cmd.Flags().GetString("scenario")
			routesDir, _ := cmd.Flags().GetString("routes")
			seed, _ := cmd.Flags().GetInt64("seed")
			start, _ := cmd.Flags().GetFloat64("start")
			end, _ := cmd.Flags().GetFloat64("end")
			tick, _ := cmd.Flags().GetFloat64("tick")
			outDir, _ := cmd.Flags().GetString("out")
			dbPath, _ := cmd.Flags().GetString("db")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

			return runSimulation(cmd.Context(), runOptions{
				ScenarioPath: scenarioPath,
				RoutesDir:    routesDir,
				Seed:         seed,
				Start:        start,
				End:          end,
				Tick:         tick,
				OutDir:       outDir,
				DBPath:       dbPath,
				MetricsAddr:  metricsAddr,
			})
		},
	}

	cmd.Flags().Float64("start", 0, "simulated start time in seconds")
	cmd.Flags().Float64("end", 50000, "simulated end time in seconds")
	cmd.Flags().Float64("tick", 1, "simulated seconds per tick")
	cmd.Flags().String("out", "out", "directory for report files")
	cmd.Flags().String("db", "", "write reports to this SQLite database instead of files")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

type runOptions struct {
	ScenarioPath string
	RoutesDir    string
	Seed         int64
	Start        float64
	End          float64
	Tick         float64
	OutDir       string
	DBPath       string
	MetricsAddr  string
}

func runSimulation(ctx context.Context, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.NewFromEnv()
	ctx, log = logging.WithRunLogger(ctx, log)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	ctx, span := otel.Tracer("campusim").Start(ctx, "simulation-run")
	defer span.End()

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	tickMetrics, err := observability.NewTickCollector(nil)
	if err != nil {
		return fmt.Errorf("init tick metrics: %w", err)
	}
	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(opts.MetricsAddr, mux); err != nil {
				log.Warn(ctx, "metrics server stopped", logging.String("error", err.Error()))
			}
		}()
		log.Info(ctx, "serving metrics", logging.String("addr", opts.MetricsAddr))
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	scenario, err := loadScenarioFile(opts.ScenarioPath, opts.RoutesDir, rng)
	if err != nil {
		return err
	}
	log.Info(ctx, "scenario loaded",
		logging.String("path", opts.ScenarioPath),
		logging.Int("groups", len(scenario.Groups)),
		logging.Int("access_points", len(scenario.AccessPoints)),
		logging.Int("locations", len(scenario.Registry.Labels())),
	)

	adapter, err := core.NewPathRequestAdapter(newDirectGraph(), scenario.Registry)
	if err != nil {
		return err
	}
	engine, err := core.NewMovementEngine(adapter, scenario.AccessPoints, log, collector)
	if err != nil {
		return err
	}

	closeSinks, connectivityLog, err := wireReports(scenario, engine, collector, opts)
	if err != nil {
		return err
	}
	defer closeSinks()

	total := 0
	for _, g := range scenario.Groups {
		for i := 0; i < g.Count; i++ {
			state, err := g.Proto.Replicate(fmt.Sprintf("%s%d", g.ID, i))
			if err != nil {
				return err
			}
			startLabel := ""
			if sp, ok := g.Policy.(*core.SchedulePolicy); ok {
				if startLabel, err = sp.InitialLabel(); err != nil {
					return err
				}
			}
			if err := engine.AddAgent(state, g.Policy, startLabel); err != nil {
				return err
			}
			total++
		}
	}
	collector.SetAgents(total)
	log.Info(ctx, "agents placed", logging.Int("count", total))

	tc, err := timectrl.NewTimeController(opts.Start, opts.End, opts.Tick)
	if err != nil {
		return err
	}

	var runErr error
	tc.AddListener(func(t float64) {
		if runErr != nil {
			return
		}
		began := time.Now()
		if err := engine.Tick(ctx, t, opts.Tick); err != nil {
			runErr = err
			log.Error(ctx, "tick failed", logging.Float64("sim_time", t), logging.String("error", err.Error()))
			return
		}
		tickMetrics.ObserveTick(t, time.Since(began))
	})

	log.Info(ctx, "simulation starting",
		logging.Float64("start", opts.Start),
		logging.Float64("end", opts.End),
		logging.Float64("tick", opts.Tick),
	)
	tc.Run()
	if runErr != nil {
		return runErr
	}

	if connectivityLog != nil {
		if err := connectivityLog.Flush(); err != nil {
			return err
		}
	}

	log.Info(ctx, "simulation complete", logging.Float64("sim_time", tc.Now()))
	return nil
}

func loadScenarioFile(path, routesDir string, rng *rand.Rand) (*core.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()
	return core.LoadScenario(f, newDirRouteSource(routesDir), rng)
}

// wireReports builds the configured reports, subscribes them to the engine,
// and returns a cleanup closure for the sinks together with the connectivity
// log (whose final bucket needs an explicit flush after the run).
func wireReports(scenario *core.Scenario, engine *core.MovementEngine, collector *observability.SimCollector, opts runOptions) (func(), *report.ConnectivityLogReport, error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var db *sql.DB
	if opts.DBPath != "" {
		var err error
		db, err = sql.Open("sqlite", opts.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open report database: %w", err)
		}
		closers = append(closers, func() { db.Close() })
		if err := report.InitReportSchema(db); err != nil {
			closeAll()
			return nil, nil, err
		}
	}

	newSink := func(name string) (report.LineSink, error) {
		if db != nil {
			return report.NewSQLiteSink(db, name)
		}
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		fs, err := report.NewFileSink(filepath.Join(opts.OutDir, name+".txt"))
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { fs.Close() })
		return fs, nil
	}

	if ct := scenario.ConnectedTime; ct != nil {
		sink, err := newSink("connected_time")
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		r, err := report.NewConnectedTimeReport(report.ConnectedTimeConfig{
			Cutoff: ct.Cutoff,
			Hosts:  ct.Hosts,
		}, sink, collector)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		engine.AddListener(r)
	}

	var connectivityLog *report.ConnectivityLogReport
	if cl := scenario.ConnectivityLog; cl != nil {
		sink, err := newSink("connectivity_log")
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		connectivityLog, err = report.NewConnectivityLogReport(report.ConnectivityLogConfig{
			NumAccessPoints:  cl.NumAccessPoints,
			AccessPointIndex: cl.AccessPointIndex,
			Granularity:      cl.Granularity,
		}, sink, collector)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		engine.AddListener(connectivityLog)
	}

	return closeAll, connectivityLog, nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a scenario without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarioPath, _ := cmd.Flags().GetString("scenario")
			routesDir, _ := cmd.Flags().GetString("routes")
			seed, _ := cmd.Flags().GetInt64("seed")

			scenario, err := loadScenarioFile(scenarioPath, routesDir, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}

			agents := 0
			for _, g := range scenario.Groups {
				agents += g.Count
			}
			fmt.Printf("Scenario OK: %d locations, %d groups (%d agents), %d access points\n",
				len(scenario.Registry.Labels()), len(scenario.Groups), agents, len(scenario.AccessPoints))
			return nil
		},
	}
}
