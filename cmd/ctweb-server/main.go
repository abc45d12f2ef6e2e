package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/criticalpathinstitute/ctweb/internal/config"
	"github.com/criticalpathinstitute/ctweb/internal/domain/docstore"
	"github.com/criticalpathinstitute/ctweb/internal/domain/lookup"
	"github.com/criticalpathinstitute/ctweb/internal/domain/savedsearch"
	"github.com/criticalpathinstitute/ctweb/internal/domain/study"
	"github.com/criticalpathinstitute/ctweb/internal/platform/db"
	"github.com/criticalpathinstitute/ctweb/internal/platform/middleware"
	"github.com/criticalpathinstitute/ctweb/internal/platform/openapi"
	"github.com/criticalpathinstitute/ctweb/internal/platform/sandbox"
	"github.com/criticalpathinstitute/ctweb/internal/registry/query"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ctweb-server",
		Short:        "Clinical trials registry API server",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Path to the INI config file (default $CTWEB_CONFIG or ./config.ini)")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(sqlCmd())
	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadConfig reads and validates the config named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flag, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.ResolvePath(flag))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL(),
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Schema:   cfg.DBSchema,
	})
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the registry API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, os.DirFS(cfg.MigrationsDir), cfg.DBSchema, newLogger(cfg))
			fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", cfg.DBSchema)

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, os.DirFS(cfg.MigrationsDir), cfg.DBSchema, newLogger(cfg))
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Migration status for schema: %s\n", cfg.DBSchema)
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the registry tables with generated studies",
		Long: "Generates a deterministic synthetic registry. With --ndjson the studies are\n" +
			"written to the given file (\"-\" for stdout) and the database is not touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			studies, _ := cmd.Flags().GetInt("studies")
			seed, _ := cmd.Flags().GetInt64("seed")
			ndjson, _ := cmd.Flags().GetString("ndjson")

			sc := sandbox.DefaultSeedConfig()
			sc.Studies = studies
			sc.Seed = seed
			seeder := sandbox.NewSeeder(sc)

			res, err := seeder.Generate()
			if err != nil {
				return err
			}

			if ndjson != "" {
				return writeNDJSON(cmd.OutOrStdout(), ndjson, seeder)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := seeder.Load(ctx, pool); err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d studies.\n", res.Studies)
			return nil
		},
	}
	cmd.Flags().Int("studies", sandbox.DefaultSeedConfig().Studies, "Number of studies to generate")
	cmd.Flags().Int64("seed", sandbox.DefaultSeedConfig().Seed, "Random seed")
	cmd.Flags().String("ndjson", "", "Write studies as NDJSON to this file instead of loading them")
	return cmd
}

func writeNDJSON(stdout io.Writer, path string, seeder *sandbox.Seeder) error {
	if path == "-" {
		return seeder.ExportNDJSON(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := seeder.ExportNDJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sqlCmd prints the statements a search would run, without a database.
func sqlCmd() *cobra.Command {
	var f study.Filter
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL generated for a study search",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, rows, ok := f.Queries()
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "no filters given; the search matches nothing")
				return nil
			}
			printQuery(out, "count", count)
			printQuery(out, "rows", rows)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Text, "text", "", "Full-text query")
	fl.IntVar(&f.TextBool, "text-bool", 0, "Treat --text as a boolean expression")
	fl.StringVar(&f.ConditionNames, "condition-names", "", "Condition name query")
	fl.IntVar(&f.ConditionsBool, "conditions-bool", 0, "Treat --condition-names as a boolean expression")
	fl.StringVar(&f.SponsorNames, "sponsor-names", "", "Sponsor name query")
	fl.IntVar(&f.SponsorsBool, "sponsors-bool", 0, "Treat --sponsor-names as a boolean expression")
	fl.StringVar(&f.InterventionNames, "intervention-names", "", "Intervention name query")
	fl.IntVar(&f.InterventionsBool, "interventions-bool", 0, "Treat --intervention-names as a boolean expression")
	fl.StringVar(&f.ConditionIDs, "condition-ids", "", "Comma-separated condition ids")
	fl.StringVar(&f.SponsorIDs, "sponsor-ids", "", "Comma-separated sponsor ids")
	fl.StringVar(&f.StudyTypeIDs, "study-type-ids", "", "Comma-separated study type ids")
	fl.StringVar(&f.PhaseIDs, "phase-ids", "", "Comma-separated phase ids")
	fl.StringVar(&f.Enrollment, "enrollment", "", "Enrollment comparison, e.g. '>=100'")
	fl.Int64Var(&f.OverallStatusID, "overall-status-id", 0, "Overall status id")
	fl.Int64Var(&f.LastKnownStatusID, "last-known-status-id", 0, "Last known status id")
	fl.IntVar(&f.Limit, "limit", 0, "Row limit")
	fl.IntVar(&f.Offset, "offset", 0, "Row offset")
	return cmd
}

func printQuery(w io.Writer, label string, q query.Query) {
	fmt.Fprintf(w, "-- %s\n%s;\n", label, q.SQL)
	if len(q.Args) > 0 {
		args := make([]string, len(q.Args))
		for i, a := range q.Args {
			args[i] = fmt.Sprintf("$%d=%v", i+1, a)
		}
		fmt.Fprintf(w, "-- args: %s\n", strings.Join(args, " "))
	}
}

// apiServices are the services behind the API routes. docs is nil when the
// document store is disabled.
type apiServices struct {
	studies *study.Service
	lookups *lookup.Service
	saved   *savedsearch.Service
	docs    docstore.Store
}

// mountAPI registers the API routes under cfg.APIPrefix. Only the pgx-backed
// routes hold a request connection; saved searches go through gorm, which
// draws its own connection from the pool, and the document store needs none.
func mountAPI(e *echo.Echo, cfg *config.Config, pool *pgxpool.Pool, svc apiServices, logger zerolog.Logger) {
	rateLimitCfg := middleware.DefaultRateLimitConfig()
	rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
	rateLimitCfg.BurstSize = cfg.RateLimitBurst
	limit := middleware.RateLimit(rateLimitCfg)
	timeout := middleware.RequestTimeout(cfg.RequestTimeout)

	// pg is created first so that api's catch-all 404 routes, registered
	// after it, do not acquire a connection.
	pg := e.Group(cfg.APIPrefix, limit, timeout, db.ConnMiddleware(pool))
	api := e.Group(cfg.APIPrefix, limit, timeout)

	docs := openapi.NewGenerator("Clinical Trials Registry API", version, cfg.APIPrefix)
	docs.Add(study.Operations()...)
	docs.Add(lookup.Operations()...)
	docs.Add(savedsearch.Operations()...)

	study.NewHandler(svc.studies).RegisterRoutes(pg)
	lookup.NewHandler(svc.lookups).RegisterRoutes(pg)
	savedsearch.NewHandler(svc.saved).RegisterRoutes(api)
	if svc.docs != nil {
		docstore.NewHandler(svc.docs, logger).RegisterRoutes(api)
		docs.Add(docstore.Operations()...)
	}
	docs.RegisterRoutes(api)
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)

	// Database
	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	gdb, err := db.OpenGorm(pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open gorm")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.NewMetrics(reg).Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	svc := apiServices{
		studies: study.NewService(study.NewRepoPG(pool), db.PoolRunner{Pool: pool}, logger),
		lookups: lookup.NewService(lookup.NewRepoPG(pool), logger),
		saved:   savedsearch.NewService(savedsearch.NewRepoGorm(gdb), logger),
	}
	svc.studies.SetMetrics(study.NewMetrics(reg))

	// Document store
	if cfg.MongoURL != "" {
		store, err := docstore.Connect(ctx, cfg.MongoURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to document store")
		}
		defer store.Close(context.Background())
		svc.docs = store
		logger.Info().Msg("document store routes enabled")
	}

	mountAPI(e, cfg, pool, svc, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("prefix", cfg.APIPrefix).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
