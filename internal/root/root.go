package root

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bingeboard/stream-watcher/internal"
	"github.com/bingeboard/stream-watcher/internal/adapter"
	"github.com/bingeboard/stream-watcher/internal/affiliate"
	"github.com/bingeboard/stream-watcher/internal/aggregate"
	"github.com/bingeboard/stream-watcher/internal/api"
	"github.com/bingeboard/stream-watcher/internal/platform"
	"github.com/bingeboard/stream-watcher/internal/resolver"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// RootOption configures the root command (e.g. for tests).
type RootOption func(*rootConfig)

type rootConfig struct {
	registry adapter.Registry
}

// WithRegistry sets the adapter registry. Use in tests to inject adapters
// pointed at fixture servers instead of the real vendor APIs.
func WithRegistry(registry adapter.Registry) RootOption {
	return func(c *rootConfig) {
		c.registry = registry
	}
}

const adapterCacheTTL = 5 * time.Minute

func Root(_ context.Context, opts ...RootOption) (*cli.Command, error) {
	cfg := &rootConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	// Load .env before flag parsing so env-sourced flags see the values.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	rootCmd := &cli.Command{
		Name:  "stream-watcher",
		Usage: "aggregate streaming availability across TMDB, Watchmode, Utelly and Streaming Availability",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tmdb-api-key", Usage: "TMDB API key", Sources: cli.EnvVars("TMDB_API_KEY")},
			&cli.StringFlag{Name: "watchmode-api-key", Usage: "Watchmode API key", Sources: cli.EnvVars("WATCHMODE_API_KEY")},
			&cli.StringFlag{Name: "rapidapi-key", Usage: "RapidAPI key for Utelly and Streaming Availability", Sources: cli.EnvVars("RAPIDAPI_KEY")},
			&cli.StringFlag{Name: "region", Usage: "availability region", Value: "US", Sources: cli.EnvVars("BINGE_REGION")},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Value: "info", Sources: cli.EnvVars("LOG_LEVEL")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			slog.SetLogLoggerLevel(parseLogLevel(cmd.String("log-level")))
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(cfg),
			availabilityCommand(cfg),
			affiliateURLCommand(),
			normalizeCommand(),
		},
	}
	return rootCmd, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildRegistry wires one adapter per vendor whose credentials are present,
// in merge-priority order. Vendors without keys are skipped, not stubbed.
func buildRegistry(cfg *rootConfig, cmd *cli.Command) adapter.Registry {
	if cfg.registry != nil {
		return cfg.registry
	}
	var opts []adapter.RegistryOption
	cached := adapter.Cached(256, adapterCacheTTL)

	if key := cmd.String("tmdb-api-key"); key != "" {
		opts = append(opts, adapter.WithAdapter(adapter.TMDB(key), cached))
	} else {
		slog.Info("tmdb adapter not configured", "reason", "no api key")
	}
	if key := cmd.String("watchmode-api-key"); key != "" {
		opts = append(opts, adapter.WithAdapter(adapter.Watchmode(key), cached))
	} else {
		slog.Info("watchmode adapter not configured", "reason", "no api key")
	}
	if key := cmd.String("rapidapi-key"); key != "" {
		opts = append(opts, adapter.WithAdapter(adapter.Utelly(key), cached))
		opts = append(opts, adapter.WithAdapter(adapter.StreamingAvailability(key), cached))
	} else {
		slog.Info("utelly and streaming-availability adapters not configured", "reason", "no rapidapi key")
	}
	return adapter.NewRegistry(opts...)
}

func buildService(cfg *rootConfig, cmd *cli.Command) *aggregate.Service {
	return aggregate.New(
		buildRegistry(cfg, cmd),
		aggregate.WithResultCache(512, adapterCacheTTL),
	)
}

func serveCommand(cfg *rootConfig) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the availability HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address", Value: ":8080", Sources: cli.EnvVars("ADDR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			server := api.NewServer(buildService(cfg, cmd))
			srv := &http.Server{
				Addr:         cmd.String("addr"),
				Handler:      server.Router(),
				IdleTimeout:  time.Minute,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				slog.Info("serving availability API", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()
			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

func availabilityCommand(cfg *rootConfig) *cli.Command {
	return &cli.Command{
		Name:  "availability",
		Usage: "look up comprehensive availability for one title",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Usage: "movie or tv", Value: "movie"},
			&cli.IntFlag{Name: "id", Usage: "TMDB id (resolved from --title when omitted)"},
			&cli.StringFlag{Name: "title", Usage: "display title; used for resolution and vendor term search"},
			&cli.StringFlag{Name: "year", Usage: "release-year hint for title resolution"},
			&cli.StringFlag{Name: "imdb-id", Usage: "IMDB id passed to vendors that accept it"},
			&cli.BoolFlag{Name: "affiliate", Usage: "attach affiliate URLs to each platform"},
			&cli.StringFlag{Name: "user", Usage: "user id for affiliate attribution", Value: "anonymous"},
			&cli.StringFlag{Name: "output", Usage: "write JSON to this file instead of stdout"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mediaType := internal.MediaType(cmd.String("type"))
			tmdbID := int(cmd.Int("id"))
			title := cmd.String("title")

			if tmdbID == 0 {
				if title == "" {
					return errors.New("either --id or --title is required")
				}
				if mediaType != internal.MediaTypeMovie {
					return errors.New("--title resolution only supports movies; pass --id for tv")
				}
				key := cmd.String("tmdb-api-key")
				if key == "" {
					return errors.New("--tmdb-api-key is required to resolve --title")
				}
				res, err := resolver.New(key)
				if err != nil {
					return err
				}
				match, err := res.ResolveMovie(ctx, title, cmd.String("year"))
				if err != nil {
					return fmt.Errorf("failed to resolve title: %w", err)
				}
				slog.Info("resolved title", "title", match.Title, "tmdb_id", match.TMDBID, "year", match.Year)
				tmdbID = match.TMDBID
				title = match.Title
			}

			service := buildService(cfg, cmd)
			result, err := service.ComprehensiveAvailability(ctx, internal.AvailabilityQuery{
				TMDBID:    tmdbID,
				IMDBID:    cmd.String("imdb-id"),
				Title:     title,
				MediaType: mediaType,
				Region:    cmd.String("region"),
			})
			if err != nil {
				return err
			}
			if cmd.Bool("affiliate") {
				aggregate.DecorateAffiliateLinks(&result, cmd.String("user"))
			}
			return writeResult(cmd.String("output"), result)
		},
	}
}

func affiliateURLCommand() *cli.Command {
	return &cli.Command{
		Name:  "affiliate-url",
		Usage: "mint a tracked outbound URL for a platform",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "platform", Usage: "platform name (any known spelling)", Required: true},
			&cli.StringFlag{Name: "user", Usage: "user id for attribution", Value: "anonymous"},
			&cli.IntFlag{Name: "content-id", Usage: "TMDB content id", Required: true},
			&cli.StringFlag{Name: "title", Usage: "content title", Required: true},
			&cli.StringFlag{Name: "web-url", Usage: "known deep link for the title on the platform"},
			&cli.StringFlag{Name: "output", Usage: "write JSON to this file instead of stdout"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			name := cmd.String("platform")
			rec := internal.PlatformAvailability{
				ProviderName:  name,
				CanonicalName: platform.Normalize(name),
				WebURL:        cmd.String("web-url"),
			}
			link := affiliate.GenerateLink(rec, cmd.String("user"), int(cmd.Int("content-id")), cmd.String("title"))
			return writeResult(cmd.String("output"), link)
		},
	}
}

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "normalize",
		Usage:     "show the canonical identity for a vendor platform name",
		ArgsUsage: "<platform name>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			name := strings.Join(cmd.Args().Slice(), " ")
			if name == "" {
				return errors.New("platform name argument is required")
			}
			canonical := platform.Normalize(name)
			return writeResult("", map[string]any{
				"input":               name,
				"canonical":           canonical,
				"rank_score":          platform.Rank(canonical),
				"affiliate_supported": platform.AffiliateSupported(canonical),
			})
		},
	}
}

// writeResult renders v as indented JSON to path, or stdout when path is "".
func writeResult(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
