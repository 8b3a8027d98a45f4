// Package main provides the focusbox CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/app/player"
	"github.com/osa030/focusbox/internal/app/session"
	"github.com/osa030/focusbox/internal/app/source"
	"github.com/osa030/focusbox/internal/infra/config"
	"github.com/osa030/focusbox/internal/infra/logger"
	"github.com/osa030/focusbox/internal/infra/simplayer"
)

var (
	app        = kingpin.New("focusbox", "Duration-matched focus playlists")
	configPath = app.Flag("config", "Path to config file").Default("config/focusbox.yaml").Envar("FOCUSBOX_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: from config)").String()

	// build command
	buildCmd  = app.Command("build", "Build and print the playlist for a mood")
	buildMood = buildCmd.Arg("mood", "Mood name (default: session.default_mood)").String()

	// run command
	runCmd   = app.Command("run", "Play a focus session on the simulated player").Default()
	runMood  = runCmd.Arg("mood", "Mood name (default: session.default_mood)").String()
	runSpeed = runCmd.Flag("speed", "Simulation speed multiplier (default: simulator.speed)").Float64()

	// list commands
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
	listMoodsCmd   = app.Command("list-moods", "List configured moods and exit")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters(os.Stdout)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	switch command {
	case listMoodsCmd.FullCommand():
		printMoods(os.Stdout, cfg)
		return
	case buildCmd.FullCommand():
		err = build(cfg, *buildMood)
	default:
		err = run(cfg, *runMood)
	}
	if err != nil {
		zlog.Error().Msgf("focusbox: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// components are the pieces shared by build and run.
type components struct {
	manager *session.Manager
	adapter *player.Adapter
}

func assemble(cfg *config.Config, speed float64) (*components, error) {
	chain, err := source.NewProviderChainFromConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create provider chain")
	}

	index := newTrackIndex(chain)
	index.remember(cfg.Player.BootstrapTrackID, 1)

	runtime := simplayer.NewRuntime(index.lookup, simplayer.Config{
		Speed:          speed,
		BootstrapDelay: time.Duration(cfg.Simulator.BootstrapDelayMs) * time.Millisecond,
	})
	adapter := player.New(runtime, player.Config{
		PollInterval:     cfg.PollInterval(),
		BootstrapTrackID: cfg.Player.BootstrapTrackID,
	})

	manager, err := session.NewManager(cfg, index, adapter,
		session.WithTimerTick(time.Duration(float64(time.Second)/speed)))
	if err != nil {
		adapter.Destroy()
		return nil, errors.Wrap(err, "failed to create session manager")
	}
	return &components{manager: manager, adapter: adapter}, nil
}

// build prints the playlist for mood without playing it.
func build(cfg *config.Config, mood string) error {
	c, err := assemble(cfg, cfg.Simulator.Speed)
	if err != nil {
		return err
	}
	defer c.manager.Close()

	q, err := c.manager.Plan(context.Background(), mood)
	if err != nil {
		return err
	}
	printQueue(os.Stdout, q)
	return nil
}

// run plays a session for mood until it completes or a signal arrives.
func run(cfg *config.Config, mood string) error {
	speed := cfg.Simulator.Speed
	if *runSpeed > 0 {
		speed = *runSpeed
	}

	c, err := assemble(cfg, speed)
	if err != nil {
		return err
	}
	defer c.manager.Close()

	subID, notifications := c.manager.Subscribe(64)
	defer c.manager.Unsubscribe(subID)
	go logNotifications(notifications)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mountCtx, mountCancel := context.WithTimeout(ctx, cfg.MountTimeout())
	defer mountCancel()
	if err := c.adapter.Mount(mountCtx, cfg.Player.HostID, ""); err != nil {
		return errors.Wrap(err, "failed to mount player")
	}

	q, err := c.manager.Begin(ctx, mood)
	if err != nil {
		return err
	}
	printQueue(os.Stdout, q)
	zlog.Info().Msgf("focusbox: session running: mood=%s speed=%gx", q.Mood, speed)

	select {
	case <-c.manager.Done():
		st := c.manager.Status()
		zlog.Info().Msgf("focusbox: session finished: reason=%s played=%d/%d",
			st.Reason, st.Played, q.Len())
	case <-ctx.Done():
		zlog.Info().Msg("focusbox: received shutdown signal, stopping session")
		c.manager.Stop()
	}
	return nil
}
