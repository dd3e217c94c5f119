package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swapgraph/tileswap/internal/api"
	"github.com/swapgraph/tileswap/internal/app"
	"github.com/swapgraph/tileswap/internal/history"
	"github.com/swapgraph/tileswap/internal/input"
	"github.com/swapgraph/tileswap/internal/multiplayer"
	"github.com/swapgraph/tileswap/internal/render"
	"github.com/swapgraph/tileswap/internal/session"
	"github.com/swapgraph/tileswap/internal/sound"
	"github.com/swapgraph/tileswap/internal/state"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type sinkFunc func(title, text string)

func (f sinkFunc) Show(title, text string) { f(title, text) }

func main() {
	_ = godotenv.Load()

	var (
		server   = flag.String("server", env("TILESWAP_SERVER", "http://localhost:5000"), "game server base URL")
		wsURL    = flag.String("ws", env("TILESWAP_WS", ""), "multiplayer websocket URL (empty disables multiplayer)")
		name     = flag.String("name", env("TILESWAP_NAME", "Player"), "player name for multiplayer")
		nodes    = flag.Int("nodes", 6, "node count for new games")
		saveDir  = flag.String("save-dir", ".", "directory for save files")
		loadPath = flag.String("load", env("TILESWAP_LOAD", ""), "save file to load with the l key")
		dark     = flag.Bool("dark", false, "dark theme")
		logPath  = flag.String("log", env("TILESWAP_LOG", "tileswap.log"), "log file (the terminal belongs to the game)")
		debug    = flag.Bool("debug", false, "debug logging")
		create   = flag.Bool("create", false, "create a multiplayer room on startup")
		join     = flag.String("join", "", "join the given room code on startup")
		mode     = flag.String("mode", "realtime", "room mode for -create: realtime or turnbased")
	)
	flag.Parse()

	logger, err := newLogger(*logPath, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, options{
		server:   *server,
		wsURL:    *wsURL,
		name:     *name,
		nodes:    *nodes,
		saveDir:  *saveDir,
		loadPath: *loadPath,
		dark:     *dark,
		create:   *create,
		join:     *join,
		mode:     state.RoomMode(*mode),
	}); err != nil && err != context.Canceled {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	server, wsURL, name string
	nodes               int
	saveDir, loadPath   string
	dark, create        bool
	join                string
	mode                state.RoomMode
}

func newLogger(path string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func run(logger *zap.Logger, opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	theme := render.Theme{Dark: opts.dark}
	surface, err := render.NewTermSurface(theme)
	if err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	defer surface.Close()

	var audio io.Writer
	if path := os.Getenv("TILESWAP_AUDIO"); path != "" {
		if f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0); err == nil {
			defer f.Close()
			audio = f
		} else {
			logger.Warn("audio sink unavailable", zap.Error(err))
		}
	}
	sounds := sound.NewPlayer(audio)

	// Wiring order: render surface, then session, then interaction, then
	// multiplayer. The two closures below capture a by reference so the
	// session can reach the loop once it exists.
	var a *app.App
	sink := sinkFunc(func(title, text string) {
		if a != nil {
			a.Show(title, text)
		}
	})
	redraw := func() {
		if a != nil {
			a.RequestRedraw()
		}
	}

	client := api.NewClient(opts.server, logger)
	game := session.New(client, sink, app.TickerFrames{}, redraw, logger)
	ctrl := input.NewController(game, sounds, surface.Size, redraw, logger)
	game.OnStateReplaced(func(*state.GameState) { ctrl.ResetSelection() })

	engine := render.NewEngine(logger)
	a = app.New(surface, engine, game, ctrl, sounds, app.Options{
		NumNodes: opts.nodes,
		SaveDir:  opts.saveDir,
		LoadPath: opts.loadPath,
		Theme:    theme,
	}, logger)

	var store *history.Store
	if dsn := os.Getenv("TILESWAP_HISTORY_DSN"); dsn != "" {
		db, err := history.Open(dsn)
		if err != nil {
			logger.Warn("history archive unavailable", zap.Error(err))
		} else {
			store = history.NewStore(db)
		}
	}
	a.SetHistory(store)

	game.OnWin(func(moves, optimal int) {
		sounds.Victory()
		title, text := session.WinMessage(moves, optimal)
		a.Show(title, text)
		g := game.State()
		nodeCount := 0
		if g != nil {
			nodeCount = len(g.Nodes)
		}
		if err := store.RecordWin(ctx, "single", nodeCount, moves, optimal, session.Rating(moves, optimal)); err != nil {
			logger.Warn("history record failed", zap.Error(err))
		}
	})

	if opts.wsURL != "" {
		mp, err := multiplayer.Dial(ctx, opts.wsURL, game, ctrl, sink, sounds, logger)
		if err != nil {
			return fmt.Errorf("multiplayer dial: %w", err)
		}
		defer mp.Close()
		a.SetMultiplayer(mp)
		game.OnSwapApplied(mp.NotifyMove)
		mp.OnRoomUpdate(func(*state.RoomInfo) { redraw() })
		mp.OnLeftRoom(redraw)

		switch {
		case opts.create:
			go func() {
				if err := mp.CreateRoom(ctx, opts.name, opts.mode, opts.nodes); err != nil {
					logger.Warn("create room failed", zap.Error(err))
				}
			}()
		case opts.join != "":
			mp.JoinRoom(opts.join, opts.name)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return a.Run(ctx)
	})
	g.Go(func() error {
		// Terminal event pump. Interrupt unblocks the poll on shutdown.
		go func() {
			<-ctx.Done()
			surface.Interrupt()
		}()
		for ctx.Err() == nil {
			pe, ke, ok := surface.PollEvent()
			if !ok {
				continue
			}
			if pe != nil {
				a.Inbox() <- app.Pointer{Ev: *pe}
			} else if ke != nil {
				a.Inbox() <- app.Key{Ev: *ke}
			}
		}
		return ctx.Err()
	})
	return g.Wait()
}
