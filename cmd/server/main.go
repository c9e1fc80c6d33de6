package main

import (
	"ascension-server/internal/agent"
	"ascension-server/internal/config"
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/internal/engine"
	"ascension-server/internal/infrastructure/storage"
	"ascension-server/internal/replay"
	"ascension-server/internal/server"
	"ascension-server/internal/version"
	"ascension-server/pkg/logger"
	"ascension-server/pkg/rng"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Конфигурация
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		seed       uint
		replayList string
		autoplay   int
	)
	flag.UintVar(&seed, "seed", uint(cfg.Seed), "Master seed for new runs (0 for random)")
	flag.StringVar(&replayList, "replay", "", "Comma separated .asrp replay files to verify headlessly")
	flag.IntVar(&autoplay, "autoplay", 0, "Play N runs with the bot, save and verify their replays, then exit")
	flag.Parse()
	cfg.Seed = uint32(seed)

	logger.InitWith(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Log.Info("Starting Ascension...")
	logger.Log.Info(version.String())

	// 2. Каталог контента
	catalog, err := content.LoadDir(cfg.ContentDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load content catalog")
	}

	// РЕЖИМ РЕПЛЕЯ
	if replayList != "" {
		logger.Log.Info("Mode: Replay Verification")
		if err := verifyFiles(catalog, strings.Split(replayList, ",")); err != nil {
			logger.Log.WithError(err).Error("Replay verification failed")
			os.Exit(1)
		}
		return
	}

	// РЕЖИМ БОТА
	if autoplay > 0 {
		logger.Log.Infof("Mode: Autoplay (%d runs)", autoplay)
		if err := autoplayRuns(catalog, cfg, autoplay); err != nil {
			logger.Log.WithError(err).Error("Autoplay failed")
			os.Exit(1)
		}
		return
	}

	if cfg.Seed != 0 {
		logger.Log.Infof("Using explicit master seed: %d", cfg.Seed)
	} else {
		logger.Log.Info("Using per-run random seeds")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Хранилище
	store, err := storage.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close storage")
		}
	}()

	replays, err := storage.NewReplayService(cfg.ReplayDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to prepare replay dir")
	}

	// 4. Сервер
	srv := server.New(server.Deps{
		Config:  cfg,
		Catalog: catalog,
		Store:   store,
		Replays: replays,
	})
	if err := srv.Run(ctx); err != nil {
		logger.Log.WithError(err).Error("Server stopped with error")
		return
	}
	logger.Log.Info("Done.")
}

// verifyFiles проигрывает каждый файл на своем раннере, параллельно.
// Ошибка - если хотя бы один файл не прочитан или разошелся.
func verifyFiles(catalog content.Catalog, paths []string) error {
	svc := &storage.ReplayService{}

	var (
		mu     sync.Mutex
		failed []string
	)
	g := new(errgroup.Group)
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		g.Go(func() error {
			log := logger.Log.WithFields(logrus.Fields{"component": "replay", "file": path})

			rf, err := svc.Load(path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			rep := replay.Verify(catalog, rf.Events)
			if !rep.OK {
				log.WithFields(logrus.Fields{
					"steps": rep.Steps,
					"total": rep.Total,
				}).Error(rep.Error)
				mu.Lock()
				failed = append(failed, path)
				mu.Unlock()
				return nil
			}

			fields := logrus.Fields{"seed": rf.Seed, "events": rep.Total}
			if rep.Final != nil {
				fields["floor"] = rep.Final.FloorIndex
				fields["outcome"] = string(rep.Final.Run.RunOutcome)
			}
			log.WithFields(fields).Info("Replay verified")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return errors.New("diverged: " + strings.Join(failed, ", "))
	}
	return nil
}

// autoplayRuns - n ранов ботом, параллельно. Сиды выводятся из мастер-зерна,
// пути перебираются по кругу. Каждая лента пишется в файл и сразу проверяется раннером.
func autoplayRuns(catalog *content.YAMLCatalog, cfg config.Config, n int) error {
	replays, err := storage.NewReplayService(cfg.ReplayDir)
	if err != nil {
		return err
	}
	paths := content.Paths(catalog)
	if len(paths) == 0 {
		return errors.New("catalog has no echo paths")
	}
	characters := catalog.CharacterIDs()

	root := cfg.Seed
	if root == 0 {
		root = uint32(time.Now().UnixNano())
	}

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := range n {
		g.Go(func() error {
			p := engine.RunParams{
				RunID:        fmt.Sprintf("autoplay-%d-%d", root, i),
				Seed:         rng.DeriveSeed(root, fmt.Sprintf("autoplay:%d", i)),
				OriginPathID: paths[i%len(paths)],
				RunPathID:    paths[(i+1)%len(paths)],
			}
			if len(characters) > 0 {
				p.CharacterID = characters[i%len(characters)]
			}
			log := logger.Component("autoplay").WithFields(logrus.Fields{"run_id": p.RunID, "seed": p.Seed})

			bot := agent.NewBot(engine.NewSession(catalog, engine.Config{Seed: p.Seed, Policy: domain.PolicyAttackOnly}))
			if _, err := bot.Play(p); err != nil {
				return fmt.Errorf("run %s: %w", p.RunID, err)
			}

			events := bot.Session.Events()
			if rep := replay.Verify(catalog, events); !rep.OK {
				return fmt.Errorf("run %s diverged at %d/%d: %s", p.RunID, rep.Steps, rep.Total, rep.Error)
			}
			path, err := replays.Save(p.RunID, &storage.ReplayFile{
				Seed:      p.Seed,
				Timestamp: time.Now().UnixMilli(),
				Events:    events,
			})
			if err != nil {
				return err
			}
			log.WithField("path", path).Info("Autoplay run saved")
			return nil
		})
	}
	return g.Wait()
}
