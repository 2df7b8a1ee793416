package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/tamaureus/tamaureus/internal/audio"
	"github.com/tamaureus/tamaureus/internal/catalog"
	"github.com/tamaureus/tamaureus/internal/config"
	"github.com/tamaureus/tamaureus/internal/engine"
	"github.com/tamaureus/tamaureus/internal/errmsg"
	"github.com/tamaureus/tamaureus/internal/importer"
	"github.com/tamaureus/tamaureus/internal/logging"
	"github.com/tamaureus/tamaureus/internal/mpris"
	"github.com/tamaureus/tamaureus/internal/notify"
	"github.com/tamaureus/tamaureus/internal/stderr"
	"github.com/tamaureus/tamaureus/internal/ui/nowplaying"
)

const usage = `usage:
  tamaureus [FILE]          play FILE
  tamaureus import PATH...  add files or folders to the library
  tamaureus list [VIEW]     print the library; VIEW is tracks, artists or albums
  tamaureus remove FILE...  forget files without deleting them
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fail(errmsg.Format(errmsg.OpConfigLoad, err))
	}

	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "import":
			err = runImport(cfg, args[1:])
		case "list":
			view := ""
			if len(args) > 1 {
				view = args[1]
			}
			err = runList(cfg, view)
		case "remove":
			err = runRemove(cfg, args[1:])
		case "-h", "--help", "help":
			fmt.Print(usage)
			return
		default:
			err = runPlayer(cfg, args[0])
		}
	} else {
		err = runPlayer(cfg, "")
	}
	if err != nil {
		fail(err.Error())
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func openLog(cfg *config.Config) (*logrus.Logger, func(), error) {
	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, errors.New(errmsg.Format(errmsg.OpLogOpen, err))
	}
	log, f, err := logging.Open(path, cfg.Log)
	if err != nil {
		return nil, nil, errors.New(errmsg.Format(errmsg.OpLogOpen, err))
	}
	return log, func() { f.Close() }, nil
}

func runPlayer(cfg *config.Config, path string) error {
	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	// ALSA writes to fd 2 and would tear the screen.
	if err := stderr.Start(log); err != nil {
		log.WithError(err).Warn("stderr capture unavailable")
	}
	defer stderr.Stop()

	speaker, err := audio.OpenSpeaker(cfg.Playback.SampleRate, cfg.Playback.Buffer)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpDeviceOpen, err))
	}

	preload := cfg.Playback.Preload
	client := engine.Start(speaker, engine.Options{
		TickInterval: cfg.Playback.TickInterval,
		Volume:       cfg.VolumeLevel(),
		Logger:       log,
		Open: func(p string) (audio.Source, error) {
			return audio.Open(p, audio.OpenOptions{Preload: preload})
		},
	})
	defer client.Close()

	if cfg.Desktop.MPRIS {
		adapter, err := mpris.New(client, log)
		if err != nil {
			log.WithError(err).Warn("mpris unavailable")
		} else {
			defer adapter.Close()
		}
	}

	if cfg.Desktop.Notifications {
		notifier, _ := notify.New()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go notify.Watch(ctx, client, client.Subscribe(), notifier, log)
	}

	sub := client.Subscribe()
	defer client.Unsubscribe(sub)

	if path != "" {
		if _, err := client.Play(path); err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpPlaybackStart, path, err))
		}
	}

	start := time.Now()
	p := tea.NewProgram(nowplaying.New(client, sub), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	log.WithField("uptime", time.Since(start).Round(time.Second)).Info("exiting")
	return nil
}

func openCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, errors.New(errmsg.Format(errmsg.OpCatalogOpen, err))
	}
	c, err := catalog.Open(path)
	if err != nil {
		return nil, errors.New(errmsg.Format(errmsg.OpCatalogOpen, err))
	}
	return c, nil
}

// musicDir resolves the import destination. The configured folder wins and
// is remembered in the catalog for runs without one.
func musicDir(cfg *config.Config, c *catalog.Catalog) (string, error) {
	if dir := cfg.Library.MusicDir; dir != "" {
		return dir, c.SetMusicDir(dir)
	}
	return c.MusicDir()
}

func runImport(cfg *config.Config, paths []string) error {
	if len(paths) == 0 {
		fmt.Print(usage)
		return errors.New("import: no paths given")
	}

	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	c, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	dir, err := musicDir(cfg, c)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogOpen, err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := importer.New(c, dir, log).ImportAll(ctx, paths)
	for _, f := range report.Failed {
		fmt.Fprintln(os.Stderr, errmsg.FormatWith(errmsg.OpImportFile, f.Path, f.Err))
	}
	fmt.Println(report.String())
	return err
}

func runList(cfg *config.Config, view string) error {
	c, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return printListing(os.Stdout, c, view)
}

func runRemove(cfg *config.Config, paths []string) error {
	if len(paths) == 0 {
		fmt.Print(usage)
		return errors.New("remove: no files given")
	}
	c, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return removeTracks(os.Stdout, c, paths)
}
