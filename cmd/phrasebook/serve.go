package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LiableFish/English-Phrasebook-App/pkg/api"
	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
	"github.com/LiableFish/English-Phrasebook-App/pkg/dictionary"
	"github.com/LiableFish/English-Phrasebook-App/pkg/media"
	"github.com/LiableFish/English-Phrasebook-App/pkg/transcribe"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var fetchDict bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), fetchDict, nil)
		},
	}
	cmd.Flags().BoolVar(&fetchDict, "fetch-dict", false, "Download the pronouncing dictionary when it is missing")
	return cmd
}

// serve runs the HTTP server until ctx is done. When ready is non-nil it
// receives the bound address once the listener is open.
func (a *app) serve(ctx context.Context, fetchDict bool, ready chan<- string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.cfg.Debug {
		a.log.Warn("DEBUG is enabled: the Secret header is not checked")
	}

	conn, err := a.openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	st, err := a.storage()
	if err != nil {
		return err
	}

	tr, err := transcribe.New(a.loadDictionary(ctx, fetchDict), transcribe.Options{
		CacheSize: a.cfg.TranscriptionCache,
		Log:       a.log,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(media.Collectors()...)
	registry.MustRegister(transcribe.Collectors()...)

	srv := api.NewServer(api.Options{
		DB:          conn,
		Transcriber: tr,
		Gate:        api.Gate{Secret: a.cfg.Secret, Debug: a.cfg.Debug},
		Media:       st.Fs(),
		MediaURL:    a.cfg.MediaURL,
		Log:         a.log,
		Registry:    registry,
	})

	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return err
	}
	httpServer := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.WithField("addr", ln.Addr().String()).Info("listening")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	if a.cfg.WarmWorkers > 0 {
		g.Go(func() error {
			phrases, err := db.ListWordNames(conn)
			if err != nil {
				a.log.WithError(err).Warn("transcription warm-up skipped")
				return nil
			}
			n, err := tr.Warm(gctx, phrases, a.cfg.WarmWorkers)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.WithError(err).Warn("transcription warm-up stopped")
			}
			a.log.WithField("phrases", n).Info("transcription cache warmed")
			return nil
		})
	}
	if ready != nil {
		ready <- ln.Addr().String()
	}
	return g.Wait()
}

// loadDictionary returns the pronouncing dictionary, or an empty one when it
// cannot be read; words then render with the unknown mark.
func (a *app) loadDictionary(ctx context.Context, fetch bool) *dictionary.Dictionary {
	path := a.cfg.DictPath
	if fetch {
		d := &dictionary.Downloader{Log: a.log}
		if err := d.Ensure(ctx, path); err != nil {
			a.log.WithError(err).Warnf("Failed to ensure dictionary at %s. Continuing without it.", path)
		}
	}
	if _, err := os.Stat(path); err != nil {
		a.log.WithField("path", path).Warn("pronouncing dictionary missing, run `phrasebook dict fetch`")
		return dictionary.New()
	}
	start := time.Now()
	dict, err := dictionary.Load(path)
	if err != nil {
		a.log.WithError(err).Warn("failed to load pronouncing dictionary")
		return dictionary.New()
	}
	a.log.WithFields(logrus.Fields{"words": dict.Len(), "took": time.Since(start)}).Info("dictionary loaded")
	return dict
}
