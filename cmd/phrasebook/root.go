package main

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/LiableFish/English-Phrasebook-App/pkg/config"
	"github.com/LiableFish/English-Phrasebook-App/pkg/content"
	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
	"github.com/LiableFish/English-Phrasebook-App/pkg/media"
)

// app carries what every command needs once flags and environment are read.
type app struct {
	fs  afero.Fs
	cfg *config.Config
	log *logrus.Logger
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs}
	var envFile, dbPath, mediaRoot string

	cobra.EnableCommandSorting = false
	rootCmd := &cobra.Command{
		Use:           "phrasebook",
		Short:         "English phrasebook content backend.",
		Long:          `Stores categories, levels, themes and words with their media and serves them over a read-only JSON API.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(fs, envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if cmd.Flags().Changed("media-root") {
				cfg.MediaRoot = mediaRoot
			}
			a.cfg = cfg
			a.log = cfg.NewLogger()
			a.log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file read before the environment")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides PHRASEBOOK_DB)")
	rootCmd.PersistentFlags().StringVar(&mediaRoot, "media-root", "", "Media directory (overrides MEDIA_ROOT)")

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newMigrateCommand(a))
	rootCmd.AddCommand(newImportCommand(a))
	rootCmd.AddCommand(newDeleteCommand(a))
	rootCmd.AddCommand(newClearFileCommand(a))
	rootCmd.AddCommand(newDictCommand(a))
	return rootCmd
}

// openDB opens and migrates the configured database.
func (a *app) openDB() (*sql.DB, error) {
	conn, err := db.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.InitDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return conn, nil
}

func (a *app) storage() (*media.Storage, error) {
	if err := a.fs.MkdirAll(a.cfg.MediaRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create media root %q: %w", a.cfg.MediaRoot, err)
	}
	return media.NewStorage(afero.NewBasePathFs(a.fs, a.cfg.MediaRoot)), nil
}

// service opens everything a mutating command needs. The caller closes conn.
func (a *app) service() (*content.Service, *sql.DB, error) {
	conn, err := a.openDB()
	if err != nil {
		return nil, nil, err
	}
	st, err := a.storage()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return content.NewService(conn, st, a.log), conn, nil
}
