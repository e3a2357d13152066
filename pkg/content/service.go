package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
	"github.com/LiableFish/English-Phrasebook-App/pkg/media"
)

// Kind names a content entity in commands and log fields.
type Kind string

const (
	KindCategory Kind = "category"
	KindLevel    Kind = "level"
	KindTheme    Kind = "theme"
	KindWord     Kind = "word"
)

// ErrNoFile is returned when clearing the file of an entity that has none.
var ErrNoFile = errors.New("entity has no file field")

// ParseKind accepts the singular or plural entity name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "category", "categories":
		return KindCategory, nil
	case "level", "levels":
		return KindLevel, nil
	case "theme", "themes":
		return KindTheme, nil
	case "word", "words":
		return KindWord, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Service owns every record mutation. It validates and stores uploads, writes
// rows and fires the media lifecycle hooks at the points they belong to.
type Service struct {
	db      *sql.DB
	storage *media.Storage
	hooks   *media.Lifecycle
	log     logrus.FieldLogger
}

func NewService(conn *sql.DB, storage *media.Storage, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:      conn,
		storage: storage,
		hooks:   media.NewLifecycle(storage, log),
		log:     log,
	}
}

// txFunc performs database writes inside a transaction.
type txFunc func(tx *sql.Tx) error

func (s *Service) inTx(ctx context.Context, fn txFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// mutation describes one save of a file-bearing record.
type mutation struct {
	kind      Kind
	id        int64
	root      media.Root
	name      string
	file      *string
	validator media.FileValidator
	upload    *media.Upload
	previous  func(tx *sql.Tx) (media.Record, error)
	write     func(tx *sql.Tx) error
}

func (s *Service) save(ctx context.Context, m mutation) error {
	var stored string
	if m.upload != nil {
		if err := m.validator.Validate(m.upload); err != nil {
			return err
		}
		p, err := s.storage.Save(m.root, m.name, m.upload)
		if err != nil {
			return fmt.Errorf("store %s file: %w", m.kind, err)
		}
		stored = p
		*m.file = p
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// First-time creation has no previous file to compare against.
		if m.id != 0 {
			prev, err := m.previous(tx)
			switch {
			case errors.Is(err, db.ErrNotFound):
				// Deleted concurrently: nothing left to clean up.
				s.log.WithFields(logrus.Fields{"kind": m.kind, "id": m.id}).
					Debug("previous state not found, skipping file cleanup")
			case err != nil:
				return err
			default:
				s.hooks.OnBeforeSave(prev, media.Record{Root: m.root, Name: m.name, File: *m.file})
			}
		}
		return m.write(tx)
	})
	if err != nil && stored != "" {
		// The row was not written, so the fresh upload is unreferenced.
		s.hooks.OnAfterDelete(media.Record{Root: m.root, Name: m.name, File: stored})
	}
	return err
}

// SaveCategory creates or updates c. A non-nil icon replaces c.Icon.
func (s *Service) SaveCategory(ctx context.Context, c *db.Category, icon *media.Upload) error {
	return s.save(ctx, mutation{
		kind:      KindCategory,
		id:        c.ID,
		root:      media.Icons,
		name:      c.Name,
		file:      &c.Icon,
		validator: media.ImageValidator,
		upload:    icon,
		previous: func(tx *sql.Tx) (media.Record, error) {
			prev, err := db.GetCategory(tx, c.ID)
			return categoryRecord(prev), err
		},
		write: func(tx *sql.Tx) error { return db.SaveCategory(tx, c) },
	})
}

// SaveLevel creates or updates l.
func (s *Service) SaveLevel(ctx context.Context, l *db.Level) error {
	return s.inTx(ctx, func(tx *sql.Tx) error { return db.SaveLevel(tx, l) })
}

// SaveTheme creates or updates t. A non-nil photo replaces t.Photo.
func (s *Service) SaveTheme(ctx context.Context, t *db.Theme, photo *media.Upload) error {
	return s.save(ctx, mutation{
		kind:      KindTheme,
		id:        t.ID,
		root:      media.Photos,
		name:      t.Name,
		file:      &t.Photo,
		validator: media.ImageValidator,
		upload:    photo,
		previous: func(tx *sql.Tx) (media.Record, error) {
			prev, err := db.GetTheme(tx, t.ID)
			return themeRecord(prev), err
		},
		write: func(tx *sql.Tx) error { return db.SaveTheme(tx, t) },
	})
}

// SaveWord creates or updates w. A non-nil sound replaces w.Sound.
func (s *Service) SaveWord(ctx context.Context, w *db.Word, sound *media.Upload) error {
	return s.save(ctx, mutation{
		kind:      KindWord,
		id:        w.ID,
		root:      media.Sounds,
		name:      w.Name,
		file:      &w.Sound,
		validator: media.SoundValidator,
		upload:    sound,
		previous: func(tx *sql.Tx) (media.Record, error) {
			prev, err := db.GetWord(tx, w.ID)
			return wordRecord(prev), err
		},
		write: func(tx *sql.Tx) error { return db.SaveWord(tx, w) },
	})
}

func categoryRecord(c db.Category) media.Record {
	return media.Record{Root: media.Icons, Name: c.Name, File: c.Icon}
}

func themeRecord(t db.Theme) media.Record {
	return media.Record{Root: media.Photos, Name: t.Name, File: t.Photo}
}

func wordRecord(w db.Word) media.Record {
	return media.Record{Root: media.Sounds, Name: w.Name, File: w.Sound}
}
