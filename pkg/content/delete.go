package content

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
	"github.com/LiableFish/English-Phrasebook-App/pkg/media"
)

// The database cascades parent deletes to children without reporting them, so
// the file-bearing descendants are collected first and cleaned up after
// commit, children before parents.

// DeleteCategory removes a category with its themes and words.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	var records []media.Record
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		c, err := db.GetCategory(tx, id)
		if err != nil {
			return err
		}
		themes, err := db.ListThemes(tx, db.ThemeFilter{CategoryID: &id})
		if err != nil {
			return fmt.Errorf("list themes of category %d: %w", id, err)
		}
		if records, err = themeTree(tx, themes); err != nil {
			return err
		}
		records = append(records, categoryRecord(c))
		return db.DeleteCategory(tx, id)
	})
	if err != nil {
		return err
	}
	s.afterDelete(records)
	return nil
}

// DeleteLevel removes a level with the themes referencing it and their words.
func (s *Service) DeleteLevel(ctx context.Context, id int64) error {
	var records []media.Record
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := db.GetLevel(tx, id); err != nil {
			return err
		}
		themes, err := db.ListThemes(tx, db.ThemeFilter{LevelID: &id})
		if err != nil {
			return fmt.Errorf("list themes of level %d: %w", id, err)
		}
		if records, err = themeTree(tx, themes); err != nil {
			return err
		}
		return db.DeleteLevel(tx, id)
	})
	if err != nil {
		return err
	}
	s.afterDelete(records)
	return nil
}

// DeleteTheme removes a theme with its words.
func (s *Service) DeleteTheme(ctx context.Context, id int64) error {
	var records []media.Record
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := db.GetTheme(tx, id)
		if err != nil {
			return err
		}
		if records, err = themeTree(tx, []db.Theme{t}); err != nil {
			return err
		}
		return db.DeleteTheme(tx, id)
	})
	if err != nil {
		return err
	}
	s.afterDelete(records)
	return nil
}

// DeleteWord removes a single word.
func (s *Service) DeleteWord(ctx context.Context, id int64) error {
	var rec media.Record
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		w, err := db.GetWord(tx, id)
		if err != nil {
			return err
		}
		rec = wordRecord(w)
		return db.DeleteWord(tx, id)
	})
	if err != nil {
		return err
	}
	s.afterDelete([]media.Record{rec})
	return nil
}

// Delete dispatches on kind.
func (s *Service) Delete(ctx context.Context, kind Kind, id int64) error {
	switch kind {
	case KindCategory:
		return s.DeleteCategory(ctx, id)
	case KindLevel:
		return s.DeleteLevel(ctx, id)
	case KindTheme:
		return s.DeleteTheme(ctx, id)
	case KindWord:
		return s.DeleteWord(ctx, id)
	}
	return fmt.Errorf("unknown kind %q", kind)
}

// themeTree returns the records of every word of themes followed by the themes.
func themeTree(tx *sql.Tx, themes []db.Theme) ([]media.Record, error) {
	var out []media.Record
	for _, t := range themes {
		words, err := db.ListWordsByTheme(tx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("list words of theme %d: %w", t.ID, err)
		}
		for _, w := range words {
			out = append(out, wordRecord(w))
		}
	}
	for _, t := range themes {
		out = append(out, themeRecord(t))
	}
	return out, nil
}

func (s *Service) afterDelete(records []media.Record) {
	for _, r := range records {
		s.hooks.OnAfterDelete(r)
	}
}

// ClearFile unsets the file field of the record, removing the stored file.
func (s *Service) ClearFile(ctx context.Context, kind Kind, id int64) error {
	switch kind {
	case KindCategory:
		c, err := db.GetCategory(s.db, id)
		if err != nil {
			return err
		}
		c.Icon = ""
		return s.SaveCategory(ctx, &c, nil)
	case KindTheme:
		t, err := db.GetTheme(s.db, id)
		if err != nil {
			return err
		}
		t.Photo = ""
		return s.SaveTheme(ctx, &t, nil)
	case KindWord:
		w, err := db.GetWord(s.db, id)
		if err != nil {
			return err
		}
		w.Sound = ""
		return s.SaveWord(ctx, &w, nil)
	case KindLevel:
		return fmt.Errorf("%w: %s", ErrNoFile, kind)
	}
	return fmt.Errorf("unknown kind %q", kind)
}
