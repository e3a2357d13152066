package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
	"github.com/LiableFish/English-Phrasebook-App/pkg/media"
)

// Seed is a YAML content file. File fields are paths relative to the seed file.
//
//	levels:
//	  - {code: A1, name: Beginner}
//	categories:
//	  - name: Travel
//	    icon: files/travel.png
//	    themes:
//	      - name: Airport
//	        level: A1
//	        words:
//	          - {name: boarding pass, translation: ..., example: ..., sound: files/pass.mp3}
type Seed struct {
	Levels     []SeedLevel    `yaml:"levels"`
	Categories []SeedCategory `yaml:"categories"`
}

type SeedLevel struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type SeedCategory struct {
	Name   string      `yaml:"name"`
	Icon   string      `yaml:"icon,omitempty"`
	Themes []SeedTheme `yaml:"themes"`
}

type SeedTheme struct {
	Name  string     `yaml:"name"`
	Level string     `yaml:"level"`
	Photo string     `yaml:"photo,omitempty"`
	Words []SeedWord `yaml:"words"`
}

type SeedWord struct {
	Name        string `yaml:"name"`
	Translation string `yaml:"translation"`
	Example     string `yaml:"example"`
	Sound       string `yaml:"sound,omitempty"`
}

// ImportStats counts what an import wrote.
type ImportStats struct {
	Levels     int
	Categories int
	Themes     int
	Words      int
	Files      int
}

// LoadSeed decodes a seed file, rejecting unknown keys.
func LoadSeed(fs afero.Fs, name string) (*Seed, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Seed
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", name, err)
	}
	return &s, nil
}

// Import upserts seed content by name. Files are read from files; a file whose
// storage path already holds the stored attachment is not uploaded again.
func (s *Service) Import(ctx context.Context, seed *Seed, files afero.Fs) (ImportStats, error) {
	var st ImportStats

	levels := map[string]int64{}
	for _, sl := range seed.Levels {
		l, err := db.GetLevelByCode(s.db, sl.Code)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return st, err
		}
		l.Code, l.Name = sl.Code, sl.Name
		if err := s.SaveLevel(ctx, &l); err != nil {
			return st, err
		}
		levels[l.Code] = l.ID
		st.Levels++
	}

	for _, sc := range seed.Categories {
		c, err := db.GetCategoryByName(s.db, sc.Name)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return st, err
		}
		c.Name = sc.Name
		up, err := s.seedUpload(files, media.Icons, c.Name, c.Icon, sc.Icon)
		if err != nil {
			return st, err
		}
		err = s.SaveCategory(ctx, &c, up)
		closeUpload(up, &st)
		if err != nil {
			return st, err
		}
		st.Categories++

		for _, stm := range sc.Themes {
			if err := s.importTheme(ctx, c.ID, stm, levels, files, &st); err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

func (s *Service) importTheme(ctx context.Context, categoryID int64, stm SeedTheme, levels map[string]int64, files afero.Fs, st *ImportStats) error {
	levelID, ok := levels[stm.Level]
	if !ok {
		l, err := db.GetLevelByCode(s.db, stm.Level)
		if err != nil {
			return fmt.Errorf("theme %q: level %q: %w", stm.Name, stm.Level, err)
		}
		levelID = l.ID
	}

	t, err := db.GetThemeByName(s.db, stm.Name)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}
	t.Name, t.CategoryID, t.LevelID = stm.Name, categoryID, levelID
	up, err := s.seedUpload(files, media.Photos, t.Name, t.Photo, stm.Photo)
	if err != nil {
		return err
	}
	err = s.SaveTheme(ctx, &t, up)
	closeUpload(up, st)
	if err != nil {
		return err
	}
	st.Themes++

	for _, sw := range stm.Words {
		w, err := db.GetWordByName(s.db, sw.Name)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}
		w.ThemeID, w.Name, w.Translation, w.Example = t.ID, sw.Name, sw.Translation, sw.Example
		up, err := s.seedUpload(files, media.Sounds, w.Name, w.Sound, sw.Sound)
		if err != nil {
			return err
		}
		err = s.SaveWord(ctx, &w, up)
		closeUpload(up, st)
		if err != nil {
			return err
		}
		st.Words++
	}
	return nil
}

// seedUpload opens src unless the record already stores that file.
func (s *Service) seedUpload(files afero.Fs, root media.Root, name, current, src string) (*media.Upload, error) {
	if src == "" {
		return nil, nil
	}
	target := media.BuildPath(root, name, media.ValidFilename(path.Base(src)))
	if current == target && s.storage.FileExists(current) {
		return nil, nil
	}
	up, err := media.OpenUpload(files, src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	return up, nil
}

func closeUpload(up *media.Upload, st *ImportStats) {
	if up == nil {
		return
	}
	up.Close()
	st.Files++
}
