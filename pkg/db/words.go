package db

import (
	"database/sql"
	"fmt"
)

const wordColumns = `id, theme_id, name, translation, example, sound`

func scanWord(row rowScanner) (Word, error) {
	var w Word
	var sound sql.NullString
	if err := row.Scan(&w.ID, &w.ThemeID, &w.Name, &w.Translation, &w.Example, &sound); err != nil {
		return Word{}, err
	}
	w.Sound = sound.String
	return w, nil
}

func queryWords(db DBExecutor, query string, args ...interface{}) ([]Word, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Word{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListWordsByTheme returns the words owned by a theme ordered by id.
func ListWordsByTheme(db DBExecutor, themeID int64) ([]Word, error) {
	return queryWords(db, `SELECT `+wordColumns+` FROM words WHERE theme_id = ? ORDER BY id`, themeID)
}

// ListWordNames returns every stored phrase.
func ListWordNames(db DBExecutor) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM words ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// GetWord loads a word by id.
func GetWord(db DBExecutor, id int64) (Word, error) {
	w, err := scanWord(db.QueryRow(`SELECT `+wordColumns+` FROM words WHERE id = ?`, id))
	if err != nil {
		return Word{}, fmt.Errorf("get word %d: %w", id, classify(err))
	}
	return w, nil
}

// GetWordByName loads a word by its unique phrase.
func GetWordByName(db DBExecutor, name string) (Word, error) {
	w, err := scanWord(db.QueryRow(`SELECT `+wordColumns+` FROM words WHERE name = ?`, name))
	if err != nil {
		return Word{}, fmt.Errorf("get word %q: %w", name, classify(err))
	}
	return w, nil
}

// SaveWord inserts or updates w.
func SaveWord(db DBExecutor, w *Word) error {
	if w.Name == "" {
		return fmt.Errorf("%w: phrase must be non-empty", ErrInvalid)
	}
	if w.ThemeID <= 0 {
		return fmt.Errorf("%w: word %q needs a theme", ErrInvalid, w.Name)
	}
	id, err := saveRow(db, w.ID,
		`UPDATE words SET theme_id = ?, name = ?, translation = ?, example = ?, sound = ? WHERE id = ?`,
		`INSERT INTO words (theme_id, name, translation, example, sound) VALUES (?, ?, ?, ?, ?)`,
		`INSERT INTO words (id, theme_id, name, translation, example, sound) VALUES (?, ?, ?, ?, ?, ?)`,
		w.ThemeID, w.Name, w.Translation, w.Example, nullableString(w.Sound),
	)
	if err != nil {
		return fmt.Errorf("save word %q: %w", w.Name, err)
	}
	w.ID = id
	return nil
}

// DeleteWord removes a word.
func DeleteWord(db DBExecutor, id int64) error {
	return deleteRow(db, "words", id)
}
