package db

import (
	"database/sql"
	"fmt"
	"strings"
)

const themeColumns = `id, category_id, level_id, name, photo`

func scanTheme(row rowScanner) (Theme, error) {
	var t Theme
	var photo sql.NullString
	if err := row.Scan(&t.ID, &t.CategoryID, &t.LevelID, &t.Name, &photo); err != nil {
		return Theme{}, err
	}
	t.Photo = photo.String
	return t, nil
}

// ListThemes returns themes matching every non-nil field of f, ordered by id.
func ListThemes(db DBExecutor, f ThemeFilter) ([]Theme, error) {
	var where []string
	var args []interface{}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.LevelID != nil {
		where = append(where, "level_id = ?")
		args = append(args, *f.LevelID)
	}
	query := `SELECT ` + themeColumns + ` FROM themes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Theme{}
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTheme loads a theme by id.
func GetTheme(db DBExecutor, id int64) (Theme, error) {
	t, err := scanTheme(db.QueryRow(`SELECT `+themeColumns+` FROM themes WHERE id = ?`, id))
	if err != nil {
		return Theme{}, fmt.Errorf("get theme %d: %w", id, classify(err))
	}
	return t, nil
}

// GetThemeByName loads a theme by its unique name.
func GetThemeByName(db DBExecutor, name string) (Theme, error) {
	t, err := scanTheme(db.QueryRow(`SELECT `+themeColumns+` FROM themes WHERE name = ?`, name))
	if err != nil {
		return Theme{}, fmt.Errorf("get theme %q: %w", name, classify(err))
	}
	return t, nil
}

// SaveTheme inserts or updates t.
func SaveTheme(db DBExecutor, t *Theme) error {
	if t.Name == "" {
		return fmt.Errorf("%w: theme name must be non-empty", ErrInvalid)
	}
	if t.CategoryID <= 0 || t.LevelID <= 0 {
		return fmt.Errorf("%w: theme %q needs a category and a level", ErrInvalid, t.Name)
	}
	id, err := saveRow(db, t.ID,
		`UPDATE themes SET category_id = ?, level_id = ?, name = ?, photo = ? WHERE id = ?`,
		`INSERT INTO themes (category_id, level_id, name, photo) VALUES (?, ?, ?, ?)`,
		`INSERT INTO themes (id, category_id, level_id, name, photo) VALUES (?, ?, ?, ?, ?)`,
		t.CategoryID, t.LevelID, t.Name, nullableString(t.Photo),
	)
	if err != nil {
		return fmt.Errorf("save theme %q: %w", t.Name, err)
	}
	t.ID = id
	return nil
}

// DeleteTheme removes a theme; its words cascade.
func DeleteTheme(db DBExecutor, id int64) error {
	return deleteRow(db, "themes", id)
}
