package db

import (
	"fmt"
	"unicode/utf8"
)

const levelColumns = `id, code, name`

func scanLevel(row rowScanner) (Level, error) {
	var l Level
	if err := row.Scan(&l.ID, &l.Code, &l.Name); err != nil {
		return Level{}, err
	}
	return l, nil
}

// ListLevels returns every level ordered by id.
func ListLevels(db DBExecutor) ([]Level, error) {
	rows, err := db.Query(`SELECT ` + levelColumns + ` FROM levels ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Level{}
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLevel loads a level by id.
func GetLevel(db DBExecutor, id int64) (Level, error) {
	l, err := scanLevel(db.QueryRow(`SELECT `+levelColumns+` FROM levels WHERE id = ?`, id))
	if err != nil {
		return Level{}, fmt.Errorf("get level %d: %w", id, classify(err))
	}
	return l, nil
}

// GetLevelByCode loads a level by its unique code.
func GetLevelByCode(db DBExecutor, code string) (Level, error) {
	l, err := scanLevel(db.QueryRow(`SELECT `+levelColumns+` FROM levels WHERE code = ?`, code))
	if err != nil {
		return Level{}, fmt.Errorf("get level %q: %w", code, classify(err))
	}
	return l, nil
}

// SaveLevel inserts or updates l.
func SaveLevel(db DBExecutor, l *Level) error {
	if l.Code == "" || utf8.RuneCountInString(l.Code) > 2 {
		return fmt.Errorf("%w: level code must be 1-2 characters, got %q", ErrInvalid, l.Code)
	}
	if l.Name == "" {
		return fmt.Errorf("%w: level name must be non-empty", ErrInvalid)
	}
	id, err := saveRow(db, l.ID,
		`UPDATE levels SET code = ?, name = ? WHERE id = ?`,
		`INSERT INTO levels (code, name) VALUES (?, ?)`,
		`INSERT INTO levels (id, code, name) VALUES (?, ?, ?)`,
		l.Code, l.Name,
	)
	if err != nil {
		return fmt.Errorf("save level %q: %w", l.Code, err)
	}
	l.ID = id
	return nil
}

// DeleteLevel removes a level; themes referencing it cascade.
func DeleteLevel(db DBExecutor, id int64) error {
	return deleteRow(db, "levels", id)
}
