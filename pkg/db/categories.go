package db

import (
	"database/sql"
	"fmt"
)

const categoryColumns = `id, name, icon`

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	var icon sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &icon); err != nil {
		return Category{}, err
	}
	c.Icon = icon.String
	return c, nil
}

// ListCategories returns every category ordered by id.
func ListCategories(db DBExecutor) ([]Category, error) {
	rows, err := db.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCategory loads a category by id.
func GetCategory(db DBExecutor, id int64) (Category, error) {
	c, err := scanCategory(db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if err != nil {
		return Category{}, fmt.Errorf("get category %d: %w", id, classify(err))
	}
	return c, nil
}

// GetCategoryByName loads a category by its unique name.
func GetCategoryByName(db DBExecutor, name string) (Category, error) {
	c, err := scanCategory(db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE name = ?`, name))
	if err != nil {
		return Category{}, fmt.Errorf("get category %q: %w", name, classify(err))
	}
	return c, nil
}

// SaveCategory inserts c when it has no id and updates it otherwise. c.ID is
// set to the id of the stored row.
func SaveCategory(db DBExecutor, c *Category) error {
	if c.Name == "" {
		return fmt.Errorf("%w: category name must be non-empty", ErrInvalid)
	}
	id, err := saveRow(db, c.ID,
		`UPDATE categories SET name = ?, icon = ? WHERE id = ?`,
		`INSERT INTO categories (name, icon) VALUES (?, ?)`,
		`INSERT INTO categories (id, name, icon) VALUES (?, ?, ?)`,
		c.Name, nullableString(c.Icon),
	)
	if err != nil {
		return fmt.Errorf("save category %q: %w", c.Name, err)
	}
	c.ID = id
	return nil
}

// DeleteCategory removes a category; its themes and their words cascade.
func DeleteCategory(db DBExecutor, id int64) error {
	return deleteRow(db, "categories", id)
}
