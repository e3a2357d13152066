package db

// Category is the top-level grouping of themes.
type Category struct {
	ID   int64
	Name string
	// Icon is the media-relative path of the icon image, empty when unset.
	Icon string
}

// Level is a proficiency level referenced by themes.
type Level struct {
	ID   int64
	Code string
	Name string
}

// Theme is a topic within a category/level pairing.
type Theme struct {
	ID         int64
	CategoryID int64
	LevelID    int64
	Name       string
	Photo      string
}

// Word is a phrase with its translation, usage example and optional audio.
type Word struct {
	ID          int64
	ThemeID     int64
	Name        string
	Translation string
	Example     string
	Sound       string
}

// ThemeFilter narrows ListThemes. Nil fields are not applied.
type ThemeFilter struct {
	CategoryID *int64
	LevelID    *int64
}
