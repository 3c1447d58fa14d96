package catalog

// Provider-defined status values. Status is otherwise opaque; only
// StatusOngoing changes planner behaviour.
const (
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
)

// Manga is one tracked publication.
type Manga struct {
	ID             string
	Hash           string
	Name           string
	NormalizedName string
	Authors        string
	Status         string
}

// IsOngoing reports whether the manga is a candidate for sync sweeps.
func (m Manga) IsOngoing() bool {
	return m.Status == StatusOngoing
}

// Chapter is one numbered installment of a manga.
type Chapter struct {
	ID      string
	Hash    string
	Number  ChapterNumber
	MangaID string
}

// Filter narrows QueryManga results. Empty fields match everything.
type Filter struct {
	Status         string
	NormalizedName string
	Authors        string
	// NameContains matches case-insensitively against the display name.
	NameContains string
}
