package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultMinor is the sub-chapter index assumed when a label has none.
const DefaultMinor = 1

// ErrInvalidChapterNumber reports a chapter label or key that cannot be decoded.
var ErrInvalidChapterNumber = errors.New("invalid chapter number")

// ChapterNumber is a chapter index split into a major number and a minor
// sub-chapter index. Its canonical string form is "%04d-%02d" (e.g.
// "0012-05"), which doubles as the sort key and the chapter directory suffix.
type ChapterNumber struct {
	Major uint
	Minor uint
}

// String returns the canonical key.
func (n ChapterNumber) String() string {
	return fmt.Sprintf("%04d-%02d", n.Major, n.Minor)
}

// Compare orders chapter numbers numerically: -1, 0, or +1.
func (n ChapterNumber) Compare(other ChapterNumber) int {
	switch {
	case n.Major < other.Major:
		return -1
	case n.Major > other.Major:
		return 1
	case n.Minor < other.Minor:
		return -1
	case n.Minor > other.Minor:
		return 1
	default:
		return 0
	}
}

// ParseChapterNumber decodes a canonical key such as "0012-05".
func ParseChapterNumber(key string) (ChapterNumber, error) {
	majorPart, minorPart, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok {
		return ChapterNumber{}, fmt.Errorf("%w: %q lacks a minor index", ErrInvalidChapterNumber, key)
	}
	major, err := parseIndex(majorPart)
	if err != nil {
		return ChapterNumber{}, fmt.Errorf("%w: %q: %v", ErrInvalidChapterNumber, key, err)
	}
	minor, err := parseIndex(minorPart)
	if err != nil {
		return ChapterNumber{}, fmt.Errorf("%w: %q: %v", ErrInvalidChapterNumber, key, err)
	}
	return ChapterNumber{Major: major, Minor: minor}, nil
}

// ParseChapterLabel decodes a loosely formatted chapter label as found in
// provider listings ("18", "5.5") and raw page filenames ("c012", "c012.5").
// Leading non-digit marker characters are stripped; a missing minor index
// defaults to DefaultMinor.
func ParseChapterLabel(label string) (ChapterNumber, error) {
	trimmed := strings.TrimLeftFunc(strings.TrimSpace(label), func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	majorPart, minorPart, hasMinor := strings.Cut(trimmed, ".")
	major, err := parseIndex(majorPart)
	if err != nil {
		return ChapterNumber{}, fmt.Errorf("%w: %q: %v", ErrInvalidChapterNumber, label, err)
	}
	number := ChapterNumber{Major: major, Minor: DefaultMinor}
	if hasMinor {
		minor, err := parseIndex(minorPart)
		if err != nil {
			return ChapterNumber{}, fmt.Errorf("%w: %q: %v", ErrInvalidChapterNumber, label, err)
		}
		number.Minor = minor
	}
	return number, nil
}

func parseIndex(value string) (uint, error) {
	if value == "" {
		return 0, errors.New("empty index")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}
