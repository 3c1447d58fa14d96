package organizer

import (
	"strconv"
	"strings"

	"mgdl/internal/catalog"
)

// ChapterDirPrefix starts every chapter directory name.
const ChapterDirPrefix = "chapter_"

// ChapterDir returns the directory name for a chapter, e.g. "chapter_0012-05".
func ChapterDir(number catalog.ChapterNumber) string {
	return ChapterDirPrefix + number.String()
}

// ParseChapterDir decodes a canonical chapter directory name.
func ParseChapterDir(name string) (catalog.ChapterNumber, bool) {
	key, ok := strings.CutPrefix(name, ChapterDirPrefix)
	if !ok {
		return catalog.ChapterNumber{}, false
	}
	number, err := catalog.ParseChapterNumber(key)
	if err != nil {
		return catalog.ChapterNumber{}, false
	}
	return number, true
}

// ChapterMajor extracts the leading major digits from a chapter directory
// name. Only the major part is required, so "chapter_0012" and
// "chapter_0012-05" both yield 12.
func ChapterMajor(name string) (uint, bool) {
	rest, ok := strings.CutPrefix(name, ChapterDirPrefix)
	if !ok {
		return 0, false
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	major, err := strconv.ParseUint(rest[:end], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(major), true
}

// PageFile renders the destination file name for a page token. Purely
// numeric tokens shorter than digits are left-padded with zeros; every other
// token is kept as written, leading zeros included.
func PageFile(token, ext string, digits int) string {
	page := token
	if pad := digits - len(token); pad > 0 && isNumeric(token) {
		page = strings.Repeat("0", pad) + token
	}
	return page + strings.ToLower(ext)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
