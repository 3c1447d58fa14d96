package weebcentral

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mgdl/internal/catalog"
	"mgdl/internal/textutil"
)

var seriesHashPattern = regexp.MustCompile(`/series/([^/?#]+)(?:[/?#]|$)`)

// ErrParse marks HTML that lacks an expected element.
var ErrParse = errors.New("unexpected page structure")

// ExtractHash returns the series hash embedded in a series URL.
func ExtractHash(url string) (string, bool) {
	match := seriesHashPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ParseManga reads a series page. The hash comes from url since the page
// does not repeat it in a stable place.
func ParseManga(r io.Reader, url string) (catalog.Manga, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return catalog.Manga{}, fmt.Errorf("parse series page: %w", err)
	}

	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		return catalog.Manga{}, fmt.Errorf("%w: manga name not found", ErrParse)
	}
	hash, ok := ExtractHash(url)
	if !ok {
		return catalog.Manga{}, fmt.Errorf("%w: no series hash in %s", ErrParse, url)
	}

	manga := catalog.Manga{
		Hash:           hash,
		Name:           name,
		NormalizedName: textutil.Normalize(name),
	}
	doc.Find("ul li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		label := strings.TrimSpace(li.Find("strong").First().Text())
		label = strings.NewReplacer(":", "", "(s)", "").Replace(label)
		switch strings.TrimSpace(label) {
		case "Author":
			if manga.Authors != "" {
				return true
			}
			var authors []string
			li.Find("a").Each(func(_ int, a *goquery.Selection) {
				if text := strings.TrimSpace(a.Text()); text != "" {
					authors = append(authors, text)
				}
			})
			manga.Authors = strings.Join(authors, ", ")
		case "Status":
			if manga.Status == "" {
				manga.Status = strings.TrimSpace(li.Find("a").First().Text())
			}
		}
		return manga.Authors == "" || manga.Status == ""
	})
	return manga, nil
}

// ParseChapters reads the full chapter list page. Links whose text has no
// "Chapter N" label are skipped; a label that is present but malformed is
// an error. Chapters are returned in page order without duplicates.
func ParseChapters(r io.Reader) ([]catalog.Chapter, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse chapter list: %w", err)
	}

	var (
		chapters []catalog.Chapter
		parseErr error
	)
	seen := make(map[string]struct{})
	doc.Find(`a[href*="/chapters/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		hash := lastSegment(href)
		if hash == "" {
			return true
		}
		if _, dup := seen[hash]; dup {
			return true
		}
		label, ok := chapterLabel(a.Text())
		if !ok {
			return true
		}
		number, err := catalog.ParseChapterLabel(label)
		if err != nil {
			parseErr = fmt.Errorf("%w: chapter %s: %v", ErrParse, hash, err)
			return false
		}
		seen[hash] = struct{}{}
		chapters = append(chapters, catalog.Chapter{Hash: hash, Number: number})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return chapters, nil
}

func chapterLabel(text string) (string, bool) {
	words := strings.Fields(text)
	for i, word := range words {
		if word == "Chapter" && i+1 < len(words) {
			return words[i+1], true
		}
	}
	return "", false
}

func lastSegment(href string) string {
	href = strings.TrimRight(strings.SplitN(href, "?", 2)[0], "/")
	if idx := strings.LastIndex(href, "/"); idx >= 0 {
		return href[idx+1:]
	}
	return href
}
