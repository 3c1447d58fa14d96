package organizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"mgdl/internal/catalog"
)

const rawTokenCount = 3

// inProgressSuffixes mark downloads the fetch tool has not finished writing.
var inProgressSuffixes = []string{".part", ".ytdl", ".tmp"}

// Move relocates one raw page file into its chapter directory.
type Move struct {
	Source  string
	Dest    string
	Chapter catalog.ChapterNumber
}

// Plan is the outcome of mapping a directory listing onto the layout.
type Plan struct {
	Dir      string
	Moves    []Move
	Rejected []*FormatError
}

// Empty reports whether the plan neither moves nor rejects anything.
func (p Plan) Empty() bool {
	return len(p.Moves) == 0 && len(p.Rejected) == 0
}

// ChapterDirs returns the distinct chapter directories the plan writes into,
// in first-seen order.
func (p Plan) ChapterDirs() []string {
	seen := make(map[string]struct{}, len(p.Moves))
	var dirs []string
	for _, move := range p.Moves {
		dir := filepath.Dir(move.Dest)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

// RawPage is a decoded raw page filename.
type RawPage struct {
	Chapter catalog.ChapterNumber
	Page    string
	Ext     string
}

// ParseRawName decodes "<series>_<chapter>_<page>.<ext>". The chapter token
// accepts a leading marker ("c012") and an optional ".minor" suffix.
func ParseRawName(name string) (RawPage, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	tokens := strings.Split(base, "_")
	if len(tokens) != rawTokenCount {
		return RawPage{}, fmt.Errorf("expected %d '_'-separated tokens, found %d", rawTokenCount, len(tokens))
	}
	if tokens[2] == "" {
		return RawPage{}, fmt.Errorf("empty page token")
	}
	chapter, err := catalog.ParseChapterLabel(tokens[1])
	if err != nil {
		return RawPage{}, fmt.Errorf("chapter token %q: %v", tokens[1], err)
	}
	return RawPage{Chapter: chapter, Page: tokens[2], Ext: ext}, nil
}

// BuildPlan maps the regular file names found at the top level of dir onto
// moves. Hidden files and unfinished downloads are ignored; every other name
// that fails to decode is rejected with a FormatError. Two files that would
// land on the same destination are both kept out of the plan after the first.
func BuildPlan(dir string, names []string, pageDigits int) Plan {
	plan := Plan{Dir: dir}
	claimed := make(map[string]string, len(names))
	for _, name := range names {
		if ignored(name) {
			continue
		}
		source := filepath.Join(dir, name)
		raw, err := ParseRawName(name)
		if err != nil {
			plan.Rejected = append(plan.Rejected, &FormatError{Path: source, Reason: err.Error()})
			continue
		}
		dest := filepath.Join(dir, ChapterDir(raw.Chapter), PageFile(raw.Page, raw.Ext, pageDigits))
		if prior, ok := claimed[dest]; ok {
			plan.Rejected = append(plan.Rejected, &FormatError{
				Path:   source,
				Reason: fmt.Sprintf("destination %s already claimed by %s", dest, filepath.Base(prior)),
			})
			continue
		}
		claimed[dest] = source
		plan.Moves = append(plan.Moves, Move{Source: source, Dest: dest, Chapter: raw.Chapter})
	}
	return plan
}

func ignored(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return true
	}
	lower := strings.ToLower(name)
	for _, suffix := range inProgressSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
