package fetcher

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/voyagen/gonet/internal/models"
)

const directivePrefix = "#EXTINF:"

var (
	reTvgLogo = regexp.MustCompile(`tvg-logo="([^"]+)"`)
	reGroup   = regexp.MustCompile(`group-title="([^"]+)"`)
	reYear    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// parserState is the state of the directive/URI pairing machine.
type parserState int

const (
	awaitingDirective parserState = iota
	awaitingURI
)

// ParseM3U reads an M3U playlist from r and returns every directive that is
// followed by a URI line before the next directive.
//
// Parsing is best-effort: a directive without a URI is dropped when the next
// directive arrives, a URI without a pending directive is ignored, and any
// other line is skipped. Only a read error from r is returned.
func ParseM3U(r io.Reader) ([]RawEntry, error) {
	var entries []RawEntry
	scanner := bufio.NewScanner(r)
	// Some EXTINF lines carry very long attribute lists.
	const maxSize = 1024 * 1024
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxSize)

	state := awaitingDirective
	var pending RawEntry

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, directivePrefix):
			// A pending entry without a URI is overwritten here.
			pending = entryFromDirective(line)
			state = awaitingURI
		case isURI(line):
			if state != awaitingURI {
				continue
			}
			pending.URL = line
			if pending.Title != "" {
				entries = append(entries, pending)
			}
			pending = RawEntry{}
			state = awaitingDirective
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func isURI(line string) bool {
	return strings.HasPrefix(line, "http")
}

// entryFromDirective extracts title, logo, group and year from an #EXTINF line.
func entryFromDirective(line string) RawEntry {
	title := titleFromDirective(line)
	e := RawEntry{
		Title:     title,
		Thumbnail: matchFirst(reTvgLogo, line),
		Category:  matchFirst(reGroup, line),
		Year:      reYear.FindString(title),
	}
	if e.Category == "" {
		e.Category = models.FallbackCategory
	}
	if e.Year == "" {
		e.Year = models.DefaultYear
	}
	return e
}

// titleFromDirective returns the text after the last comma, or the fallback
// title when there is no comma or nothing follows it.
func titleFromDirective(line string) string {
	i := strings.LastIndex(line, ",")
	if i < 0 {
		return models.FallbackTitle
	}
	title := strings.TrimSpace(line[i+1:])
	if title == "" {
		return models.FallbackTitle
	}
	return title
}

func matchFirst(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
