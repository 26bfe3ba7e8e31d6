// Package listing parses Apache autoindex pages into the file entries and
// year directories the catalog builder crawls.
package listing

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// navHrefs are the fixed hrefs Apache emits for the parent-directory link
// and the column-sort toggles. They are never catalog entries.
var navHrefs = map[string]struct{}{
	"../":      {},
	"/":        {},
	"?C=N;O=D": {},
	"?C=N;O=A": {},
	"?C=M;O=D": {},
	"?C=M;O=A": {},
	"?C=S;O=D": {},
	"?C=S;O=A": {},
	"?C=D;O=D": {},
	"?C=D;O=A": {},
}

// zipSuffix is the only file extension cataloged.
const zipSuffix = ".zip"

// Getter fetches one URL, returning the page body or an error once the
// client has exhausted its retries.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Lister extracts catalog entries and year directories from Apache-style
// listing pages.
type Lister struct {
	client Getter
	logger *zap.Logger
}

// NewLister builds a Lister on top of the given fetch client.
func NewLister(client Getter, logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{client: client, logger: logger}
}

// Files fetches a year directory and returns a filename-to-size mapping
// for every .zip anchor on the page. A nil size means the listing holds no
// parseable size for that file. When the same filename appears more than
// once the last anchor wins. A failed fetch yields an empty mapping: the
// directory contributes nothing and the crawl moves on.
func (l *Lister) Files(ctx context.Context, dirURL string) (map[string]*int64, error) {
	body, err := l.client.Get(ctx, dirURL)
	if err != nil {
		return map[string]*int64{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", dirURL, err)
	}

	files := make(map[string]*int64)
	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		raw, _ := anchor.Attr("href")
		href := strings.TrimSpace(raw)
		if _, nav := navHrefs[href]; nav {
			return
		}
		if !strings.HasSuffix(strings.ToLower(href), zipSuffix) {
			return
		}
		name := path.Base(strings.TrimRight(href, "/"))
		files[name] = rowSize(anchor)
	})

	l.logger.Debug("Listing parsed",
		zap.String("url", dirURL),
		zap.Int("files", len(files)),
	)
	return files, nil
}

// rowSize extracts the size column for an anchor's enclosing table row.
// The common Apache layout carries the size in the fourth cell; narrower
// layouts get a best-effort scan for the first cell whose text parses to a
// non-zero size.
func rowSize(anchor *goquery.Selection) *int64 {
	row := anchor.Closest("tr")
	if row.Length() == 0 {
		return nil
	}

	cells := row.Find("td")
	if cells.Length() >= 4 {
		if n, ok := ParseSize(cells.Eq(3).Text()); ok {
			return &n
		}
		return nil
	}

	var size *int64
	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		txt := strings.TrimSpace(cell.Text())
		if txt == "" || txt == "-" {
			return true
		}
		if n, ok := ParseSize(txt); ok && n != 0 {
			size = &n
			return false
		}
		return true
	})
	return size
}

// Years fetches a variable/frequency listing and returns its four-digit
// year sub-directories, deduplicated and sorted ascending. A failed fetch
// yields no years.
func (l *Lister) Years(ctx context.Context, listingURL string) ([]string, error) {
	body, err := l.client.Get(ctx, listingURL)
	if err != nil {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", listingURL, err)
	}

	seen := make(map[string]struct{})
	var years []string
	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		year := strings.TrimRight(strings.TrimSpace(href), "/")
		if !isYear(year) {
			return
		}
		if _, dup := seen[year]; dup {
			return
		}
		seen[year] = struct{}{}
		years = append(years, year)
	})
	sort.Strings(years)

	l.logger.Debug("Years parsed",
		zap.String("url", listingURL),
		zap.Int("years", len(years)),
	)
	return years, nil
}

// isYear reports whether s is exactly four ASCII digits.
func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
