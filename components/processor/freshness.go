package processor

import (
	"context"
	"path/filepath"
	"regexp"
	"time"

	"github.com/bububa/scrape-embeddings/pkg/logger"
)

var datePattern = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)

// FileDate extracts the YYYYMMDD date of path. A date in the file name wins,
// otherwise the first one found anywhere in the path is used, so dated
// directories such as data/20240515/scraped.json are recognized too.
// Digit runs that do not form a valid calendar date are reported with ok == false.
func FileDate(path string) (date time.Time, found bool, ok bool) {
	m := datePattern.FindString(filepath.Base(path))
	if m == "" {
		m = datePattern.FindString(path)
	}
	if m == "" {
		return time.Time{}, false, false
	}
	date, err := time.Parse("20060102", m)
	if err != nil {
		return time.Time{}, true, false
	}
	return date, true, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (p *Processor) checkFreshness(ctx context.Context, path string) {
	log := logger.FromContext(ctx)
	date, found, ok := FileDate(path)
	if !found {
		return
	}
	if !ok {
		log.Debug("path holds no valid date", "path", path)
		return
	}
	log.Info("Processing file from " + date.Format("02 January 2006"))
	if !sameDay(date, p.opts.clock()) {
		log.Warn("The file processed is not from today.", "file_date", date.Format(time.DateOnly))
	}
}
