package aggregate

import (
	"errors"
	"strings"

	"hostsync/internal/fetcher"
)

// ErrAllSourcesFailed signals that no configured source produced content in
// this tick. The caller decides whether to skip the write entirely; the
// aggregator never silently yields an empty region.
var ErrAllSourcesFailed = errors.New("all configured sources failed")

// RecordBlock is the contribution of one successful source: its origin URL
// and the source's lines, passed through without semantic parsing. Comment
// and blank lines are preserved.
type RecordBlock struct {
	Source string
	Lines  []string
}

// Build turns ordered fetch results into an ordered sequence of RecordBlocks,
// one per successful source, in the original configuration order. Failed
// sources contribute nothing. When every source failed, Build returns
// ErrAllSourcesFailed together with an empty sequence.
func Build(results []fetcher.Result) ([]RecordBlock, error) {
	blocks := make([]RecordBlock, 0, len(results))

	for _, r := range results {
		if !r.OK() {
			continue
		}
		blocks = append(blocks, RecordBlock{
			Source: r.URL,
			Lines:  splitLines(r.Content),
		})
	}

	if len(blocks) == 0 && len(results) > 0 {
		return nil, ErrAllSourcesFailed
	}
	return blocks, nil
}

// Counts reports how many sources succeeded and failed.
func Counts(results []fetcher.Result) (ok, failed int) {
	for _, r := range results {
		if r.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// FailedSources returns the URLs of the sources that failed, in order.
func FailedSources(results []fetcher.Result) []string {
	var urls []string
	for _, r := range results {
		if !r.OK() {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// splitLines breaks raw source content into lines, normalizing CRLF endings
// and trimming leading/trailing blank lines. Interior lines, including
// comments and blanks, pass through verbatim.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
