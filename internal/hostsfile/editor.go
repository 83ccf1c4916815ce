package hostsfile

import (
	"strings"
)

// RegionStatus describes what the editor found in the existing document.
type RegionStatus int

const (
	// RegionFound means both markers were present, in order, exactly once.
	RegionFound RegionStatus = iota
	// RegionMissing means neither marker was present; the region was appended.
	RegionMissing
	// RegionMalformed means the markers were damaged: out of order, duplicated,
	// or only one of the two present. The document is returned unedited.
	RegionMalformed
)

// String returns a short label for the region status.
func (s RegionStatus) String() string {
	switch s {
	case RegionFound:
		return "found"
	case RegionMissing:
		return "missing"
	case RegionMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Reconcile replaces the managed region of current with regionLines and
// returns the complete new document text.
//
// When both markers exist in order, the span between them (markers inclusive)
// is replaced in place; every byte before the start marker and after the end
// marker is preserved exactly. When neither marker exists, the region is
// appended at end of file, separated from non-empty prior content by exactly
// one blank line. When the markers are damaged the editor does not guess: it
// returns the input unchanged with RegionMalformed so the caller can refuse
// to write.
func Reconcile(current string, regionLines []string) (string, RegionStatus) {
	region := strings.Join(regionLines, "\n") + "\n"

	if current == "" {
		return region, RegionMissing
	}

	lines := strings.Split(current, "\n")

	var startIdxs, endIdxs []int
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case StartMarker:
			startIdxs = append(startIdxs, i)
		case EndMarker:
			endIdxs = append(endIdxs, i)
		}
	}

	if len(startIdxs) == 0 && len(endIdxs) == 0 {
		return appendRegion(current, region), RegionMissing
	}

	if len(startIdxs) != 1 || len(endIdxs) != 1 || endIdxs[0] < startIdxs[0] {
		return current, RegionMalformed
	}

	start, end := startIdxs[0], endIdxs[0]

	newLines := make([]string, 0, start+len(regionLines)+(len(lines)-end-1))
	newLines = append(newLines, lines[:start]...)
	newLines = append(newLines, regionLines...)
	newLines = append(newLines, lines[end+1:]...)

	return strings.Join(newLines, "\n"), RegionFound
}

// appendRegion appends the rendered region to a non-empty document,
// terminating the last line if needed and inserting exactly one blank line
// between prior content and the region.
func appendRegion(current, region string) string {
	doc := current
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}
	if !strings.HasSuffix(doc, "\n\n") {
		doc += "\n"
	}
	return doc + region
}
