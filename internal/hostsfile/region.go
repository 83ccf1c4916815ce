package hostsfile

import (
	"time"

	"hostsync/internal/aggregate"
)

// Marker lines delimiting the managed region. These are a wire format shared
// with hosts files already managed by the original tool and must not change.
const (
	StartMarker = "# >>> hosts_updater_rs START >>>"
	EndMarker   = "# <<< hosts_updater_rs END <<<"
)

// noticeLine warns readers not to hand-edit the managed region.
const noticeLine = "# 此区域由 hosts_updater_rs 自动管理，请勿手动修改"

const (
	timestampPrefix = "# 最后更新: "
	timestampLayout = "2006-01-02 15:04:05"
	sourcePrefix    = "# Source: "
)

// RenderRegion produces the full managed region as lines, markers included.
// The layout is fixed: start marker, notice, timestamp comment, a blank line,
// then each record block headed by its source URL and followed by one blank
// line, then the end marker. Identical blocks render identical bytes except
// for the timestamp line.
func RenderRegion(blocks []aggregate.RecordBlock, now time.Time) []string {
	lines := make([]string, 0, 8)
	lines = append(lines,
		StartMarker,
		noticeLine,
		timestampPrefix+now.Format(timestampLayout),
		"",
	)

	for _, block := range blocks {
		lines = append(lines, sourcePrefix+block.Source)
		lines = append(lines, block.Lines...)
		lines = append(lines, "")
	}

	lines = append(lines, EndMarker)
	return lines
}
