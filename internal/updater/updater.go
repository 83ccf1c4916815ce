package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"hostsync/internal/aggregate"
	"hostsync/internal/common"
	"hostsync/internal/fetcher"
	"hostsync/internal/hostsfile"
)

// Status classifies the result of one update cycle.
type Status string

const (
	// StatusUpdated means the hosts document was rewritten successfully.
	StatusUpdated Status = "UPDATED"
	// StatusSkippedMalformed means the on-disk markers are damaged and the
	// cycle refused to write. Requires operator intervention.
	StatusSkippedMalformed Status = "SKIPPED_MALFORMED"
	// StatusSkippedAllFailed means every source failed this cycle; nothing
	// was written and the next cycle proceeds normally.
	StatusSkippedAllFailed Status = "SKIPPED_ALL_FAILED"
	// StatusFailed means a transient error (read, backup or write) aborted
	// the cycle; the scheduler retries on the shortened backoff interval.
	StatusFailed Status = "FAILED"
)

// RegionMalformedError reports damaged markers in the on-disk document.
// It repeats every cycle until the document is fixed externally.
type RegionMalformedError struct {
	Path string
}

func (e *RegionMalformedError) Error() string {
	return fmt.Sprintf("managed region markers in '%s' are malformed; fix the file manually", e.Path)
}

// Outcome is the result of one update cycle, retained for logging,
// notifications and the status surface.
type Outcome struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        Status
	RegionStatus  hostsfile.RegionStatus
	SourcesOK     int
	SourcesFailed int
	FailedSources []string
	BytesWritten  int
	Err           error
}

// Transient reports whether the scheduler should retry on the backoff
// interval rather than waiting for the next regular tick.
func (o Outcome) Transient() bool {
	return o.Status == StatusFailed
}

// SourceFetcher retrieves raw content for every configured source. The
// concrete implementation owns the per-fetch timeout.
type SourceFetcher interface {
	FetchAll(ctx context.Context, sources []string) []fetcher.Result
}

// Updater runs one full update cycle: fetch, aggregate, reconcile, backup,
// atomic write. It owns no timing; the scheduler drives it.
type Updater struct {
	sources   []string
	hostsPath string
	fetcher   SourceFetcher
	fs        hostsfile.FileSystem
	backup    *hostsfile.BackupManager
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUpdater creates an updater for the configured sources and hosts path.
func NewUpdater(
	sources []string,
	hostsPath string,
	sourceFetcher SourceFetcher,
	fs hostsfile.FileSystem,
	backup *hostsfile.BackupManager,
	logger zerolog.Logger,
) *Updater {
	return &Updater{
		sources:   sources,
		hostsPath: hostsPath,
		fetcher:   sourceFetcher,
		fs:        fs,
		backup:    backup,
		logger:    logger.With().Str("component", "Updater").Logger(),
		now:       time.Now,
	}
}

// RunCycle executes one tick. It never panics and never leaves the hosts
// document partially written: every abort happens before the atomic replace,
// and the replace itself is all-or-nothing.
func (u *Updater) RunCycle(ctx context.Context) Outcome {
	outcome := Outcome{StartedAt: u.now()}

	finish := func(status Status, err error) Outcome {
		outcome.Status = status
		outcome.Err = err
		outcome.FinishedAt = u.now()
		return outcome
	}

	// Cancellation is honored before any network activity starts.
	if err := ctx.Err(); err != nil {
		return finish(StatusFailed, err)
	}

	u.logger.Info().Int("sources", len(u.sources)).Str("hosts_path", u.hostsPath).Msg("Starting update cycle")

	results := u.fetcher.FetchAll(ctx, u.sources)
	outcome.SourcesOK, outcome.SourcesFailed = aggregate.Counts(results)
	outcome.FailedSources = aggregate.FailedSources(results)

	blocks, aggErr := aggregate.Build(results)

	currentDoc, err := u.readDocument()
	if err != nil {
		return finish(StatusFailed, common.WrapErrorf(err, "failed to read hosts document '%s'", u.hostsPath))
	}

	regionLines := hostsfile.RenderRegion(blocks, u.now())
	newDoc, regionStatus := hostsfile.Reconcile(currentDoc, regionLines)
	outcome.RegionStatus = regionStatus

	// Fail closed on damaged markers: a hand-edited file is never guessed at.
	if regionStatus == hostsfile.RegionMalformed {
		u.logger.Error().Str("hosts_path", u.hostsPath).Msg("Managed region markers are malformed; refusing to write")
		return finish(StatusSkippedMalformed, &RegionMalformedError{Path: u.hostsPath})
	}

	if aggErr != nil {
		u.logger.Error().Int("sources", len(u.sources)).Msg("All sources failed; skipping write")
		return finish(StatusSkippedAllFailed, aggErr)
	}

	// The backup is taken from the exact bytes about to be replaced. A failed
	// backup is a hard stop: never overwrite without the requested recovery copy.
	if err := u.backup.Snapshot([]byte(currentDoc)); err != nil {
		return finish(StatusFailed, err)
	}

	if err := u.fs.Replace(u.hostsPath, []byte(newDoc), 0644); err != nil {
		return finish(StatusFailed, &hostsfile.WriteError{Path: u.hostsPath, Err: err})
	}
	outcome.BytesWritten = len(newDoc)

	u.logger.Info().
		Int("sources_ok", outcome.SourcesOK).
		Int("sources_failed", outcome.SourcesFailed).
		Str("region_status", regionStatus.String()).
		Int("bytes", outcome.BytesWritten).
		Msg("Hosts document updated")

	return finish(StatusUpdated, nil)
}

// readDocument reads the current hosts document. A missing file is treated
// as an empty document so a first run can create it.
func (u *Updater) readDocument() (string, error) {
	data, err := u.fs.ReadFile(u.hostsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
