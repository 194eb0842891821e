// Package checker implements jfsck: the offline scan that reconciles a
// data file with its journal directory after a crash, reapplying
// committed-but-unapplied transactions and discarding everything else.
package checker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/aasselin/libjio/internal/journal"
	"github.com/aasselin/libjio/internal/logger"
	"github.com/aasselin/libjio/internal/metrics"
	"github.com/aasselin/libjio/internal/telemetry"
)

// Sentinel return codes, matching the documented checker sentinels.
const (
	StatusSuccess     = 0
	StatusNoDataFile  = -1
	StatusNoJournal   = -2
	StatusOutOfMemory = -3
)

// Result holds per-category counts from a checker run. Total is the sum
// of every other field.
type Result struct {
	Total      int
	Invalid    int
	InProgress int
	Broken     int
	Corrupt    int
	ApplyError int
	Reapplied  int
}

// Run scans dataPath's journal directory (journalPath if non-empty,
// otherwise the default sibling derived from dataPath), classifies every
// record, reapplies committed records not yet applied, and removes
// everything else. It acquires an exclusive lock on the whole data file
// for the duration of the run, which is what allows in_progress records
// to be treated as broken (no live owner could still be writing to one).
func Run(ctx context.Context, dataPath, journalPath string) (*Result, int, error) {
	if _, err := os.Stat(dataPath); err != nil {
		if os.IsNotExist(err) {
			return nil, StatusNoDataFile, nil
		}
		return nil, StatusNoDataFile, err
	}

	if journalPath == "" {
		journalPath = journal.DirName(dataPath)
	}

	dir, err := journal.OpenExisting(journalPath)
	if err != nil {
		if errors.Is(err, journal.ErrNoJournal) {
			return nil, StatusNoJournal, nil
		}
		return nil, StatusNoJournal, err
	}
	defer dir.Close()

	dataFile, err := os.OpenFile(dataPath, os.O_RDWR, 0)
	if err != nil {
		return nil, StatusNoDataFile, err
	}
	defer dataFile.Close()

	rl := journal.NewRangeLock(dataFile)
	whole := journal.Range{Offset: 0, Length: 0} // Len 0 means "to EOF" per fcntl semantics
	if err := rl.Acquire(whole); err != nil {
		return nil, StatusOutOfMemory, fmt.Errorf("checker: lock data file: %w", err)
	}
	defer rl.Release(whole)

	ctx, span := telemetry.StartCheckSpan(ctx, dataPath, journalPath)
	defer span.End()

	ids, err := dir.Records()
	if err != nil {
		return nil, StatusOutOfMemory, err
	}

	result := &Result{}
	for _, id := range ids {
		recordCtx, recSpan := telemetry.StartCheckRecordSpan(ctx, id)
		cat, rec, classifyErr := journal.Classify(dir.RecordPath(id))
		telemetry.SetAttributes(recordCtx, telemetry.Category(cat.String()))
		metrics.ObserveCheckerCategory(cat.String())
		result.Total++

		switch cat {
		case journal.CategoryValid:
			if err := reapply(dataFile, rec); err != nil {
				logger.Warn("checker: reapply failed", logger.KeyTransID, id, logger.KeyError, err.Error())
				result.ApplyError++
				recSpan.End()
				continue
			}
			if err := dataFile.Sync(); err != nil {
				logger.Warn("checker: sync after reapply failed", logger.KeyTransID, id, logger.KeyError, err.Error())
				result.ApplyError++
				recSpan.End()
				continue
			}
			if err := dir.RemoveRecord(id); err != nil {
				logger.Warn("checker: remove reapplied record failed", logger.KeyTransID, id, logger.KeyError, err.Error())
			}
			result.Reapplied++
			logger.Info("checker: reapplied transaction", logger.KeyTransID, id)

		case journal.CategoryInProgress:
			// The whole-file lock above excludes any live owner still
			// writing this record, so it is handled exactly like Broken;
			// the separate count exists only for diagnostics.
			result.InProgress++
			_ = dir.RemoveRecord(id)

		case journal.CategoryBroken:
			result.Broken++
			_ = dir.RemoveRecord(id)

		case journal.CategoryCorrupt:
			result.Corrupt++
			_ = dir.RemoveRecord(id)

		case journal.CategoryInvalid:
			result.Invalid++
			_ = dir.RemoveRecord(id)
		}

		if classifyErr != nil {
			logger.Warn("checker: classify error", logger.KeyTransID, id, logger.KeyError, classifyErr.Error())
		}
		recSpan.End()
	}

	return result, StatusSuccess, nil
}

// reapply writes every operation payload of rec to the data file, in
// insertion order.
func reapply(dataFile *os.File, rec *journal.Record) error {
	for i, d := range rec.Descs {
		if _, err := dataFile.WriteAt(rec.Payloads[i], d.Off); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup unlinks every remaining file in the journal directory and the
// directory itself. Intended after a successful Run has drained every
// recoverable record.
func Cleanup(ctx context.Context, journalPath string) error {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanCleanup, trace.WithAttributes(telemetry.JournalDir(journalPath)))
	defer span.End()

	return os.RemoveAll(journalPath)
}
