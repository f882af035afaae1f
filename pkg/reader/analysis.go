package reader

import (
	"context"
	"fmt"

	"github.com/user/framereader/pkg/frame"
	"github.com/user/framereader/pkg/metrics"
	"github.com/user/framereader/pkg/video"
)

// ProgressFunc receives the number of frames imported so far and the estimated total.
type ProgressFunc func(done, total int64)

const bytesPerMiB = 1024 * 1024

// CanExtractToMemory reports whether [start, end] fits both the real-time
// budget in seconds and the memory budget in MiB at the current decoding size.
func (r *Reader) CanExtractToMemory(start, end int64, maxSeconds float64, maxMemoryMiB int) bool {
	r.state.RLock()
	defer r.state.RUnlock()

	if !r.loaded || r.info.AverageTimeStampsPerSeconds <= 0 {
		return false
	}

	durationTs := end - start
	seconds := float64(durationTs) / r.info.AverageTimeStampsPerSeconds
	frameMiB := float64(video.BytesPerFrame(r.info.DecodingSize, r.opts.PixelFormat)) / bytesPerMiB
	frames := r.info.EstimateFrameCount(start, end)
	memory := int(float64(frames) * frameMiB)

	return seconds > 0 && seconds <= maxSeconds && memory <= maxMemoryMiB
}

// ExtractToMemory imports [start, end] into the analysis window. An end of -1
// imports up to the end of the file.
//
// The existing window is reused when possible: frames outside the new range
// are dropped and only the missing range after or before the window is decoded.
// forceReload discards the window first. Cancelling ctx discards the whole
// window and returns the context error.
func (r *Reader) ExtractToMemory(ctx context.Context, start, end int64, forceReload bool, progress ProgressFunc) (Strategy, error) {
	r.session.Lock()
	defer r.session.Unlock()

	if !r.loaded {
		return StrategyComplete, video.ErrMovieNotLoaded
	}

	oldStart, oldEnd, _ := r.window.Bounds()
	strategy, from, to := r.window.prepare(start, end, forceReload, r.info.AverageTimeStampsPerFrame)
	metrics.Imports.WithLabelValues(strategy.String()).Inc()
	r.logger.Info("Importing %d to %d (%s)", from, to, strategy.String())

	if strategy != StrategyReduction {
		if err := r.importRange(ctx, strategy, from, to, oldStart, oldEnd, progress); err != nil {
			r.window.discard()
			metrics.ImportCancels.Inc()
			r.logger.Info("Import cancelled, analysis window discarded")
			return strategy, err
		}
	}

	if r.window.Len() == 0 {
		r.window.discard()
		return strategy, video.ErrImportFailed
	}
	r.window.finish()
	r.logger.Info("Analysis window holds %d frames", r.window.Len())
	return strategy, nil
}

// importRange decodes [start, end] and places frames per strategy. Only a
// cancellation is reported as an error; read and conversion failures end the
// import with the frames gathered so far.
func (r *Reader) importRange(ctx context.Context, s Strategy, start, end, oldStart, oldEnd int64, progress ProgressFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start = max(start, 0)

	last := end
	if last < 0 {
		last = r.info.FirstTimeStamp + r.info.DurationTimeStamps
	}
	estimated := r.info.EstimateFrameCount(start, last)

	r.state.RLock()
	size, pixFmt := r.info.DecodingSize, r.opts.PixelFormat
	r.state.RUnlock()
	scratch := frame.New(0, size, pixFmt, r.pool)
	defer scratch.Release()

	r.seek(start)

	firstPass := true
	var decoded int64
	for {
		pic, ts, err := r.nextPicture()
		if err != nil {
			r.logger.Debug("Import stopped at end of stream: %v", err)
			return nil
		}

		if firstPass && ts > start {
			firstPass = false
			r.correctSeek(start, ts)
			continue
		}
		firstPass = false

		if ts < start {
			continue
		}
		decoded++
		done := end > 0 && ts >= end

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import cancelled at %d: %w", ts, err)
		}

		if err := r.pipeline.ConvertInto(r.pipelineInput(pic, ts), scratch); err != nil {
			r.logger.Error("Import stopped, frame %d not converted: %v", ts, err)
			return nil
		}
		kept := scratch.Clone()
		if !r.window.place(s, kept, int(decoded), oldStart, oldEnd) {
			kept.Release()
		}

		if progress != nil {
			progress(decoded, estimated)
		}
		if done {
			return nil
		}
	}
}

// StopAnalysis discards the analysis window.
func (r *Reader) StopAnalysis() {
	r.session.Lock()
	defer r.session.Unlock()
	r.window.discard()
}
