package reader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/user/framereader/pkg/frame"
	"github.com/user/framereader/pkg/metrics"
	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/video"
)

// correctionSeconds is how far before the target an overshooting seek is re-issued.
const correctionSeconds = 4

// readFrame decodes one frame into the playback cache.
//
// A target >= 0 seeks and returns the first frame at or after target. A
// negative target with a positive count decodes count frames linearly from
// the current position. A negative count moves relative to the cached current
// frame.
func (r *Reader) readFrame(target int64, count int) error {
	if !r.loaded {
		return video.ErrMovieNotLoaded
	}

	if count < 0 {
		var base int64
		if cur := r.cache.Current(); cur != nil {
			base = cur.Timestamp
		}
		target = max(0, base+int64(count)*r.info.AverageTimeStampsPerFrame)
		count = 1
	}

	seeking := target >= 0
	if seeking {
		r.seek(target)
	}
	if cur := r.cache.Current(); cur != nil {
		r.timestamps.SetCurrent(cur.Timestamp)
	} else {
		r.timestamps.SetCurrent(-1)
	}

	firstPass := true
	decoded := 0
	for {
		pic, ts, err := r.nextPicture()
		if err != nil {
			metrics.ReadFailures.WithLabelValues(video.ReadFrameNotRead.String()).Inc()
			return fmt.Errorf("%w: %v", video.ErrFrameNotRead, err)
		}

		if seeking && firstPass && ts > target {
			firstPass = false
			r.correctSeek(target, ts)
			continue
		}
		firstPass = false
		decoded++

		if (seeking && ts >= target) || (!seeking && decoded >= count) {
			f, err := r.pipeline.Execute(context.Background(), r.pipelineInput(pic, ts))
			if err != nil {
				metrics.ReadFailures.WithLabelValues(video.ReadImageNotConverted.String()).Inc()
				return err
			}
			if err := r.cache.Add(f); err != nil {
				if !errors.Is(err, frame.ErrNotIncreasing) {
					f.Release()
					return err
				}
				// The decoder went back in time relative to the cache; restart the run.
				r.logger.Debug("Frame %d out of order, restarting playback cache", ts)
				r.clearCache()
				if err := r.cache.Add(f); err != nil {
					f.Release()
					return err
				}
			}
			return nil
		}
	}
}

// nextPicture reads packets until the decoder completes a picture and
// returns it with its reconciled timestamp. At the end of the stream the
// pictures the decoder still holds are drained before the error is returned.
func (r *Reader) nextPicture() (*ports.Picture, int64, error) {
	for {
		pkt, err := r.src.ReadPacket()
		if errors.Is(err, io.EOF) {
			return r.drainPicture(err)
		}
		if err != nil {
			return nil, 0, err
		}
		if pkt.StreamIndex != r.streams.Video {
			continue
		}

		pic, finished, err := r.dec.Decode(pkt)
		if err != nil {
			r.logger.Debug("Decode error at dts %d: %v", pkt.DTS, err)
			continue
		}
		if !finished || pic == nil {
			r.timestamps.Observe(pkt.DTS, pkt.PTS, false)
			continue
		}

		ts := r.timestamps.Observe(pkt.DTS, pkt.PTS, true)
		metrics.FramesDecoded.Inc()
		return pic, ts, nil
	}
}

// drainPicture returns the next picture held back by the decoder, or eof
// once the decoder is empty.
func (r *Reader) drainPicture(eof error) (*ports.Picture, int64, error) {
	pic, ok, err := r.dec.Drain()
	if err != nil {
		r.logger.Debug("Drain failed: %v", err)
		return nil, 0, eof
	}
	if !ok || pic == nil {
		return nil, 0, eof
	}
	ts := r.timestamps.Observe(ports.NoTimestamp, ports.NoTimestamp, true)
	metrics.FramesDecoded.Inc()
	return pic, ts, nil
}

// seek issues an approximate backward seek and drops decoder and timestamp state.
func (r *Reader) seek(target int64) {
	tps := int64(r.info.AverageTimeStampsPerSeconds)
	if err := r.src.Seek(r.streams.Video, 0, target, target+tps, true); err != nil {
		r.logger.Error("Seek to %d failed: %v", target, err)
	}
	r.dec.Flush()
	r.timestamps.Reset()
	metrics.Seeks.Inc()
	r.logger.Debug("Seek to %d", target)
}

// correctSeek re-seeks well before a target the previous seek overshot.
func (r *Reader) correctSeek(target, landed int64) {
	force := target - correctionSeconds*int64(r.info.AverageTimeStampsPerSeconds)
	r.logger.Debug("Seek overshot: target %d, landed %d, retrying at %d", target, landed, force)
	if err := r.src.Seek(r.streams.Video, min(force, 0), force, force, true); err != nil {
		r.logger.Error("Seek to %d failed: %v", force, err)
	}
	r.dec.Flush()
	r.timestamps.Reset()
	metrics.Seeks.Inc()
	metrics.SeekCorrections.Inc()
}
