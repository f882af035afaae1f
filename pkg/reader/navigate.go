package reader

import (
	"github.com/user/framereader/pkg/metrics"
	"github.com/user/framereader/pkg/probe"
)

// MoveNext moves to the next frame, decoding it when it is not cached.
func (r *Reader) MoveNext() bool {
	r.session.Lock()
	defer r.session.Unlock()

	if !r.loaded {
		return false
	}

	if r.cache.HasNext() {
		metrics.CacheHits.Inc()
		return r.cache.MoveNext()
	}

	metrics.CacheMisses.Inc()
	if err := r.readFrame(-1, 1); err != nil {
		r.logger.Debug("Next frame not read: %v", err)
		return false
	}
	return true
}

// MoveTo moves to the frame displayed at ts, clamped to the working zone.
//
// When ts is not cached the cache is cleared before seeking, except when
// looping back: ts is the working zone start and the zone end is still cached.
func (r *Reader) MoveTo(ts int64) bool {
	r.session.Lock()
	defer r.session.Unlock()

	if !r.loaded {
		return false
	}
	return r.moveTo(r.info.WorkingZone().Clamp(ts))
}

func (r *Reader) moveTo(ts int64) bool {
	if r.cache.Contains(ts) {
		metrics.CacheHits.Inc()
		return r.cache.MoveTo(ts)
	}

	metrics.CacheMisses.Inc()
	zone := r.info.WorkingZone()
	if !(ts == zone.Start && r.cache.Holds(zone.End)) {
		r.clearCache()
	}

	if err := r.readFrame(ts, 1); err != nil {
		r.logger.Debug("Frame at %d not read: %v", ts, err)
		return false
	}
	return r.cache.MoveTo(r.timestamps.Current())
}

// MoveBy moves n frames forward or backward from the current frame.
func (r *Reader) MoveBy(n int) bool {
	if n >= 0 {
		for i := 0; i < n; i++ {
			if !r.MoveNext() {
				return false
			}
		}
		return true
	}

	r.session.Lock()
	defer r.session.Unlock()

	if !r.loaded {
		return false
	}

	if cur := r.cache.Current(); cur != nil {
		target := max(0, cur.Timestamp+int64(n)*r.info.AverageTimeStampsPerFrame)
		if r.cache.Contains(target) {
			metrics.CacheHits.Inc()
			return r.cache.MoveTo(target)
		}
	}

	metrics.CacheMisses.Inc()
	if err := r.readFrame(-1, n); err != nil {
		r.logger.Debug("Frame %d steps back not read: %v", -n, err)
		return false
	}
	return r.cache.MoveTo(r.timestamps.Current())
}

// HasAnalysisMetadata reports whether the open file carries embedded metadata
// or has a sidecar metadata file next to it.
func (r *Reader) HasAnalysisMetadata() bool {
	r.session.Lock()
	defer r.session.Unlock()

	if !r.loaded {
		return false
	}
	return r.streams.Metadata >= 0 || probe.HasSidecar(r.fs, r.info.FilePath)
}
