// Package reader is the frame delivery engine: it opens a video through a
// demux/decode collaborator, navigates it through a playback cache and
// imports time ranges into an analysis window.
//
// One Reader drives one decode session. Every call touching the session is
// serialised on an internal lock, so at most one read, seek or decode is in
// flight. Navigation is synchronous; ExtractToMemory is meant to run on its
// own goroutine and honours context cancellation once per completed frame.
package reader

import (
	"errors"
	"sync"

	"github.com/user/framereader/pkg/format"
	"github.com/user/framereader/pkg/frame"
	"github.com/user/framereader/pkg/metrics"
	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/postproc"
	"github.com/user/framereader/pkg/probe"
	"github.com/user/framereader/pkg/timestamp"
	"github.com/user/framereader/pkg/video"
)

// Options configures decode geometry and caching.
type Options struct {
	AspectRatio  video.AspectRatio
	Deinterlace  bool
	PixelFormat  video.PixelFormat
	CacheSize    int
	ScaleQuality postproc.Quality
}

// DefaultOptions returns the default reader options.
func DefaultOptions() Options {
	return Options{
		AspectRatio:  video.AspectAuto,
		PixelFormat:  video.PixelFormatRGBA32,
		CacheSize:    frame.DefaultCacheSize,
		ScaleQuality: postproc.QualityBilinear,
	}
}

// Reader delivers frames of one opened video.
type Reader struct {
	opener ports.MediaOpener
	fs     ports.FileSystem
	logger ports.Logger

	// session serialises access to the decode collaborator.
	session sync.Mutex

	// state guards the fields readable without the session lock.
	state  sync.RWMutex
	opts   Options
	info   video.Info
	loaded bool

	src        ports.MediaSource
	dec        ports.VideoDecoder
	container  ports.ContainerInfo
	streams    probe.Streams
	timestamps *timestamp.Reconciler

	pool     *frame.Pool
	cache    *frame.Cache
	window   *Window
	pipeline *postproc.Pipeline

	initOnce sync.Once
	initErr  error
}

// New creates a reader. Nothing is opened until Open.
func New(opener ports.MediaOpener, fs ports.FileSystem, logger ports.Logger, opts Options) *Reader {
	pool := frame.NewPool()
	return &Reader{
		opener:     opener,
		fs:         fs,
		logger:     logger.WithComponent(ports.ComponentReader),
		opts:       opts,
		pool:       pool,
		cache:      frame.NewCache(opts.CacheSize),
		window:     NewWindow(),
		pipeline:   postproc.New(pool, logger).WithQuality(opts.ScaleQuality),
		timestamps: timestamp.New(1),
		streams:    probe.Streams{Video: -1, Audio: -1, Metadata: -1},
	}
}

// Init runs the one-time startup of the decode library. Open calls it; calling
// it again has no effect.
func (r *Reader) Init() error {
	r.initOnce.Do(func() {
		if i, ok := r.opener.(ports.Initializer); ok {
			r.initErr = i.Init()
		}
	})
	return r.initErr
}

// Open opens a file. An already open file is closed first. On failure no
// state of the attempt is retained.
func (r *Reader) Open(path string) video.OpenResult {
	r.session.Lock()
	defer r.session.Unlock()

	if r.loaded {
		r.closeSession()
	}

	if err := r.Init(); err != nil {
		r.logger.Error("Decoder startup failed: %v", err)
		return video.OpenCodecNotOpened
	}

	src, err := r.opener.Open(path)
	if err != nil {
		r.logger.Error("File not opened: %s: %v", path, err)
		return video.OpenFileNotOpened
	}

	container := src.Info()
	if len(container.Streams) == 0 {
		src.Close()
		r.logger.Error("No stream information in %s", path)
		return video.OpenStreamInfoNotFound
	}

	streams := probe.Classify(container)
	stream, ok := probe.Find(container, streams.Video)
	if !ok {
		src.Close()
		r.logger.Error("No video stream in %s", path)
		return video.OpenVideoStreamNotFound
	}

	r.state.RLock()
	policy := r.opts.AspectRatio
	r.state.RUnlock()

	info, err := format.Analyze(path, container, stream, policy)
	if err != nil {
		src.Close()
		r.logger.Error("Stream information not found in %s: %v", path, err)
		return video.OpenStreamInfoNotFound
	}

	dec, err := src.OpenDecoder(stream.Index)
	if err != nil {
		src.Close()
		if errors.Is(err, ports.ErrCodecNotFound) {
			r.logger.Error("Codec not found: %s", stream.Codec)
			return video.OpenCodecNotFound
		}
		r.logger.Error("Codec not opened: %s: %v", stream.Codec, err)
		return video.OpenCodecNotOpened
	}

	r.src = src
	r.dec = dec
	r.container = container
	r.streams = streams
	r.timestamps = timestamp.New(info.AverageTimeStampsPerFrame)
	r.cache.SetWorkingZone(info.WorkingZone())

	r.state.Lock()
	r.info = info
	r.loaded = true
	r.state.Unlock()

	r.dumpInfo()
	r.logger.Info("Opened %s: %s at %.3f fps", path, info.OriginalSize, info.FramesPerSeconds)
	return video.OpenSuccess
}

// Close releases the session and every cached frame.
func (r *Reader) Close() {
	r.session.Lock()
	defer r.session.Unlock()
	r.closeSession()
}

func (r *Reader) closeSession() {
	if !r.loaded {
		return
	}
	r.cache.Clear()
	r.window.discard()
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
	}
	if r.src != nil {
		if err := r.src.Close(); err != nil {
			r.logger.Warn("Closing source failed: %v", err)
		}
		r.src = nil
	}
	r.streams = probe.Streams{Video: -1, Audio: -1, Metadata: -1}
	r.container = ports.ContainerInfo{}
	r.timestamps.Reset()
	r.cache.SetWorkingZone(video.Section{})

	r.state.Lock()
	r.info = video.Info{}
	r.loaded = false
	r.state.Unlock()
}

// Loaded reports whether a file is open.
func (r *Reader) Loaded() bool {
	r.state.RLock()
	defer r.state.RUnlock()
	return r.loaded
}

// Info returns the video information of the open file.
func (r *Reader) Info() video.Info {
	r.state.RLock()
	defer r.state.RUnlock()
	return r.info
}

// Container returns the raw container description of the open file.
func (r *Reader) Container() ports.ContainerInfo {
	r.session.Lock()
	defer r.session.Unlock()
	return r.container
}

// WorkingZone returns the navigable range of the open file.
func (r *Reader) WorkingZone() video.Section {
	r.state.RLock()
	defer r.state.RUnlock()
	if !r.loaded {
		return video.Section{Start: 0, End: -1}
	}
	return r.info.WorkingZone()
}

// Options returns the current options.
func (r *Reader) Options() Options {
	r.state.RLock()
	defer r.state.RUnlock()
	return r.opts
}

// Cache returns the playback cache.
func (r *Reader) Cache() *frame.Cache {
	return r.cache
}

// Window returns the analysis window.
func (r *Reader) Window() *Window {
	return r.window
}

// Current returns the frame under the playback cursor, or nil.
func (r *Reader) Current() *frame.Frame {
	return r.cache.Current()
}

// Pool returns the buffer pool backing every frame of this reader.
func (r *Reader) Pool() *frame.Pool {
	return r.pool
}

// ReadMetadata returns the embedded analysis metadata text, or "" when the
// file has none. The read position is rewound to the start afterwards.
func (r *Reader) ReadMetadata() string {
	r.session.Lock()
	defer r.session.Unlock()

	if !r.loaded || r.streams.Metadata < 0 {
		return ""
	}

	var text string
	for {
		pkt, err := r.src.ReadPacket()
		if err != nil {
			r.logger.Debug("Metadata packet not found: %v", err)
			break
		}
		if pkt.StreamIndex == r.streams.Metadata {
			text = string(pkt.Data)
			break
		}
	}

	if err := r.src.Seek(r.streams.Video, 0, 0, 0, true); err != nil {
		r.logger.Error("Rewind after metadata read failed: %v", err)
	}
	r.dec.Flush()
	r.timestamps.Reset()
	metrics.Seeks.Inc()
	return text
}

// ChangeAspectRatio changes the aspect ratio policy and recomputes the
// decoding size. The playback cache is cleared. Any import must be stopped first.
func (r *Reader) ChangeAspectRatio(policy video.AspectRatio) bool {
	r.session.Lock()
	defer r.session.Unlock()

	r.state.Lock()
	r.opts.AspectRatio = policy
	loaded := r.loaded
	if loaded {
		r.info.DecodingSize = format.DecodingSize(r.info.OriginalSize, r.info.PixelAspectRatio, policy)
	}
	r.state.Unlock()

	if !loaded {
		return false
	}
	r.clearCache()
	r.logger.Debug("Aspect ratio set to %s", policy.String())
	return true
}

// ChangeDeinterlace toggles deinterlacing. The playback cache is cleared.
// Any import must be stopped first.
func (r *Reader) ChangeDeinterlace(deinterlace bool) bool {
	r.session.Lock()
	defer r.session.Unlock()

	r.state.Lock()
	r.opts.Deinterlace = deinterlace
	loaded := r.loaded
	r.state.Unlock()

	if !loaded {
		return false
	}
	r.clearCache()
	return true
}

func (r *Reader) clearCache() {
	r.cache.Clear()
	metrics.CacheClears.Inc()
}

func (r *Reader) pipelineInput(pic *ports.Picture, ts int64) postproc.Input {
	r.state.RLock()
	defer r.state.RUnlock()
	return postproc.Input{
		Picture:     *pic,
		Timestamp:   ts,
		Size:        r.info.DecodingSize,
		Format:      r.opts.PixelFormat,
		Deinterlace: r.opts.Deinterlace,
	}
}

func (r *Reader) dumpInfo() {
	c := r.container
	r.logger.Debug("Container: %s, start %d us, duration %d us, %d streams",
		c.FormatName, c.StartTimeUs, c.DurationUs, len(c.Streams))
	for _, st := range c.Streams {
		r.logger.Debug("Stream %d: %s %s, %d frames, time base %d/%d, avg rate %d/%d",
			st.Index, st.Kind.String(), st.Codec, st.FrameCount,
			st.TimeBase.Num, st.TimeBase.Den, st.AvgFrameRate.Num, st.AvgFrameRate.Den)
	}
	i := r.info
	r.logger.Debug("Frame rate %.3f fps (%s), %d ticks per frame, %.0f ticks per second",
		i.FramesPerSeconds, i.FrameRateMethod, i.AverageTimeStampsPerFrame, i.AverageTimeStampsPerSeconds)
	r.logger.Debug("Size %s, decoding %s, pixel aspect %.3f, sample aspect %s",
		i.OriginalSize, i.DecodingSize, i.PixelAspectRatio, i.SampleAspectRatio)
}
