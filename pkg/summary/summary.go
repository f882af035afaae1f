// Package summary samples a handful of preview frames from a file without
// going through a Reader. It opens its own transient session, so it can run
// alongside a Reader working on another file.
package summary

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/user/framereader/pkg/pipeline"
	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/probe"
	"github.com/user/framereader/pkg/video"
)

// Summary describes a file for a file browser.
type Summary struct {
	IsImage            bool
	HasSidecarMetadata bool
	ImageSize          video.Size
	DurationMs         int64
	Thumbnails         []image.Image
}

// Summarizer extracts evenly spaced thumbnails.
type Summarizer struct {
	opener ports.MediaOpener
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a summarizer.
func New(opener ports.MediaOpener, fs ports.FileSystem, logger ports.Logger) *Summarizer {
	return &Summarizer{
		opener: opener,
		fs:     fs,
		logger: logger.WithComponent(ports.ComponentSummary),
	}
}

// ThumbnailStage resizes a picture to width, keeping its aspect ratio.
// The output never shares memory with the input.
func ThumbnailStage(width int) pipeline.Stage[image.Image, image.Image] {
	return pipeline.StageFunc[image.Image, image.Image](func(ctx context.Context, img image.Image) (image.Image, error) {
		if img == nil || img.Bounds().Empty() {
			return nil, fmt.Errorf("%w: empty picture", video.ErrImageNotConverted)
		}
		if width <= 0 {
			width = img.Bounds().Dx()
		}
		return imaging.Resize(img, width, 0, imaging.Box), nil
	})
}

// Extract samples thumbs pictures of path, resized to width. Failures are
// logged and the summary gathered so far is returned.
func (s *Summarizer) Extract(path string, thumbs, width int) Summary {
	var sum Summary
	if thumbs < 1 {
		thumbs = 1
	}

	src, err := s.opener.Open(path)
	if err != nil {
		s.logger.Error("Summary: file not opened: %s: %v", path, err)
		return sum
	}
	defer src.Close()

	c := src.Info()
	if len(c.Streams) == 0 {
		s.logger.Error("Summary: no stream information in %s", path)
		return sum
	}

	streams := probe.Classify(c)
	sum.HasSidecarMetadata = streams.Metadata >= 0 || probe.HasSidecar(s.fs, path)

	stream, ok := probe.Find(c, streams.Video)
	if !ok {
		s.logger.Error("Summary: no video stream in %s", path)
		return sum
	}

	dec, err := src.OpenDecoder(stream.Index)
	if err != nil {
		s.logger.Error("Summary: codec not opened: %s: %v", stream.Codec, err)
		return sum
	}
	defer dec.Close()

	sum.ImageSize = video.Size{Width: stream.Width, Height: stream.Height}

	var first, interval int64 = 0, 1
	if c.DurationUs > 0 && stream.TimeBase.Valid() {
		tps := stream.TimeBase.Inverse()
		duration := int64(float64(c.DurationUs) * tps / 1e6)
		first = int64(float64(c.StartTimeUs) * tps / 1e6)
		sum.DurationMs = c.DurationUs / 1000
		sum.IsImage = duration == 1
		interval = max(duration/int64(thumbs), 1)
	}
	if sum.IsImage || c.DurationUs <= 0 {
		thumbs = 1
	}

	resize := ThumbnailStage(width)
	ctx := context.Background()

	read := 0
	for read < thumbs {
		pic, err := nextPicture(src, dec, stream.Index)
		if err != nil {
			s.logger.Error("Summary: frame reading failed after %d thumbnails: %v", read, err)
			break
		}
		read++

		thumb, err := resize.Execute(ctx, pic.Image)
		if err != nil {
			s.logger.Error("Summary: thumbnail %d not created: %v", read, err)
		} else {
			sum.Thumbnails = append(sum.Thumbnails, thumb)
		}

		if read < thumbs {
			target := first + int64(read)*interval
			if err := src.Seek(stream.Index, 0, target, target, true); err != nil {
				s.logger.Error("Summary: seek to %d failed: %v", target, err)
				break
			}
			dec.Flush()
		}
	}

	s.logger.Debug("Summary of %s: %d thumbnails, %d ms", path, len(sum.Thumbnails), sum.DurationMs)
	return sum
}

// nextPicture decodes packets of stream until a picture completes, draining
// the decoder at the end of the file.
func nextPicture(src ports.MediaSource, dec ports.VideoDecoder, stream int) (*ports.Picture, error) {
	for {
		pkt, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			if pic, ok, _ := dec.Drain(); ok && pic != nil {
				return pic, nil
			}
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		if pkt.StreamIndex != stream {
			continue
		}

		pic, finished, err := dec.Decode(pkt)
		if err != nil || !finished || pic == nil {
			continue
		}
		return pic, nil
	}
}
