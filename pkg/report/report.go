// Package report builds the probe report of an opened video.
package report

import (
	"time"

	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/probe"
	"github.com/user/framereader/pkg/video"
)

// Report contains everything the probe command learned about a file.
type Report struct {
	GeneratedAt time.Time

	File     FileInfo
	Video    video.Info
	Zone     video.Section
	Streams  []StreamInfo
	Metadata MetadataInfo
}

// FileInfo identifies the probed file.
type FileInfo struct {
	Path       string
	Container  string
	StartUs    int64
	DurationUs int64
}

// StreamInfo is one row of the stream table.
type StreamInfo struct {
	Index      int
	Kind       string
	Codec      string
	FrameCount int64
	Language   string
	Selected   bool
}

// MetadataInfo tells where analysis metadata was found.
type MetadataInfo struct {
	Embedded bool
	Sidecar  bool
}

// NewReport creates a new Report with the current timestamp.
func NewReport() *Report {
	return &Report{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Report.
type Builder struct {
	report *Report
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		report: NewReport(),
	}
}

// WithContainer sets file information and the stream table.
func (b *Builder) WithContainer(path string, c ports.ContainerInfo) *Builder {
	b.report.File = FileInfo{
		Path:       path,
		Container:  c.FormatName,
		StartUs:    c.StartTimeUs,
		DurationUs: c.DurationUs,
	}

	streams := probe.Classify(c)
	b.report.Streams = b.report.Streams[:0]
	for _, st := range c.Streams {
		b.report.Streams = append(b.report.Streams, StreamInfo{
			Index:      st.Index,
			Kind:       st.Kind.String(),
			Codec:      st.Codec,
			FrameCount: st.FrameCount,
			Language:   st.Language,
			Selected:   st.Index == streams.Video,
		})
	}
	b.report.Metadata.Embedded = streams.Metadata >= 0
	return b
}

// WithVideo sets the analysed video information.
func (b *Builder) WithVideo(info video.Info) *Builder {
	b.report.Video = info
	b.report.Zone = info.WorkingZone()
	return b
}

// WithSidecar records whether a sidecar metadata file exists.
func (b *Builder) WithSidecar(found bool) *Builder {
	b.report.Metadata.Sidecar = found
	return b
}

// Build returns the constructed Report.
func (b *Builder) Build() *Report {
	return b.report
}
