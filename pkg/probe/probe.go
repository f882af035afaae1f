// Package probe classifies the elementary streams of an opened file.
package probe

import (
	"path/filepath"
	"strings"

	"github.com/user/framereader/pkg/ports"
)

// SidecarExtension is the extension of external analysis metadata files.
const SidecarExtension = ".kva"

// metadataLanguage tags the text stream carrying embedded analysis metadata.
const metadataLanguage = "XML"

// Streams holds the stream indices selected for a session. -1 means absent.
type Streams struct {
	Video    int
	Audio    int
	Metadata int
}

// Classify selects one stream per role.
func Classify(c ports.ContainerInfo) Streams {
	s := Streams{
		Video:    BestStream(c, ports.StreamVideo),
		Audio:    BestStream(c, ports.StreamAudio),
		Metadata: -1,
	}
	for _, st := range c.Streams {
		if IsMetadataStream(st) {
			s.Metadata = st.Index
			break
		}
	}
	return s
}

// BestStream returns the index of the stream of the given kind with the most
// frames. The first stream wins ties. Returns -1 when none exists.
func BestStream(c ports.ContainerInfo, kind ports.StreamKind) int {
	best := -1
	var bestFrames int64 = -1
	for _, st := range c.Streams {
		if st.Kind != kind {
			continue
		}
		if st.FrameCount > bestFrames {
			best = st.Index
			bestFrames = st.FrameCount
		}
	}
	return best
}

// IsMetadataStream reports whether a stream carries embedded analysis metadata.
func IsMetadataStream(st ports.StreamInfo) bool {
	return st.Kind == ports.StreamSubtitle &&
		st.Codec == ports.CodecText &&
		strings.EqualFold(st.Language, metadataLanguage)
}

// Find returns the stream with the given index.
func Find(c ports.ContainerInfo, index int) (ports.StreamInfo, bool) {
	for _, st := range c.Streams {
		if st.Index == index {
			return st, true
		}
	}
	return ports.StreamInfo{}, false
}

// SidecarPath returns the path of the external metadata file for a video.
func SidecarPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + SidecarExtension
}

// HasSidecar reports whether the external metadata file exists.
func HasSidecar(fs ports.FileSystem, videoPath string) bool {
	ok, err := fs.Exists(SidecarPath(videoPath))
	return err == nil && ok
}
