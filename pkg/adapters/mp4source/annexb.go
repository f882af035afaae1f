package mp4source

import (
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framereader/pkg/ports"
)

// codecFromEntry maps a sample entry type to a codec name.
func codecFromEntry(boxType string) string {
	switch boxType {
	case "avc1", "avc3":
		return ports.CodecH264
	case "hvc1", "hev1":
		return ports.CodecHEVC
	case "av01":
		return ports.CodecAV1
	case "mp4v":
		return ports.CodecMPEG4
	case "mp4a":
		return ports.CodecAAC
	case "tx3g", "wvtt", "stpp":
		return ports.CodecText
	default:
		return boxType
	}
}

// kindFromHandler maps an mdia handler type to a stream kind.
func kindFromHandler(handler string) ports.StreamKind {
	switch handler {
	case "vide":
		return ports.StreamVideo
	case "soun":
		return ports.StreamAudio
	case "subt", "text", "sbtl":
		return ports.StreamSubtitle
	default:
		return ports.StreamData
	}
}

// parameterSets returns the SPS and PPS of an avcC box in Annex B format.
func parameterSets(avcC *mp4.AvcCBox) []byte {
	if avcC == nil {
		return nil
	}
	var out []byte
	for _, sps := range avcC.SPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, sps...)
	}
	for _, pps := range avcC.PPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, pps...)
	}
	return out
}

// avccToAnnexB converts length-prefixed NAL units to start code prefixed ones.
// A truncated trailing unit is dropped.
func avccToAnnexB(data []byte) []byte {
	result := make([]byte, 0, len(data))
	offset := 0

	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4

		if naluLen < 0 || offset+naluLen > len(data) {
			break
		}

		result = append(result, 0, 0, 0, 1)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}

	return result
}
