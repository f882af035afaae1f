package report

import (
	"fmt"
	"strings"

	"github.com/ideamans/go-l10n"
)

// MarkdownFormatter renders a Report as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(r *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", l10n.T("Video Report"))
	fmt.Fprintf(&sb, "%s: %s\n\n", l10n.T("Generated"), r.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&sb, "## %s\n\n", l10n.T("File"))
	writeHeader(&sb)
	writeRow(&sb, l10n.T("Path"), r.File.Path)
	writeRow(&sb, l10n.T("Container"), r.File.Container)
	writeRow(&sb, l10n.T("Duration"), fmt.Sprintf("%d ms", r.Video.DurationMilliseconds()))
	writeRow(&sb, l10n.T("Analysis Metadata"), metadataText(r.Metadata))
	sb.WriteString("\n")

	v := r.Video
	fmt.Fprintf(&sb, "## %s\n\n", l10n.T("Video"))
	writeHeader(&sb)
	writeRow(&sb, l10n.T("Codec"), v.Codec)
	writeRow(&sb, l10n.T("Frame Rate"), fmt.Sprintf("%.3f fps (%s)", v.FramesPerSeconds, v.FrameRateMethod))
	writeRow(&sb, l10n.T("Frame Interval"), fmt.Sprintf("%.2f ms", v.FrameIntervalMilliseconds))
	writeRow(&sb, l10n.T("Ticks per Second"), fmt.Sprintf("%.0f", v.AverageTimeStampsPerSeconds))
	writeRow(&sb, l10n.T("Ticks per Frame"), fmt.Sprintf("%d", v.AverageTimeStampsPerFrame))
	writeRow(&sb, l10n.T("Working Zone"), fmt.Sprintf("%d - %d", r.Zone.Start, r.Zone.End))
	writeRow(&sb, l10n.T("Original Size"), v.OriginalSize.String())
	writeRow(&sb, l10n.T("Decoding Size"), v.DecodingSize.String())
	writeRow(&sb, l10n.T("Pixel Aspect Ratio"), fmt.Sprintf("%.3f (%s)", v.PixelAspectRatio, v.SampleAspectRatio))
	sb.WriteString("\n")

	if len(r.Streams) > 0 {
		fmt.Fprintf(&sb, "## %s\n\n", l10n.T("Streams"))
		fmt.Fprintf(&sb, "| # | %s | %s | %s | %s |\n", l10n.T("Kind"), l10n.T("Codec"), l10n.T("Frame Count"), l10n.T("Language"))
		sb.WriteString("|---|---|---|---|---|\n")
		for _, st := range r.Streams {
			index := fmt.Sprintf("%d", st.Index)
			if st.Selected {
				index += " *"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n", index, st.Kind, st.Codec, st.FrameCount, st.Language)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeHeader(sb *strings.Builder) {
	fmt.Fprintf(sb, "| %s | %s |\n", l10n.T("Item"), l10n.T("Value"))
	sb.WriteString("|------|-------|\n")
}

func writeRow(sb *strings.Builder, item, value string) {
	fmt.Fprintf(sb, "| %s | %s |\n", item, value)
}

func metadataText(m MetadataInfo) string {
	switch {
	case m.Embedded && m.Sidecar:
		return l10n.T("Embedded and sidecar")
	case m.Embedded:
		return l10n.T("Embedded")
	case m.Sidecar:
		return l10n.T("Sidecar")
	default:
		return l10n.T("None")
	}
}

var _ Formatter = (*MarkdownFormatter)(nil)
