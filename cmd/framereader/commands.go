package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/user/framereader/pkg/adapters/ggrenderer"
	"github.com/user/framereader/pkg/config"
	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/probe"
	"github.com/user/framereader/pkg/reader"
	"github.com/user/framereader/pkg/report"
	"github.com/user/framereader/pkg/summary"
	"github.com/user/framereader/pkg/video"
)

// labelWidth aligns the values of probe output.
const labelWidth = 18

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show stream and timing information of a video"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   l10n.T("Write a Markdown report to file"),
			},
		},
		Action: runProbe,
	}
}

func stepCommand() *cli.Command {
	return &cli.Command{
		Name:      "step",
		Usage:     l10n.T("Decode consecutive frames from a position"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "from",
				Value: -1,
				Usage: l10n.T("Start timestamp in stream ticks (default: start of the working zone)"),
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Value:   10,
				Usage:   l10n.T("Number of frames to decode"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   l10n.T("Directory to save frames as PNG"),
			},
		},
		Action: runStep,
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     l10n.T("Import a range of frames into memory for analysis"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "start",
				Value: -1,
				Usage: l10n.T("Range start in stream ticks (default: start of the working zone)"),
			},
			&cli.Int64Flag{
				Name:  "end",
				Value: -1,
				Usage: l10n.T("Range end in stream ticks (default: end of the working zone)"),
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: l10n.T("Ignore the analysis limits of the configuration"),
			},
		},
		Action: runImport,
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     l10n.T("Create a contact sheet of evenly spaced thumbnails"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Required: true,
				Usage:    l10n.T("Output image path (.png or .jpg)"),
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: l10n.T("Number of thumbnails"),
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: l10n.T("Thumbnail width in pixels"),
			},
		},
		Action: runSummary,
	}
}

func fileArg(c *cli.Context) (string, error) {
	path := c.Args().First()
	if path == "" {
		return "", errors.New(l10n.T("A video file argument is required"))
	}
	return path, nil
}

func (e *env) openReader(path string) (*reader.Reader, error) {
	r := reader.New(e.opener, e.fs, e.log, e.cfg.ToReaderOptions())
	if res := r.Open(path); res != video.OpenSuccess {
		return nil, fmt.Errorf("%s: %s", l10n.F("Cannot open %s", path), res)
	}
	return r, nil
}

func runProbe(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	r, err := e.openReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	info := r.Info()
	zone := r.WorkingZone()
	metadata := l10n.T("None")
	if r.HasAnalysisMetadata() {
		metadata = l10n.T("Embedded")
	} else if probe.HasSidecar(e.fs, path) {
		metadata = l10n.T("Sidecar")
	}

	t := newTerminal()
	t.section(l10n.T("Video"))
	t.label(labelWidth, l10n.T("File")+":", path)
	t.label(labelWidth, l10n.T("Codec")+":", info.Codec)
	t.label(labelWidth, l10n.T("Original Size")+":", info.OriginalSize.String())
	t.label(labelWidth, l10n.T("Decoding Size")+":", info.DecodingSize.String())
	t.label(labelWidth, l10n.T("Frame Rate")+":", fmt.Sprintf("%.3f fps (%s)", info.FramesPerSeconds, info.FrameRateMethod))
	t.label(labelWidth, l10n.T("Duration")+":", fmt.Sprintf("%d ms", info.DurationMilliseconds()))
	t.label(labelWidth, l10n.T("Working Zone")+":", fmt.Sprintf("%d - %d", zone.Start, zone.End))
	t.label(labelWidth, l10n.T("Analysis Metadata")+":", metadata)

	out := c.String("report")
	if out == "" {
		return nil
	}
	rep := report.NewBuilder().
		WithContainer(path, r.Container()).
		WithVideo(info).
		WithSidecar(probe.HasSidecar(e.fs, path)).
		Build()
	if err := report.NewWriter(report.NewMarkdownFormatter(), e.fs).Write(out, rep); err != nil {
		return fmt.Errorf("%s: %w", l10n.F("Failed to write report %s", out), err)
	}
	fmt.Println()
	t.success(l10n.F("Report saved to %s", out))
	return nil
}

func runStep(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	r, err := e.openReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	from := c.Int64("from")
	if from < 0 {
		from = r.WorkingZone().Start
	}
	if !r.MoveTo(from) {
		return errors.New(l10n.F("Frame at %d not read", from))
	}

	out := c.String("output")
	renderer := ggrenderer.New()
	info := r.Info()

	t := newTerminal()
	t.section(l10n.T("Frames"))
	for i := 0; i < c.Int("count"); i++ {
		if i > 0 && !r.MoveNext() {
			break
		}
		cur := r.Current()
		t.item(fmt.Sprintf("%d (%d ms)", cur.Timestamp, info.TimestampToMilliseconds(cur.Timestamp)))

		if out == "" {
			continue
		}
		img := cur.Image()
		if img == nil {
			break
		}
		data, err := renderer.EncodeImage(img, ports.FormatPNG, 0)
		if err != nil {
			return err
		}
		name := filepath.Join(out, fmt.Sprintf("frame_%010d.png", cur.Timestamp))
		if err := e.fs.WriteFile(name, data); err != nil {
			return fmt.Errorf("%s: %w", l10n.F("Failed to write %s", name), err)
		}
	}
	return nil
}

func runImport(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	r, err := e.openReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	zone := r.WorkingZone()
	start, end := c.Int64("start"), c.Int64("end")
	if start < 0 {
		start = zone.Start
	}
	if end < 0 {
		end = zone.End
	}

	limits := e.cfg.Analysis
	if !c.Bool("force") && !r.CanExtractToMemory(start, end, limits.MaxSeconds, limits.MaxMemoryMiB) {
		return errors.New(l10n.F("Range %d - %d exceeds the analysis limits (%.0f s, %d MiB)", start, end, limits.MaxSeconds, limits.MaxMemoryMiB))
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			e.log.Warn("Interrupted, stopping import...")
			cancel()
		case <-ctx.Done():
		}
	}()

	t := newTerminal()
	var bar *progressbar.ProgressBar
	strategy, err := r.ExtractToMemory(ctx, start, end, false, func(done, total int64) {
		if bar == nil {
			bar = t.progress(total, l10n.T("Importing"))
		}
		_ = bar.Set64(min(done, total))
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New(l10n.T("Import cancelled"))
		}
		return err
	}
	defer r.StopAnalysis()

	w := r.Window()
	first, last, _ := w.Bounds()
	t.section(l10n.T("Analysis"))
	t.label(labelWidth, l10n.T("Strategy")+":", strategy.String())
	t.label(labelWidth, l10n.T("Frame Count")+":", fmt.Sprintf("%d", w.Len()))
	t.label(labelWidth, l10n.T("Range")+":", fmt.Sprintf("%d - %d", first, last))
	t.label(labelWidth, l10n.T("Memory")+":", fmt.Sprintf("%.1f MiB", float64(int64(w.Len())*int64(video.BytesPerFrame(r.Info().DecodingSize, r.Options().PixelFormat)))/(1024*1024)))
	fmt.Println()
	t.success(l10n.F("Imported %d frames", w.Len()))
	return nil
}

func runSummary(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}

	thumbs := e.cfg.Thumbnails
	if n := c.Int("count"); n > 0 {
		thumbs.Count = n
	}
	if w := c.Int("width"); w > 0 {
		thumbs.Width = w
	}

	if err := e.opener.Init(); err != nil {
		return err
	}

	sum := summary.New(e.opener, e.fs, e.log).Extract(path, thumbs.Count, thumbs.Width)
	if len(sum.Thumbnails) == 0 {
		return errors.New(l10n.F("No thumbnails extracted from %s", path))
	}

	renderer := ggrenderer.New()
	img, err := summary.Sheet(renderer, sum, summary.SheetOptions{
		Title:      filepath.Base(path),
		Columns:    thumbs.Columns,
		Gap:        thumbs.Gap,
		FontPath:   thumbs.FontPath,
		Background: config.ParseColor(thumbs.BackgroundColor),
		TextColor:  config.ParseColor(thumbs.TextColor),
	})
	if err != nil {
		return err
	}

	out := c.String("output")
	data, err := renderer.EncodeImage(img, ports.ParseImageFormat(filepath.Ext(out)), 90)
	if err != nil {
		return err
	}
	if err := e.fs.WriteFile(out, data); err != nil {
		return fmt.Errorf("%s: %w", l10n.F("Failed to write %s", out), err)
	}

	t := newTerminal()
	t.success(l10n.F("Contact sheet saved to %s", out))
	return nil
}
