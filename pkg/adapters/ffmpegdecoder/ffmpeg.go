package ffmpegdecoder

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"os/exec"
	"runtime"
)

// FindFFmpeg searches for ffmpeg.
// Priority: 1) custom, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg(custom string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// runFunc decodes an Annex B elementary stream into pictures in display order.
type runFunc func(data []byte, width, height int) ([]image.Image, error)

// ffmpegRunner returns a runFunc piping data through the ffmpeg binary at path.
func ffmpegRunner(path string) runFunc {
	return func(data []byte, width, height int) ([]image.Image, error) {
		var stdout, stderr bytes.Buffer
		cmd := exec.Command(path,
			"-hide_banner",
			"-loglevel", "error",
			"-f", "h264",
			"-i", "pipe:0",
			"-f", "rawvideo",
			"-pix_fmt", "rgba",
			"-s", fmt.Sprintf("%dx%d", width, height),
			"pipe:1",
		)
		cmd.Stdin = bytes.NewReader(data)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("%w: %v\nstderr: %s", ErrDecodeFailed, err, stderr.String())
		}
		return splitFrames(stdout.Bytes(), width, height), nil
	}
}

// splitFrames cuts raw RGBA output into pictures. A trailing partial picture is dropped.
func splitFrames(raw []byte, width, height int) []image.Image {
	size := width * height * 4
	if size <= 0 {
		return nil
	}

	frames := make([]image.Image, 0, len(raw)/size)
	for off := 0; off+size <= len(raw); off += size {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		copy(img.Pix, raw[off:off+size])
		frames = append(frames, img)
	}
	return frames
}
