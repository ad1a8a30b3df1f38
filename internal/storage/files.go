package storage

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileManager owns the on-disk layout: uploaded images, per-run scratch
// directories, storyboards and finalized videos. Everything except videos
// and storyboards is disposable.
type FileManager struct {
	baseDir        string
	uploadDir      string
	scratchDir     string
	videoDir       string
	storyboardDir  string
	maxUploadBytes int64
}

var mimeExtensionFallback = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
}

func NewFileManager(baseDir string, maxUploadBytes int64) (*FileManager, error) {
	fm := &FileManager{
		baseDir:        baseDir,
		uploadDir:      filepath.Join(baseDir, "uploads"),
		scratchDir:     filepath.Join(baseDir, "scratch"),
		videoDir:       filepath.Join(baseDir, "videos"),
		storyboardDir:  filepath.Join(baseDir, "storyboards"),
		maxUploadBytes: maxUploadBytes,
	}

	dirs := []string{fm.baseDir, fm.uploadDir, fm.scratchDir, fm.videoDir, fm.storyboardDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	return fm, nil
}

// SaveUploadedImage sniffs the upload's content type, rejects non-images and
// persists it under a fresh uuid name. Returns path, detected mime type and
// byte size.
func (fm *FileManager) SaveUploadedImage(file multipart.File, filename string) (string, string, int64, error) {
	sample := make([]byte, 512)
	n, err := file.Read(sample)
	if err != nil && err != io.EOF {
		return "", "", 0, fmt.Errorf("read image sample: %w", err)
	}
	sample = sample[:n]

	contentType := strings.ToLower(http.DetectContentType(sample))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", 0, fmt.Errorf("unsupported image type: %s", contentType)
	}

	ext := normalizeExtension(filename)
	if ext == "" {
		ext = fallbackExtension(contentType)
	}
	if ext == "" {
		ext = ".img"
	}

	id := uuid.NewString()
	path := filepath.Join(fm.uploadDir, fmt.Sprintf("%s%s", id, ext))

	size, err := fm.writeWithLimit(path, sample, file)
	if err != nil {
		return "", "", 0, err
	}

	return path, contentType, size, nil
}

// NewRunScratch creates a uniquely-named scratch directory for one pipeline
// run. Concurrent runs never share scratch space.
func (fm *FileManager) NewRunScratch(runID string) (string, error) {
	dir := filepath.Join(fm.scratchDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

// VideoPath returns where a finalized video for the given id lives.
func (fm *FileManager) VideoPath(videoID string) string {
	return filepath.Join(fm.videoDir, fmt.Sprintf("%s.mp4", videoID))
}

// StoryboardPath returns where a project's storyboard PDF lives.
func (fm *FileManager) StoryboardPath(projectID string) string {
	return filepath.Join(fm.storyboardDir, fmt.Sprintf("%s.pdf", projectID))
}

func (fm *FileManager) writeWithLimit(path string, sample []byte, file multipart.File) (int64, error) {
	if fm.maxUploadBytes > 0 && int64(len(sample)) > fm.maxUploadBytes {
		return 0, fmt.Errorf("image file exceeds maximum size")
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create image file: %w", err)
	}

	total := int64(0)

	cleanup := func(err error) (int64, error) {
		out.Close()
		os.Remove(path)
		return 0, err
	}

	if len(sample) > 0 {
		if _, err := out.Write(sample); err != nil {
			return cleanup(fmt.Errorf("write image sample: %w", err))
		}
		total += int64(len(sample))
	}

	buf := make([]byte, 32*1024)
	for {
		if fm.maxUploadBytes > 0 && total >= fm.maxUploadBytes {
			return cleanup(fmt.Errorf("image file exceeds maximum size"))
		}

		n, err := file.Read(buf)
		if n > 0 {
			total += int64(n)
			if fm.maxUploadBytes > 0 && total > fm.maxUploadBytes {
				return cleanup(fmt.Errorf("image file exceeds maximum size"))
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				return cleanup(fmt.Errorf("write image file: %w", werr))
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return cleanup(fmt.Errorf("read image content: %w", err))
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("close image file: %w", err)
	}

	return total, nil
}

func normalizeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ext
	}

	ext = strings.TrimSpace(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func fallbackExtension(contentType string) string {
	if ext, ok := mimeExtensionFallback[contentType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(contentType)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
