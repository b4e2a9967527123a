package lib

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultVideoExtensions is the container set the scanner accepts when the
// configuration does not name one.
var DefaultVideoExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".wmv",
	".flv", ".webm", ".ts", ".mpg", ".mpeg",
}

type FileScanner struct {
	rootDir    string
	recursive  bool
	extensions map[string]bool
}

// NewFileScanner builds a scanner for rootDir. A nil or empty extension list
// selects DefaultVideoExtensions. Extensions are matched case-insensitively
// and may be given with or without the leading dot.
func NewFileScanner(rootDir string, recursive bool, extensions []string) *FileScanner {
	if len(extensions) == 0 {
		extensions = DefaultVideoExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return &FileScanner{rootDir: rootDir, recursive: recursive, extensions: exts}
}

// Matches reports whether name carries one of the scanner's extensions.
func (fs *FileScanner) Matches(name string) bool {
	return fs.extensions[strings.ToLower(filepath.Ext(name))]
}

// ScanVideoFiles returns the candidate files under the root directory in
// walk order. Only direct children are considered unless the scanner is
// recursive. Unreadable subdirectories are logged and skipped.
func (fs *FileScanner) ScanVideoFiles(ctx context.Context) ([]string, error) {
	info, err := os.Stat(fs.rootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot access %s: %v", ErrInvalidInput, fs.rootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidInput, fs.rootDir)
	}

	// WalkDir does not descend into a root that is itself a symlink, so walk
	// the resolved directory and report paths under the root as given.
	walkRoot, err := filepath.EvalSymlinks(fs.rootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve %s: %v", ErrInvalidInput, fs.rootDir, err)
	}

	slog.Info("Scanning for video files", "rootDir", fs.rootDir, "recursive", fs.recursive)
	if walkRoot != fs.rootDir {
		slog.Debug("Root resolved", "rootDir", fs.rootDir, "target", walkRoot)
	}

	var videoFiles []string

	err = filepath.WalkDir(walkRoot, func(path string, d os.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == walkRoot {
				return fmt.Errorf("%w: cannot read %s: %v", ErrInvalidInput, fs.rootDir, err)
			}
			slog.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != walkRoot && !fs.recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if !fs.Matches(d.Name()) || !isRegular(path, d) {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		path = filepath.Join(fs.rootDir, rel)
		videoFiles = append(videoFiles, path)
		slog.Debug("Found video file", "path", path)
		return nil
	})

	if err != nil {
		return nil, err
	}

	slog.Info("Video file scan completed", "rootDir", fs.rootDir, "filesFound", len(videoFiles))
	return videoFiles, nil
}

// isRegular follows symlinks so a link to a regular file qualifies.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
