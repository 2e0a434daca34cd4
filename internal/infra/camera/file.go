package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileSource replays JPEG files from a directory as camera frames, in name
// order, wrapping around at the end. New files are picked up on every grab.
type FileSource struct {
	dir string

	mu   sync.Mutex
	open bool
	next int
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (f *FileSource) Name() string {
	return "file:" + f.dir
}

func (f *FileSource) Open(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating frame dir: %w", err)
	}
	f.open = true
	return nil
}

func (f *FileSource) Grab() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return nil, nil
	}

	frames, err := f.list()
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, nil
	}

	path := frames[f.next%len(frames)]
	f.next = (f.next + 1) % len(frames)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading frame %s: %w", path, err)
	}
	return data, nil
}

func (f *FileSource) list() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".jpg" && ext != ".jpeg" {
			continue
		}
		frames = append(frames, filepath.Join(f.dir, entry.Name()))
	}
	sort.Strings(frames)
	return frames, nil
}

func (f *FileSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.next = 0
	return nil
}

func (f *FileSource) LiveTracks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		return 1
	}
	return 0
}
