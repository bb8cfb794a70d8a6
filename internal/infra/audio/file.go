package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"jarvis/internal/domain"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
}

// FileSource treats every new file dropped in dir as one utterance.
// Audio files go through transcription; .txt files are taken as typed text.
type FileSource struct {
	dir       string
	interval  time.Duration
	processed map[string]bool
	rename    func(oldpath, newpath string) error
	logger    *slog.Logger
	mu        sync.Mutex
}

func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	return &FileSource{
		dir:       dir,
		interval:  500 * time.Millisecond,
		processed: make(map[string]bool),
		rename:    os.Rename,
		logger:    logger,
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextUtterance(ctx context.Context) (*domain.Utterance, error) {
	if utt, err := f.checkForNewFile(); err != nil || utt != nil {
		return utt, err
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			utt, err := f.checkForNewFile()
			if err != nil {
				return nil, err
			}
			if utt != nil {
				return utt, nil
			}
		}
	}
}

func (f *FileSource) checkForNewFile() (*domain.Utterance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !audioExtensions[ext] && ext != ".txt" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		// Remembered even when the rename fails, so a stuck file is read once.
		f.processed[path] = true
		if err := f.rename(path, path+".processed"); err != nil {
			f.logger.Warn("marking file processed", "path", path, "error", err)
		}

		utt := &domain.Utterance{CapturedAt: time.Now()}
		if ext == ".txt" {
			utt.Text = strings.TrimSpace(string(data))
		} else {
			utt.Audio = data
		}
		return utt, nil
	}

	return nil, nil
}
