package audio

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_RenameFailureReadsFileOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01.txt"), []byte("hello"), 0o600))

	var logs bytes.Buffer
	source := NewFileSource(dir, slog.New(slog.NewTextHandler(&logs, nil)))
	source.interval = 10 * time.Millisecond
	source.rename = func(_, _ string) error { return errors.New("read-only file system") }

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	utt, err := source.NextUtterance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", utt.Text)
	assert.Contains(t, logs.String(), "read-only file system")

	_, err = source.NextUtterance(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, statErr := os.Stat(filepath.Join(dir, "01.txt"))
	assert.NoError(t, statErr, "the file stays where it was")
}
