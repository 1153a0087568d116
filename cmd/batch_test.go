package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-extract/internal/model"
)

type fakeSaver struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeSaver) SaveOutcome(_ context.Context, filename string, _ *model.ExtractionOutcome) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, filename)
	return "id-" + filename, nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4\n"), 0o644))
	}
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "b.PNG", "c.jpeg", "notes.txt", "sub/d.jpg")

	top, err := listDocuments(dir, false)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	all, err := listDocuments(dir, true)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = listDocuments(filepath.Join(dir, "missing"), false)
	assert.Error(t, err)
}

func TestProcessBatch(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "b.pdf", "c.pdf")
	paths, err := listDocuments(dir, false)
	require.NoError(t, err)
	paths = append(paths, filepath.Join(dir, "vanished.pdf"))

	proc := &fakeProcessor{}
	saver := &fakeSaver{}
	sum := processBatch(context.Background(), paths, 2, proc, saver)

	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 3, sum.Processed)
	assert.Equal(t, 1, sum.ReadErr)
	assert.Zero(t, sum.StoreErr)
	assert.Equal(t, 3, sum.ByMethod["google-documentai"])
	assert.InDelta(t, 88, sum.AvgConfidence(), 0.001)

	sort.Strings(saver.names)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, saver.names)

	var out bytes.Buffer
	sum.Print(&out)
	assert.Contains(t, out.String(), "documents: 4 processed: 3 read errors: 1 store errors: 0")
	assert.Contains(t, out.String(), "google-documentai")
}

func TestProcessBatch_StoreErrorsCounted(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "b.pdf")
	paths, err := listDocuments(dir, false)
	require.NoError(t, err)

	sum := processBatch(context.Background(), paths, 0, &fakeProcessor{}, &fakeSaver{err: errors.New("disk full")})
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 2, sum.StoreErr)
}

func TestProcessBatch_NoStore(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf")
	paths, err := listDocuments(dir, false)
	require.NoError(t, err)

	sum := processBatch(context.Background(), paths, 4, &fakeProcessor{}, nil)
	assert.Equal(t, 1, sum.Processed)
}

func TestProcessBatch_Empty(t *testing.T) {
	sum := processBatch(context.Background(), nil, 4, &fakeProcessor{}, nil)
	assert.Zero(t, sum.Total)
	assert.Zero(t, sum.AvgConfidence())
}
