package jobs

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// DocumentStreamer is satisfied by *db.Documents.
type DocumentStreamer interface {
	Stream(ctx context.Context, collection string, fn func(doc map[string]any) error) error
}

type BackupResult struct {
	Dir       string
	Documents map[string]int
}

// Backup dumps every collection to <dir>/<timestamp>/<collection>.jsonl.gz,
// one JSON document per line.
type Backup struct {
	src         DocumentStreamer
	dir         string
	collections []string
}

func NewBackup(src DocumentStreamer, dir string, collections []string) *Backup {
	return &Backup{src: src, dir: dir, collections: collections}
}

func (b *Backup) Run(ctx context.Context, now time.Time) (BackupResult, error) {
	target := filepath.Join(b.dir, now.UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(target, 0o750); err != nil {
		return BackupResult{}, fmt.Errorf("creating backup dir: %w", err)
	}

	result := BackupResult{Dir: target, Documents: make(map[string]int, len(b.collections))}
	for _, collection := range b.collections {
		n, err := b.dumpCollection(ctx, target, collection)
		if err != nil {
			return result, fmt.Errorf("backing up %s: %w", collection, err)
		}
		result.Documents[collection] = n
	}

	slog.InfoContext(ctx, "database backup written",
		"dir", target,
		"collections", len(b.collections))
	return result, nil
}

func (b *Backup) dumpCollection(ctx context.Context, dir, collection string) (n int, err error) {
	f, err := os.Create(filepath.Join(dir, collection+".jsonl.gz"))
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := gzip.NewWriter(f)
	buf := bufio.NewWriter(zw)
	enc := json.NewEncoder(buf)

	err = b.src.Stream(ctx, collection, func(doc map[string]any) error {
		// Server-maintained attributes are recreated on restore.
		delete(doc, "_id")
		delete(doc, "_rev")
		n++
		return enc.Encode(doc)
	})
	if err != nil {
		return n, err
	}

	if err := buf.Flush(); err != nil {
		return n, err
	}
	return n, zw.Close()
}
