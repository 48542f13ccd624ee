// Package liveindex is the write-path replication subsystem: nodes
// ingest freshly crawled pages, fan them out to their shard's replicas,
// and count acknowledgements against a configurable write quorum before
// a page is considered durable, grounded on
// original_source/crates/core/src/live_index.rs and
// original_source/crates/core/src/entrypoint/live_index.rs.
package liveindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// IndexableWebpage is one freshly crawled page headed for the index,
// the payload a live-index write carries — the WAL's durable record and
// the unit a quorum write batches.
type IndexableWebpage struct {
	URL             string
	Site            string
	Title           string
	Body            string
	HostCentrality  float64
	PageCentrality  float64
	IsHomepage      bool
	FetchTimeMs     int64
	UpdateTimestamp int64
	TrackerScore    float64
	HasAds          bool
	Region          string
	Simhash         uint64
}

// walEntry is one WAL record: a batch of pages ingested together.
type walEntry struct {
	Pages []IndexableWebpage
}

const walHeaderSize = 8

// WAL is an append-only, zstd-compressed, length-prefixed-frame log of
// ingested page batches, adapted from the teacher's NDJSON
// internal/store/wal.go: the framing borrows this module's own
// length-prefixed scheme (internal/transport/frame.go) since
// compressing whole NDJSON lines individually would waste the ratio
// zstd otherwise gets from batching.
type WAL struct {
	mu   sync.Mutex
	file *os.File
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens or creates the WAL file at path.
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open wal: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("new zstd decoder: %w", err)
	}
	return &WAL{file: f, enc: enc, dec: dec}, nil
}

// Append durably records one batch, fsync-ing before returning —
// matches the teacher's "write to disk before updating memory" WAL
// discipline, generalized from single key-value puts to page batches.
func (w *WAL) Append(pages []IndexableWebpage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(walEntry{Pages: pages})
	if err != nil {
		return err
	}
	compressed := w.enc.EncodeAll(data, nil)

	var header [walHeaderSize]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(compressed)))
	if _, err := w.file.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.file.Write(compressed); err != nil {
		return err
	}
	return w.file.Sync()
}

// ReadAll scans the WAL from the beginning and returns every batch in
// append order, for replay at startup.
func (w *WAL) ReadAll() ([][]IndexableWebpage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, 0); err != nil {
		return nil, err
	}

	var batches [][]IndexableWebpage
	for {
		var header [walHeaderSize]byte
		if _, err := io.ReadFull(w.file, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}
		frameLen := binary.LittleEndian.Uint64(header[:])
		compressed := make([]byte, frameLen)
		if _, err := io.ReadFull(w.file, compressed); err != nil {
			// a torn final write — stop here rather than fail the whole replay.
			break
		}
		data, err := w.dec.DecodeAll(compressed, nil)
		if err != nil {
			continue
		}
		var entry walEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		batches = append(batches, entry.Pages)
	}
	if _, err := w.file.Seek(0, 2); err != nil {
		return nil, err
	}
	return batches, nil
}

// Truncate empties the WAL after a commit/snapshot, matching the
// teacher's post-snapshot truncate step.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	_, err := w.file.Seek(0, 0)
	return err
}

// Close releases the underlying file and codec resources.
func (w *WAL) Close() error {
	w.enc.Close()
	w.dec.Close()
	return w.file.Close()
}
