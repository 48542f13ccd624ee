package liveindex

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/willf/bloom"
)

// downloadedEstimatedURLs sizes the bloom filter's bit array; the exact
// backing log is authoritative, the filter only short-circuits the
// common "definitely not seen" case.
const downloadedEstimatedURLs = 1_000_000
const downloadedFalsePositiveRate = 0.001

// DownloadedSet is the live-index node's append-only record of URLs it
// has already ingested, matching spec.md §3/§6's "append-only set...
// TTL matching the index": a bloom filter answers "maybe seen" in
// O(1) with no disk read, backed by an exact on-disk append log (each
// line "unix_seconds\turl") for the authoritative answer and for the
// TTL sweep, since no teacher or pack repo carries an embedded KV
// engine comparable to the original's rocksdb-backed set.
type DownloadedSet struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	file   *os.File
	ingestedAt map[string]int64
}

// OpenDownloadedSet opens (or creates) the backing log at path and
// replays it to rebuild both the exact set and the bloom filter.
func OpenDownloadedSet(path string) (*DownloadedSet, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open downloaded set: %w", err)
	}

	d := &DownloadedSet{
		filter:     bloom.NewWithEstimates(downloadedEstimatedURLs, downloadedFalsePositiveRate),
		file:       f,
		ingestedAt: make(map[string]int64),
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		ts, url, ok := splitLine(scanner.Text())
		if !ok {
			continue
		}
		d.filter.Add([]byte(url))
		d.ingestedAt[url] = ts
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, 2); err != nil {
		return nil, err
	}
	return d, nil
}

func splitLine(line string) (ts int64, url string, ok bool) {
	idx := strings.IndexByte(line, '\t')
	if idx < 0 {
		return 0, "", false
	}
	n, err := strconv.ParseInt(line[:idx], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return n, line[idx+1:], true
}

// Contains reports whether url has already been ingested: the bloom
// filter answers "definitely not" cheaply; a filter "maybe" is
// confirmed against the exact in-memory set.
func (d *DownloadedSet) Contains(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.filter.Test([]byte(url)) {
		return false
	}
	_, ok := d.ingestedAt[url]
	return ok
}

// Mark records url as ingested at unixSeconds, durably appending to the
// backing log before updating the in-memory structures.
func (d *DownloadedSet) Mark(url string, unixSeconds int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.ingestedAt[url]; ok {
		return nil
	}
	line := strconv.FormatInt(unixSeconds, 10) + "\t" + url + "\n"
	if _, err := d.file.WriteString(line); err != nil {
		return err
	}
	if err := d.file.Sync(); err != nil {
		return err
	}
	d.filter.Add([]byte(url))
	d.ingestedAt[url] = unixSeconds
	return nil
}

// Prune drops every URL ingested before cutoffUnixSeconds, rewriting
// the backing log — the live-index node's TTL sweep (spec.md §6
// "prune entries older than the index's TTL").
func (d *DownloadedSet) Prune(cutoffUnixSeconds int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	survivors := make(map[string]int64, len(d.ingestedAt))
	for url, ts := range d.ingestedAt {
		if ts >= cutoffUnixSeconds {
			survivors[url] = ts
		}
	}

	if err := d.file.Truncate(0); err != nil {
		return err
	}
	if _, err := d.file.Seek(0, 0); err != nil {
		return err
	}
	w := bufio.NewWriter(d.file)
	for url, ts := range survivors {
		if _, err := w.WriteString(strconv.FormatInt(ts, 10) + "\t" + url + "\n"); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := d.file.Sync(); err != nil {
		return err
	}
	if _, err := d.file.Seek(0, 2); err != nil {
		return err
	}

	d.ingestedAt = survivors
	d.filter = bloom.NewWithEstimates(downloadedEstimatedURLs, downloadedFalsePositiveRate)
	for url := range survivors {
		d.filter.Add([]byte(url))
	}
	return nil
}

// Close releases the backing file.
func (d *DownloadedSet) Close() error {
	return d.file.Close()
}
