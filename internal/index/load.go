package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadDocumentsJSONL reads newline-delimited JSON Documents from path
// and inserts each into m, the shard-startup path cmd/shardnode and
// cmd/livenode use to seed a segment from a crawl snapshot (distinct
// from the live-index WAL replay path, which reconstructs from ingested
// batches rather than a snapshot file).
func LoadDocumentsJSONL(m *Memory, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open documents file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc Document
		if err := json.Unmarshal(line, &doc); err != nil {
			return count, fmt.Errorf("parse document line %d: %w", count+1, err)
		}
		m.Insert(doc)
		count++
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return count, err
	}
	return count, nil
}
