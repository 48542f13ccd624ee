package webgraph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// edgeRecord is one line of a newline-delimited-JSON host-edge dump.
type edgeRecord struct {
	From     string
	To       string
	NoFollow bool
}

// LoadEdgesJSONL reads newline-delimited JSON edge records from path
// and adds each to g, the same startup-seeding shape as
// index.LoadDocumentsJSONL.
func LoadEdgesJSONL(g *InMemory, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open webgraph file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec edgeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return count, fmt.Errorf("parse webgraph line %d: %w", count+1, err)
		}
		g.AddEdge(rec.From, rec.To, rec.NoFollow)
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scan webgraph file: %w", err)
	}
	return count, nil
}
