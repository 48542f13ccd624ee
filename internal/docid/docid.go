// Package docid holds the document- and shard-identifying hashes used
// throughout the query-time core: shard assignment and the dedup
// fingerprint hashes carried on every WebpagePointer. The teacher hashes
// keys for its consistent-hash ring with sha256 truncation
// (internal/cluster/ring.go); we use xxhash instead, the fast 64-bit
// hash grafana-tempo uses for exactly this kind of routing/dedup hash.
package docid

import (
	"net/url"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NodeID is the 64-bit opaque identifier assigned to every host or page
// in the webgraph (spec.md §3 "Node identifier").
type NodeID uint64

// ShardID is the small integer every document and host hashes into.
type ShardID uint32

// AssignShard hashes key into one of numShards shards (shard 0 when
// numShards is 0). Callers pass the deployment's shard count explicitly
// rather than relying on a package-level global so tests can exercise
// arbitrary shard counts.
func AssignShard(key string, numShards uint32) ShardID {
	if numShards == 0 {
		return 0
	}
	return ShardID(xxhash.Sum64String(key) % uint64(numShards))
}

// HostNodeID derives a stable NodeID for a host string ("example.com").
func HostNodeID(host string) NodeID {
	return NodeID(xxhash.Sum64String(strings.ToLower(host)))
}

// Fingerprints carries the precomputed hashes used only for dedup
// (spec.md §3 "fingerprint_hashes"): site, title, url, url-without-tld,
// and a simhash of content. Two pointers are duplicates when any of
// Site/Title/URL match exactly, or when Simhash values are within a
// configured Hamming radius.
type Fingerprints struct {
	Site         uint64
	Title        uint64
	URL          uint64
	URLNoTLD     uint64
	Simhash      uint64
}

// NewFingerprints computes the fingerprint hashes for one document.
// simhash is supplied by the caller (it depends on tokenized content,
// out of this package's scope) rather than recomputed here.
func NewFingerprints(site, title, rawURL string, simhash uint64) Fingerprints {
	return Fingerprints{
		Site:     xxhash.Sum64String(strings.ToLower(site)),
		Title:    xxhash.Sum64String(strings.ToLower(title)),
		URL:      xxhash.Sum64String(rawURL),
		URLNoTLD: xxhash.Sum64String(urlWithoutTLD(rawURL)),
		Simhash:  simhash,
	}
}

// urlWithoutTLD strips the scheme and the last dot-separated label of
// the host (a cheap stand-in for a public-suffix-list based truncation,
// which is out of scope — only used to build a dedup hash).
func urlWithoutTLD(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := u.Hostname()
	if idx := strings.LastIndex(host, "."); idx > 0 {
		host = host[:idx]
	}
	return host + u.Path
}

// HammingDistance64 returns the number of differing bits between a and b.
func HammingDistance64(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}

// SimilarWithinRadius reports whether two simhashes are duplicate
// candidates under the configured Hamming radius.
func SimilarWithinRadius(a, b uint64, radius int) bool {
	return HammingDistance64(a, b) <= radius
}

// RootDomain extracts the registrable-ish domain used for similar-hosts
// "domain deduplication" (spec.md §4.7 step 6): the last two
// dot-separated labels of the host.
func RootDomain(host string) string {
	host = strings.ToLower(host)
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
