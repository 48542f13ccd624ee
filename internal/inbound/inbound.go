// Package inbound implements the inbound-similarity scorer shared
// between the ranking pipeline's InboundSimilarity signal and the
// similar-hosts finder, grounded on
// original_source/crates/core/src/similar_hosts.rs's use of
// bitvec_similarity::BitVec and inbound_similarity::Scorer (the
// bitvec_similarity/inbound_similarity modules themselves aren't in
// this retrieval pack, so the bit-vector sketch and Jaccard-like
// scoring below are reconstructed from spec.md §4.7's description:
// "Jaccard-like similarity over bit-vectors").
package inbound

import (
	"context"
	"math/bits"

	"distributed-search/internal/docid"
	"distributed-search/internal/webgraph"
)

// bitWidth is the fixed sketch size: each node's backlink set is
// projected onto this many buckets, trading exact set membership for a
// constant-size, constant-time similarity comparison.
const bitWidth = 2048
const wordCount = bitWidth / 64

// BitVec is a fixed-width bit-sketch of a host's ingoing-edge set: bit i
// is set if any backlink's source node hashes into bucket i.
type BitVec struct {
	words [wordCount]uint64
}

func bucketOf(from docid.NodeID) int {
	return int(uint64(from) % uint64(bitWidth))
}

func (b *BitVec) set(bit int) {
	b.words[bit/64] |= 1 << uint(bit%64)
}

// NewBitVec builds a sketch from a node's backlink edges.
func NewBitVec(edges []webgraph.Edge) BitVec {
	var b BitVec
	for _, e := range edges {
		if e.NoFollow {
			continue
		}
		b.set(bucketOf(e.From))
	}
	return b
}

// BatchNewFor builds one BitVec per node by querying its backlinks,
// mirroring bitvec_similarity::BitVec::batch_new_for.
func BatchNewFor(ctx context.Context, nodes []docid.NodeID, graph webgraph.Graph, edgeLimit webgraph.Limit) ([]BitVec, error) {
	out := make([]BitVec, len(nodes))
	for i, n := range nodes {
		edges, err := graph.HostBacklinks(ctx, n, edgeLimit)
		if err != nil {
			return nil, err
		}
		out[i] = NewBitVec(edges)
	}
	return out, nil
}

// Jaccard returns the intersection-over-union similarity of two
// sketches: popcount(a&b) / popcount(a|b), 0 when both are empty.
func (b BitVec) Jaccard(other BitVec) float64 {
	var inter, union int
	for i := 0; i < wordCount; i++ {
		inter += bits.OnesCount64(b.words[i] & other.words[i])
		union += bits.OnesCount64(b.words[i] | other.words[i])
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Scorer accumulates a set of liked and disliked bit-vectors and scores
// candidate nodes by how much their backlink sketch overlaps with the
// liked set versus the disliked set, mirroring
// inbound_similarity::Scorer::new/score.
type Scorer struct {
	liked    []BitVec
	disliked []BitVec
	// normalized controls whether the liked overlap is divided by the
	// number of liked nodes and the disliked overlap by the number of
	// disliked nodes, matching the `normalized: bool` parameter to
	// Scorer::new.
	normalized bool
}

// NewScorer builds a Scorer over the backlink sketches of the liked and
// disliked node sets.
func NewScorer(ctx context.Context, graph webgraph.Graph, liked, disliked []docid.NodeID, normalized bool) (*Scorer, error) {
	likedVecs, err := BatchNewFor(ctx, liked, graph, webgraph.Limit(128))
	if err != nil {
		return nil, err
	}
	dislikedVecs, err := BatchNewFor(ctx, disliked, graph, webgraph.Limit(128))
	if err != nil {
		return nil, err
	}
	return &Scorer{liked: likedVecs, disliked: dislikedVecs, normalized: normalized}, nil
}

// Score returns candidate's inbound-similarity value: the summed (or
// averaged, if normalized) Jaccard overlap with every liked sketch,
// minus the summed (or averaged, if normalized) overlap with every
// disliked sketch.
func (s *Scorer) Score(candidate BitVec) float64 {
	var likedScore float64
	for _, l := range s.liked {
		likedScore += candidate.Jaccard(l)
	}
	if s.normalized && len(s.liked) > 0 {
		likedScore /= float64(len(s.liked))
	}

	var dislikedScore float64
	for _, d := range s.disliked {
		dislikedScore += candidate.Jaccard(d)
	}
	if s.normalized && len(s.disliked) > 0 {
		dislikedScore /= float64(len(s.disliked))
	}

	return likedScore - dislikedScore
}
