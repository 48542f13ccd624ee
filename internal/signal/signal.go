// Package signal defines the named numeric features the ranking pipeline
// scores documents on, grounded on
// original_source/crates/core/src/ranking/signals/mod.rs's SignalEnum /
// CoreSignalEnum / SignalCoefficients, translated from Rust's
// enum_dispatch-backed enum into a plain Go int Kind plus lookup tables
// (no runtime dispatch is needed since every signal here is data, not a
// per-variant trait implementation).
package signal

// Kind identifies one named signal. Core signals are computable from
// index column/row data alone during retrieval; non-core signals need a
// candidate list (embedding similarity, cross-encoder, inbound
// similarity) and are only available from the recall stage onward.
type Kind int

const (
	Bm25F Kind = iota
	Bm25Title
	TitleCoverage
	Bm25TitleBigrams
	Bm25TitleTrigrams
	Bm25CleanBody
	CleanBodyCoverage
	Bm25CleanBodyBigrams
	Bm25CleanBodyTrigrams
	Bm25StemmedTitle
	Bm25StemmedCleanBody
	Bm25AllBody
	Bm25Keywords
	Bm25BacklinkText
	IdfSumURL
	IdfSumSite
	IdfSumDomain
	IdfSumSiteNoTokenizer
	IdfSumDomainNoTokenizer
	IdfSumDomainNameNoTokenizer
	IdfSumDomainIfHomepage
	IdfSumDomainNameIfHomepageNoTokenizer
	IdfSumDomainIfHomepageNoTokenizer
	IdfSumTitleIfHomepage
	HostCentrality
	HostCentralityRank
	PageCentrality
	PageCentralityRank
	IsHomepage
	FetchTimeMs
	UpdateTimestamp
	TrackerScore
	Region
	URLDigits
	URLSlashes
	LinkDensity
	HasAds

	// Non-core signals below this line: computable only once a
	// candidate list exists.
	QueryCentrality
	InboundSimilarity
	LambdaMart
	MinTitleSlop
	MinCleanBodySlop
	CrossEncoderSnippet
	CrossEncoderTitle
	TitleEmbeddingSimilarity
	KeywordEmbeddingSimilarity

	numKinds
)

var names = map[Kind]string{
	Bm25F:                                 "bm25f",
	Bm25Title:                             "bm25_title",
	TitleCoverage:                         "title_coverage",
	Bm25TitleBigrams:                      "bm25_title_bigrams",
	Bm25TitleTrigrams:                     "bm25_title_trigrams",
	Bm25CleanBody:                         "bm25_clean_body",
	CleanBodyCoverage:                     "clean_body_coverage",
	Bm25CleanBodyBigrams:                  "bm25_clean_body_bigrams",
	Bm25CleanBodyTrigrams:                 "bm25_clean_body_trigrams",
	Bm25StemmedTitle:                      "bm25_stemmed_title",
	Bm25StemmedCleanBody:                  "bm25_stemmed_clean_body",
	Bm25AllBody:                           "bm25_all_body",
	Bm25Keywords:                          "bm25_keywords",
	Bm25BacklinkText:                      "bm25_backlink_text",
	IdfSumURL:                             "idf_sum_url",
	IdfSumSite:                            "idf_sum_site",
	IdfSumDomain:                          "idf_sum_domain",
	IdfSumSiteNoTokenizer:                 "idf_sum_site_no_tokenizer",
	IdfSumDomainNoTokenizer:               "idf_sum_domain_no_tokenizer",
	IdfSumDomainNameNoTokenizer:           "idf_sum_domain_name_no_tokenizer",
	IdfSumDomainIfHomepage:                "idf_sum_domain_if_homepage",
	IdfSumDomainNameIfHomepageNoTokenizer: "idf_sum_domain_name_if_homepage_no_tokenizer",
	IdfSumDomainIfHomepageNoTokenizer:     "idf_sum_domain_if_homepage_no_tokenizer",
	IdfSumTitleIfHomepage:                 "idf_sum_title_if_homepage",
	HostCentrality:                        "host_centrality",
	HostCentralityRank:                    "host_centrality_rank",
	PageCentrality:                        "page_centrality",
	PageCentralityRank:                    "page_centrality_rank",
	IsHomepage:                            "is_homepage",
	FetchTimeMs:                           "fetch_time_ms",
	UpdateTimestamp:                       "update_timestamp",
	TrackerScore:                          "tracker_score",
	Region:                                "region",
	URLDigits:                             "url_digits",
	URLSlashes:                            "url_slashes",
	LinkDensity:                           "link_density",
	HasAds:                                "has_ads",
	QueryCentrality:                       "query_centrality",
	InboundSimilarity:                     "inbound_similarity",
	LambdaMart:                            "lambdamart",
	MinTitleSlop:                          "min_title_slop",
	MinCleanBodySlop:                      "min_clean_body_slop",
	CrossEncoderSnippet:                   "cross_encoder_snippet",
	CrossEncoderTitle:                     "cross_encoder_title",
	TitleEmbeddingSimilarity:              "title_embedding_similarity",
	KeywordEmbeddingSimilarity:            "keyword_embedding_similarity",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown_signal"
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(names))
	for k, n := range names {
		m[n] = k
	}
	return m
}()

// Parse looks a signal up by its snake_case name, as used in optic rules
// and signal_coefficients overrides.
func Parse(name string) (Kind, bool) {
	k, ok := byName[name]
	return k, ok
}

// coreKinds is exactly the set whose inputs live in column/row storage,
// per spec.md §4 step 3.
var coreKinds = map[Kind]bool{
	Bm25F: true, Bm25Title: true, TitleCoverage: true, Bm25TitleBigrams: true,
	Bm25TitleTrigrams: true, Bm25CleanBody: true, CleanBodyCoverage: true,
	Bm25CleanBodyBigrams: true, Bm25CleanBodyTrigrams: true, Bm25StemmedTitle: true,
	Bm25StemmedCleanBody: true, Bm25AllBody: true, Bm25Keywords: true,
	Bm25BacklinkText: true, IdfSumURL: true, IdfSumSite: true, IdfSumDomain: true,
	IdfSumSiteNoTokenizer: true, IdfSumDomainNoTokenizer: true,
	IdfSumDomainNameNoTokenizer: true, IdfSumDomainIfHomepage: true,
	IdfSumDomainNameIfHomepageNoTokenizer: true, IdfSumDomainIfHomepageNoTokenizer: true,
	IdfSumTitleIfHomepage: true, HostCentrality: true, HostCentralityRank: true,
	PageCentrality: true, PageCentralityRank: true, IsHomepage: true,
	FetchTimeMs: true, UpdateTimestamp: true, TrackerScore: true, Region: true,
	URLDigits: true, URLSlashes: true, LinkDensity: true, HasAds: true,
}

// IsCore reports whether k is computable from index column data alone.
func (k Kind) IsCore() bool { return coreKinds[k] }

// All returns every signal kind.
func All() []Kind {
	out := make([]Kind, 0, int(numKinds))
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// Core returns every core signal kind.
func Core() []Kind {
	out := make([]Kind, 0, len(coreKinds))
	for _, k := range All() {
		if k.IsCore() {
			out = append(out, k)
		}
	}
	return out
}

// defaultCoefficients mirrors each signal's CoreSignal::default_coefficient
// / Signal::default_coefficient. BM25 variants on title/body dominate;
// idf-sum and structural signals are secondary tie-breakers; the
// learned LambdaMart model and cross-encoder dominate precision once
// they're available.
var defaultCoefficients = map[Kind]float64{
	Bm25F:                 6.0,
	Bm25Title:              3.0,
	TitleCoverage:          2.0,
	Bm25TitleBigrams:       1.5,
	Bm25TitleTrigrams:      1.0,
	Bm25CleanBody:          4.0,
	CleanBodyCoverage:      1.5,
	Bm25CleanBodyBigrams:   1.0,
	Bm25CleanBodyTrigrams:  0.7,
	Bm25StemmedTitle:       1.5,
	Bm25StemmedCleanBody:   1.5,
	Bm25AllBody:            1.0,
	Bm25Keywords:           1.0,
	Bm25BacklinkText:       2.0,
	IdfSumURL:              0.3,
	IdfSumSite:             0.3,
	IdfSumDomain:           0.3,
	IdfSumSiteNoTokenizer:  0.2,
	IdfSumDomainNoTokenizer:               0.2,
	IdfSumDomainNameNoTokenizer:           0.2,
	IdfSumDomainIfHomepage:                0.5,
	IdfSumDomainNameIfHomepageNoTokenizer: 0.5,
	IdfSumDomainIfHomepageNoTokenizer:     0.5,
	IdfSumTitleIfHomepage:                 0.5,
	HostCentrality:        3.0,
	HostCentralityRank:    -0.5,
	PageCentrality:        2.0,
	PageCentralityRank:    -0.5,
	IsHomepage:            0.2,
	FetchTimeMs:           -0.01,
	UpdateTimestamp:       0.1,
	TrackerScore:          -0.3,
	Region:                0.1,
	URLDigits:             -0.1,
	URLSlashes:            -0.1,
	LinkDensity:           -0.2,
	HasAds:                -0.5,

	QueryCentrality:            0.5,
	InboundSimilarity:          1.0,
	LambdaMart:                 1.0,
	MinTitleSlop:               -0.2,
	MinCleanBodySlop:           -0.1,
	CrossEncoderSnippet:        2.0,
	CrossEncoderTitle:          2.0,
	TitleEmbeddingSimilarity:   1.0,
	KeywordEmbeddingSimilarity: 1.0,
}

// DefaultCoefficient returns the signal's fixed default coefficient.
func (k Kind) DefaultCoefficient() float64 {
	return defaultCoefficients[k]
}

// Calculation is a signal's {value, score} pair: value is the raw
// feature, score is its contribution after any per-signal transform.
type Calculation struct {
	Value float64
	Score float64
}

// Symmetrical builds a Calculation whose score equals its raw value,
// the common case for signals with no extra transform.
func Symmetrical(v float64) Calculation { return Calculation{Value: v, Score: v} }

// Computed pairs a signal with its calculation for one document.
type Computed struct {
	Kind Kind
	Calc Calculation
}

// Map is a document's or query's signal_coefficients: an override table
// layered over DefaultCoefficient. The zero value is usable and behaves
// as "all defaults".
type Map struct {
	values map[Kind]float64
}

// NewMap builds a Map from explicit (kind, coefficient) overrides.
func NewMap(overrides map[Kind]float64) Map {
	m := Map{values: make(map[Kind]float64, len(overrides))}
	for k, v := range overrides {
		m.values[k] = v
	}
	return m
}

// Get returns the coefficient for k: an explicit override if present,
// else k's default, per spec.md §4 step 4 "merged over defaults".
func (m Map) Get(k Kind) float64 {
	if m.values == nil {
		return k.DefaultCoefficient()
	}
	if v, ok := m.values[k]; ok {
		return v
	}
	return k.DefaultCoefficient()
}

// MergeOverwrite layers other's explicit overrides on top of m,
// mirroring SignalCoefficients::merge_overwrite.
func (m Map) MergeOverwrite(other Map) Map {
	merged := make(map[Kind]float64, len(m.values)+len(other.values))
	for k, v := range m.values {
		merged[k] = v
	}
	for k, v := range other.values {
		merged[k] = v
	}
	return Map{values: merged}
}

// SignalMap is the per-document accumulation of computed signals carried
// across ranking webpage stages. A stage may only add entries, never
// remove them (spec.md §3 "monotone across pipeline stages").
type SignalMap map[Kind]Calculation

// Clone returns a shallow copy safe for a later stage to extend without
// mutating the original.
func (s SignalMap) Clone() SignalMap {
	out := make(SignalMap, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// WeightedSum computes Σ coeff(signal_i) * score_i over every entry in
// s, using coeffs for the coefficient lookup — the plain scoring
// formula from spec.md §4 "otherwise the final score is ...".
func (s SignalMap) WeightedSum(coeffs Map) float64 {
	var total float64
	for k, calc := range s {
		total += coeffs.Get(k) * calc.Score
	}
	return total
}
