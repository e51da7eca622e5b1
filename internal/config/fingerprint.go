package config

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// fingerprint hashes the string forms of the given components. Changing any
// component changes the result, which is what namespaces the cache.
func fingerprint(components ...any) string {
	var sb strings.Builder
	for _, c := range components {
		sb.WriteString(fmt.Sprint(c))
	}
	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// VectorStoreFingerprint identifies an index built from this configuration:
// backend choice, content transforms and embedding settings.
func (c *Config) VectorStoreFingerprint() string {
	p := c.Processing
	return fingerprint(
		p.VectorStore,
		p.HTMLToMarkdown,
		p.Deduplicate,
		p.SimilarDocumentsThreshold,
		p.SmallDocumentsChars,
		c.EmbeddingsModel,
		c.EmbeddingsPrecision,
		c.EmbeddingsBatchSize,
	)
}

// ExtractionFingerprint identifies extracted elements produced with this
// configuration's chunking and extraction strategy.
func (c *Config) ExtractionFingerprint() string {
	e := c.Extraction
	return fingerprint(
		c.LLMMaxTokens,
		e.Strategy,
		e.ChunkingStrategy,
		e.MultipageSections,
		e.Overlap,
	)
}
