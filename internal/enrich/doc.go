// Package enrich implements the multi-source award enrichment pipeline.
// SBIR awards are the spine: each award's firm is resolved to a canonical
// vendor, then USAspending obligation data and SAM.gov registration data
// are attached and merged under source precedence with per-field provenance.
package enrich
