// Package sbir implements an SBIR.gov connector using the endpoint interfaces.
// It provides source capabilities for extracting SBIR/STTR awards and firms
// from the public award API.
//
// CDM Mappings:
//   - sbir.awards → cdm.award.award
//   - sbir.firms  → cdm.award.vendor
package sbir
