// Package usaspending implements a USAspending.gov connector using the
// endpoint interfaces. It provides source capabilities for prime award
// spending records and recipient lookups via the v2 search API.
//
// CDM Mappings:
//   - usaspending.awards → cdm.award.spending
package usaspending
