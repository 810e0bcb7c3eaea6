// Package samgov implements a SAM.gov Entity Management API connector using
// the endpoint interfaces. It provides entity registration lookups by UEI and
// by legal business name.
//
// CDM Mappings:
//   - samgov.entities → cdm.award.registration
package samgov
