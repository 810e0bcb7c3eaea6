package samgov

import (
	"strings"
	"time"

	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// CDMMapper converts SAM.gov entities to canonical registration records.
type CDMMapper struct {
	SourceSystem string
}

// NewCDMMapper creates a new CDM mapper.
func NewCDMMapper() *CDMMapper {
	return &CDMMapper{SourceSystem: "samgov"}
}

// MapRecord converts a SAM.gov record to a CDM entity.
func (m *CDMMapper) MapRecord(datasetID string, record endpoint.Record) any {
	raw := record["_raw"]
	if raw == nil {
		return nil
	}
	if e, ok := raw.(*Entity); ok && datasetID == "samgov.entities" {
		return m.MapEntity(e)
	}
	return nil
}

// MapEntity converts one SAM entity to cdm.Registration.
func (m *CDMMapper) MapEntity(e *Entity) *cdm.Registration {
	reg := e.EntityRegistration
	addr := e.CoreData.PhysicalAddress
	gs := e.Assertions.GoodsAndServices

	naics := make([]string, 0, len(gs.NaicsList))
	for _, n := range gs.NaicsList {
		if n.NaicsCode != "" {
			naics = append(naics, n.NaicsCode)
		}
	}

	return &cdm.Registration{
		CdmID:             cdm.RegistrationID(m.SourceSystem, reg.UeiSAM),
		SourceSystem:      m.SourceSystem,
		UEI:               reg.UeiSAM,
		CAGE:              reg.CageCode,
		LegalBusinessName: reg.LegalBusinessName,
		DBAName:           reg.DbaName,
		Status:            registrationStatus(reg.RegistrationStatus),
		RegisteredAt:      parseDate(reg.RegistrationDate),
		ExpiresAt:         parseDate(reg.ExpirationDate),
		Address1:          addr.AddressLine1,
		City:              addr.City,
		State:             addr.StateOrProvinceCode,
		Zip:               addr.ZipCode,
		Country:           addr.CountryCode,
		NAICSCodes:        naics,
		PrimaryNAICS:      gs.PrimaryNaics,
	}
}

// registrationStatus normalizes the single-letter status codes the API
// returns ("A", "E") alongside spelled-out values.
func registrationStatus(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "ACTIVE":
		return "Active"
	case "E", "EXPIRED", "I", "INACTIVE":
		return "Inactive"
	}
	return s
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
