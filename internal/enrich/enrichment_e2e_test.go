package enrich

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink/enrich-core/internal/connector/http"
	"github.com/fedlink/enrich-core/internal/connector/samgov"
	"github.com/fedlink/enrich-core/internal/connector/sbir"
	"github.com/fedlink/enrich-core/internal/connector/usaspending"
	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
	"github.com/fedlink/enrich-core/internal/vendor"
	"github.com/fedlink/enrich-core/pkg/staging"
)

// =============================================================================
// FIXTURES
// Stub servers for the three upstream APIs, exercised through the real
// connector + mapper + matcher + merge path.
// =============================================================================

type fixtures struct {
	sbirAwards   []sbir.Award
	spendingRows []usaspending.SearchResult
	samEntities  []samgov.Entity
}

func defaultFixtures() *fixtures {
	return &fixtures{
		sbirAwards: []sbir.Award{
			{
				Firm:                 "Acme Robotics Inc",
				AwardTitle:           "Adaptive RF Front End",
				Agency:               "Department of Defense",
				Branch:               "Air Force",
				Phase:                "Phase II",
				Program:              "SBIR",
				AgencyTrackingNumber: "F2D-0001",
				Contract:             "FA8650-22-C-1234",
				ProposalAwardDate:    "2022-06-01",
				ContractEndDate:      "2024-05-31",
				AwardYear:            2022,
				AwardAmount:          "$749,999.00",
				UEI:                  "UEIACME00001",
				NumberEmployees:      42,
				City:                 "San Jose",
				State:                "CA",
				Zip:                  "95113",
			},
		},
		spendingRows: []usaspending.SearchResult{
			{
				AwardID:             "FA8650-22-C-1234",
				RecipientName:       "ACME ROBOTICS INC",
				RecipientUEI:        "UEIACME00001",
				AwardAmount:         750000,
				AwardingAgency:      "Department of Defense",
				AwardingSubAgency:   "Department of the Air Force",
				StartDate:           "2022-06-01",
				EndDate:             "2024-05-31",
				Description:         "ADAPTIVE RF FRONT END",
				GeneratedInternalID: "CONT_AWD_FA865022C1234",
			},
		},
		samEntities: []samgov.Entity{
			{
				EntityRegistration: samgov.EntityRegistration{
					UeiSAM:             "UEIACME00001",
					CageCode:           "1ABC2",
					LegalBusinessName:  "ACME ROBOTICS, LLC",
					RegistrationStatus: "Active",
					RegistrationDate:   "2019-03-14",
					ExpirationDate:     "2026-03-14",
				},
				CoreData: samgov.CoreData{
					PhysicalAddress: samgov.Address{
						AddressLine1:        "100 Main St",
						City:                "San Jose",
						StateOrProvinceCode: "CA",
						ZipCode:             "95113",
						CountryCode:         "USA",
					},
				},
				Assertions: samgov.Assertions{
					GoodsAndServices: samgov.GoodsAndServices{
						PrimaryNaics: "541715",
						NaicsList:    []samgov.NaicsCode{{NaicsCode: "541715"}},
					},
				},
			},
		},
	}
}

func startSBIRServer(t *testing.T, fx *fixtures) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if !strings.HasPrefix(r.URL.Path, "/public/api/awards") {
			stdhttp.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// Single page: any offset past zero is empty
		if r.URL.Query().Get("start") != "" && r.URL.Query().Get("start") != "0" {
			w.Write([]byte("[]"))
			return
		}
		json.NewEncoder(w).Encode(fx.sbirAwards)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func startSpendingServer(t *testing.T, fx *fixtures) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.URL.Path != "/api/v2/search/spending_by_award/" {
			stdhttp.NotFound(w, r)
			return
		}
		var req usaspending.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var results []usaspending.SearchResult
		for _, row := range fx.spendingRows {
			for _, term := range req.Filters.RecipientSearchText {
				if strings.EqualFold(row.RecipientUEI, term) || strings.EqualFold(row.RecipientDUNS, term) {
					results = append(results, row)
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(usaspending.SearchResponse{
			Results:      results,
			PageMetadata: usaspending.PageMetadata{Page: req.Page, HasNext: false},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func startSAMServer(t *testing.T, fx *fixtures) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.URL.Path != "/entity-information/v3/entities" {
			stdhttp.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") == "" {
			w.WriteHeader(stdhttp.StatusUnauthorized)
			return
		}

		uei := r.URL.Query().Get("ueiSAM")
		name := r.URL.Query().Get("legalBusinessName")

		var matched []samgov.Entity
		for _, e := range fx.samEntities {
			switch {
			case uei != "" && strings.EqualFold(e.EntityRegistration.UeiSAM, uei):
				matched = append(matched, e)
			case uei == "" && name != "" && strings.EqualFold(e.EntityRegistration.LegalBusinessName, name):
				matched = append(matched, e)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(samgov.EntityResponse{
			TotalRecords: len(matched),
			EntityData:   matched,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testClientConfig(baseURL string) *http.ClientConfig {
	cfg := http.DefaultClientConfig()
	cfg.BaseURL = baseURL
	cfg.RateLimit = 1000
	cfg.RateBurst = 100
	cfg.Headers["Accept"] = "application/json"
	return cfg
}

// buildPipeline wires the full stack against the stub servers.
func buildPipeline(t *testing.T, fx *fixtures) (*Pipeline, []SourceAward, *staging.MemoryProvider) {
	t.Helper()
	ctx := context.Background()

	sbirURL := startSBIRServer(t, fx).URL
	sbirConn, err := sbir.NewWithClientConfig(&sbir.Config{BaseURL: sbirURL}, testClientConfig(sbirURL))
	require.NoError(t, err)

	spendURL := startSpendingServer(t, fx).URL
	spendConn, err := usaspending.NewWithClientConfig(&usaspending.Config{BaseURL: spendURL}, testClientConfig(spendURL))
	require.NoError(t, err)

	samURL := startSAMServer(t, fx).URL
	samConn, err := samgov.NewWithClientConfig(
		&samgov.Config{BaseURL: samURL, APIKey: "test-key"},
		testClientConfig(samURL))
	require.NoError(t, err)

	// Read the SBIR spine through the connector and map it into CDM
	it, err := sbirConn.Read(ctx, &endpoint.ReadRequest{DatasetID: "sbir.awards"})
	require.NoError(t, err)
	defer it.Close()

	mapper := sbir.NewCDMMapper()
	var awards []SourceAward
	for it.Next() {
		rec := it.Value()
		raw, ok := rec["_raw"].(*sbir.Award)
		require.True(t, ok, "record missing raw award")
		awards = append(awards, SourceAward{
			Award:  mapper.MapAward(raw),
			Vendor: mapper.VendorFacts(raw),
		})
	}
	require.NoError(t, it.Err())
	require.NotEmpty(t, awards)

	stager := staging.NewMemoryProvider(0)
	pipeline, err := NewPipeline(&PipelineConfig{
		Matcher:      vendor.NewDefaultMatcher(vendor.NewMemoryRegistry()),
		Spending:     spendConn,
		Registration: samConn,
		Stager:       stager,
	})
	require.NoError(t, err)

	return pipeline, awards, stager
}

// =============================================================================
// END-TO-END CASES
// =============================================================================

// An SBIR award is enriched with its USAspending obligation record.
func TestEnrichmentAttachesSpendingData(t *testing.T) {
	pipeline, awards, _ := buildPipeline(t, defaultFixtures())

	results, report, err := pipeline.Run(context.Background(), "run-spending", awards)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, report.Errors)

	e := results[0]
	require.NotNil(t, e.Spending, "spending record should attach")
	assert.Equal(t, "CONT_AWD_FA865022C1234", e.Spending.GeneratedAwardID)
	assert.Equal(t, 750000.0, e.Spending.ObligatedAmount)
	assert.Equal(t, 750000.0, e.Award.Properties["obligatedAmount"])
	assert.Equal(t, 1, report.SpendingMatched)
}

// An SBIR firm is enriched with its SAM.gov registration.
func TestEnrichmentAttachesRegistration(t *testing.T) {
	pipeline, awards, _ := buildPipeline(t, defaultFixtures())

	results, report, err := pipeline.Run(context.Background(), "run-registration", awards)
	require.NoError(t, err)
	require.Len(t, results, 1)

	e := results[0]
	require.NotNil(t, e.Registration, "registration should attach")
	assert.Equal(t, "UEIACME00001", e.Registration.UEI)
	assert.Equal(t, "1ABC2", e.Registration.CAGE)
	assert.Equal(t, "ACME ROBOTICS, LLC", e.Registration.LegalBusinessName)
	assert.Equal(t, "Active", e.Registration.Status)
	assert.Equal(t, 1, report.RegistrationMatched)
	assert.Equal(t, cdm.MatchStatusFull, e.Status)
}

// Conflicting sources merge under precedence and every merged field carries
// provenance; the losing value is retained.
func TestMergePrecedenceRecordsProvenance(t *testing.T) {
	pipeline, awards, stager := buildPipeline(t, defaultFixtures())

	results, report, err := pipeline.Run(context.Background(), "run-merge", awards)
	require.NoError(t, err)
	require.Len(t, results, 1)

	e := results[0]
	// SAM.gov legal name wins the identity merge
	assert.Equal(t, "ACME ROBOTICS, LLC", e.Vendor.Name)
	assert.Equal(t, "1ABC2", e.Vendor.CAGE)

	// The SBIR name survives as a conflict entry
	conflicts, ok := e.Award.Properties["conflicts"].(map[string]any)
	require.True(t, ok, "conflicts should be recorded")
	loser := conflicts["vendor.name"].(map[string]any)
	assert.Equal(t, "sbir", loser["source"])
	assert.Equal(t, "Acme Robotics Inc", loser["value"])
	assert.Equal(t, 1, report.Conflicts)

	// Provenance names a source and rule for each merged field
	assert.True(t, hasProvenance(e, "vendor.name", "samgov", "identity-precedence"))
	assert.True(t, hasProvenance(e, "award.obligatedAmount", "usaspending", "obligation-precedence"))
	assert.True(t, hasProvenance(e, "award.program", "sbir", "origin"))

	// The run's output batch was staged
	refs, err := stager.ListBatches(context.Background(), staging.MakeStageRef(staging.ProviderMemory, "run-merge"), "enriched")
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

// The resolved canonical vendor ID lands on the enriched award so persisted
// rows join back to the vendor registry.
func TestEnrichmentCarriesCanonicalVendorID(t *testing.T) {
	pipeline, awards, _ := buildPipeline(t, defaultFixtures())

	results, _, err := pipeline.Run(context.Background(), "run-canonical", awards)
	require.NoError(t, err)
	require.Len(t, results, 1)

	e := results[0]
	require.NotEmpty(t, e.CanonicalVendorID)
	assert.True(t, strings.HasPrefix(e.CanonicalVendorID, "vendor:"),
		"canonical ID should come from the registry, got %q", e.CanonicalVendorID)
	assert.NotEqual(t, e.VendorCdmID, e.CanonicalVendorID)
	assert.Equal(t, e.CanonicalVendorID, e.ToRecord()["canonical_vendor_id"])
}

// An award with no cross-source match passes through untouched and is counted.
func TestUnmatchedAwardPassesThrough(t *testing.T) {
	fx := defaultFixtures()
	fx.sbirAwards = []sbir.Award{
		{
			Firm:                 "Ghost Ventures LLC",
			AwardTitle:           "Quantum Widget Study",
			Agency:               "Department of Energy",
			Phase:                "Phase I",
			Program:              "STTR",
			AgencyTrackingNumber: "DE-0042",
			AwardYear:            2023,
			AwardAmount:          "$150,000.00",
			UEI:                  "UEIGHOST0001", // unknown to both secondary sources
			State:                "NM",
		},
	}
	pipeline, awards, _ := buildPipeline(t, fx)

	results, report, err := pipeline.Run(context.Background(), "run-unmatched", awards)
	require.NoError(t, err)
	require.Len(t, results, 1)

	e := results[0]
	assert.Equal(t, cdm.MatchStatusUnmatched, e.Status)
	assert.Nil(t, e.Spending)
	assert.Nil(t, e.Registration)

	// Original SBIR fields pass through unchanged
	assert.Equal(t, "Quantum Widget Study", e.Award.Title)
	assert.Equal(t, 150000.0, e.Award.AwardAmount)
	assert.Equal(t, "Ghost Ventures LLC", e.Vendor.Name)
	assert.NotContains(t, e.Award.Properties, "obligatedAmount")

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Unmatched)
	assert.Zero(t, report.SpendingMatched)
	assert.Zero(t, report.RegistrationMatched)
	assert.Empty(t, report.Errors)
}
