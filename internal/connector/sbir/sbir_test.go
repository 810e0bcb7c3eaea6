package sbir

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink/enrich-core/internal/connector/http"
	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

func testClientConfig(baseURL string) *http.ClientConfig {
	cfg := http.DefaultClientConfig()
	cfg.BaseURL = baseURL
	cfg.RateLimit = 1000
	cfg.RateBurst = 100
	return cfg
}

func awardFixtures() []*Award {
	return []*Award{
		{
			Firm:                 "Acme Robotics, LLC",
			AwardTitle:           "Adaptive Optics for Small UAS",
			Agency:               "DOD",
			Branch:               "USAF",
			Phase:                "Phase II",
			Program:              "SBIR",
			AgencyTrackingNumber: "F2-4567",
			Contract:             "FA8650-22-C-1234",
			AwardYear:            2022,
			AwardAmount:          "749999.00",
			UEI:                  "UEIACME00001",
			City:                 "Dayton",
			State:                "OH",
			WomenOwned:           "N",
			HubzoneOwned:         "Y",
		},
		{
			Firm:        "Beta Photonics Inc",
			AwardTitle:  "Compact Lidar Source",
			Agency:      "DOD",
			Phase:       "Phase I",
			Program:     "STTR",
			Contract:    "W31P4Q-22-C-0099",
			AwardYear:   2022,
			AwardAmount: "150000.00",
			DUNS:        "123456789",
			City:        "Huntsville",
			State:       "AL",
		},
	}
}

// startAwardServer serves paginated award fixtures the way SBIR.gov does:
// a bare JSON array, with a short page ending pagination.
func startAwardServer(t *testing.T, awards []*Award) *httptest.Server {
	t.Helper()
	return httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, "/public/api/awards", r.URL.Path)

		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		if start >= len(awards) {
			w.Write([]byte("[]"))
			return
		}

		page := awards[start:]
		if agency := r.URL.Query().Get("agency"); agency != "" {
			filtered := page[:0:0]
			for _, a := range page {
				if a.Agency == agency {
					filtered = append(filtered, a)
				}
			}
			page = filtered
		}
		json.NewEncoder(w).Encode(page)
	}))
}

func newTestConnector(t *testing.T, baseURL string, cfg *Config) *SBIR {
	t.Helper()
	cfg.BaseURL = baseURL
	conn, err := NewWithClientConfig(cfg, testClientConfig(baseURL))
	require.NoError(t, err)
	return conn
}

func TestReadAwardsPaginates(t *testing.T) {
	ts := startAwardServer(t, awardFixtures())
	defer ts.Close()

	conn := newTestConnector(t, ts.URL, &Config{FetchSize: 1})

	iter, err := conn.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "sbir.awards"})
	require.NoError(t, err)
	defer iter.Close()

	var records []endpoint.Record
	for iter.Next() {
		records = append(records, iter.Value())
	}
	require.NoError(t, iter.Err())
	require.Len(t, records, 2)

	assert.Equal(t, "Acme Robotics, LLC", records[0]["firm"])
	assert.Equal(t, "F2-4567", records[0]["agency_tracking_number"])

	raw, ok := records[0]["_raw"].(*Award)
	require.True(t, ok, "record should carry the raw award for CDM mapping")
	assert.Equal(t, "UEIACME00001", raw.UEI)
}

func TestReadAwardsHonorsLimit(t *testing.T) {
	ts := startAwardServer(t, awardFixtures())
	defer ts.Close()

	conn := newTestConnector(t, ts.URL, &Config{FetchSize: 10})

	iter, err := conn.Read(context.Background(), &endpoint.ReadRequest{
		DatasetID: "sbir.awards",
		Limit:     1,
	})
	require.NoError(t, err)
	defer iter.Close()

	count := 0
	for iter.Next() {
		iter.Value()
		count++
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, 1, count)
}

func TestReadUnknownDataset(t *testing.T) {
	conn := newTestConnector(t, "http://unused", &Config{})

	_, err := conn.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "sbir.nope"})
	assert.Error(t, err)
}

func TestListDatasets(t *testing.T) {
	conn := newTestConnector(t, "http://unused", &Config{})

	datasets, err := conn.ListDatasets(context.Background())
	require.NoError(t, err)
	require.Len(t, datasets, len(DatasetDefinitions))

	byID := map[string]*endpoint.Dataset{}
	for _, ds := range datasets {
		byID[ds.ID] = ds
	}
	awardsDS := byID["sbir.awards"]
	require.NotNil(t, awardsDS)
	assert.True(t, awardsDS.SupportsIncremental)
	assert.Equal(t, cdm.ModelAward, awardsDS.CdmModelID)
}

func TestCDMMapperMapAward(t *testing.T) {
	award := awardFixtures()[0]

	mapped := NewCDMMapper().MapAward(award)
	require.NotNil(t, mapped)

	assert.Equal(t, cdm.AwardID("sbir", "F2-4567"), mapped.CdmID)
	assert.Equal(t, "sbir", mapped.SourceSystem)
	assert.Equal(t, "SBIR", mapped.Program)
	assert.Equal(t, "Phase II", mapped.Phase)
	assert.Equal(t, 749999.0, mapped.AwardAmount)
	assert.Equal(t, 2022, mapped.AwardYear)
	assert.Equal(t, "FA8650-22-C-1234", mapped.ContractNumber)
}

func TestCDMMapperVendorFacts(t *testing.T) {
	award := awardFixtures()[0]

	vendor := NewCDMMapper().VendorFacts(award)
	require.NotNil(t, vendor)

	assert.Equal(t, "Acme Robotics, LLC", vendor.Name)
	assert.Equal(t, "UEIACME00001", vendor.UEI)
	assert.Equal(t, "OH", vendor.State)
	assert.True(t, vendor.HUBZone)
	assert.False(t, vendor.WomanOwned)
}

func TestAwardTrackingID(t *testing.T) {
	assert.Equal(t, "F2-4567", (&Award{AgencyTrackingNumber: "F2-4567", Contract: "C-1"}).TrackingID())
	assert.Equal(t, "C-1", (&Award{Contract: "C-1"}).TrackingID())
	assert.Equal(t, "DOD-2022-Acme", (&Award{Agency: "DOD", AwardYear: 2022, Firm: "Acme"}).TrackingID())
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultFetchSize, cfg.FetchSize)

	oversized := &Config{FetchSize: 500}
	require.NoError(t, oversized.Validate())
	assert.Equal(t, DefaultFetchSize, oversized.FetchSize)
}
