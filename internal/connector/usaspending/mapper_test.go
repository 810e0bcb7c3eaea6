package usaspending

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapResultContractCarriesPIID(t *testing.T) {
	spending := NewCDMMapper().MapResult(&SearchResult{
		AwardID:             "FA8650-22-C-1234",
		RecipientName:       "ACME ROBOTICS LLC",
		AwardAmount:         750000,
		GeneratedInternalID: "CONT_AWD_FA865022C1234",
	})

	require.NotNil(t, spending)
	assert.Equal(t, "FA8650-22-C-1234", spending.PIID)
	assert.Empty(t, spending.FAIN)
	assert.Equal(t, "contract", spending.AwardType)
	assert.Equal(t, "CONT_AWD_FA865022C1234", spending.GeneratedAwardID)
}

func TestMapResultAssistanceCarriesFAIN(t *testing.T) {
	spending := NewCDMMapper().MapResult(&SearchResult{
		AwardID:             "DESC0021234",
		RecipientName:       "GHOST VENTURES LLC",
		AwardAmount:         150000,
		GeneratedInternalID: "ASST_NON_DESC0021234_8900",
	})

	require.NotNil(t, spending)
	assert.Empty(t, spending.PIID)
	assert.Equal(t, "DESC0021234", spending.FAIN)
	assert.Equal(t, "assistance", spending.AwardType)
}

// Rows without a generated internal ID fall back to the display award ID
// for both the CDM ID and the contract keying.
func TestMapResultWithoutGeneratedID(t *testing.T) {
	spending := NewCDMMapper().MapResult(&SearchResult{
		AwardID:       "W31P4Q-22-C-0099",
		RecipientName: "BETA PHOTONICS INC",
	})

	require.NotNil(t, spending)
	assert.Equal(t, "W31P4Q-22-C-0099", spending.PIID)
	assert.Equal(t, "W31P4Q-22-C-0099", spending.GeneratedAwardID)
	assert.Equal(t, "contract", spending.AwardType)
}
