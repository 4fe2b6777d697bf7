package analyses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReportFull(t *testing.T) {
	raw := `{
		"summary": {"verdict": "promising", "overview": "A focused wedge."},
		"validation": {"score": 72, "reasoning": "niche but real"},
		"market_size": {"tam": "$4B", "sam": "$400M", "som": "$20M"},
		"competitors": [{"name": "Acme", "strengths": "brand"}],
		"swot": {"strengths": ["timing"], "threats": ["incumbents"]},
		"risks": [{"title": "CAC too high", "severity": "high"}]
	}`

	r, err := DecodeReport([]byte(raw))
	require.NoError(t, err)

	require.NotNil(t, r.Summary)
	assert.Equal(t, "promising", r.Summary.Verdict)
	require.NotNil(t, r.Validation)
	assert.Equal(t, 72, r.Validation.Score)
	require.NotNil(t, r.MarketSize)
	assert.Equal(t, "$4B", r.MarketSize.TAM)
	require.Len(t, r.Competitors, 1)
	assert.Equal(t, "Acme", r.Competitors[0].Name)
	require.NotNil(t, r.SWOT)
	assert.Equal(t, []string{"timing"}, r.SWOT.Strengths)
	require.Len(t, r.Risks, 1)

	// absent sections stay nil
	assert.Nil(t, r.Pricing)
	assert.Nil(t, r.UnitEconomics)
	assert.Empty(t, r.Roadmap)
}

func TestDecodeReportMalformedSectionDropped(t *testing.T) {
	// market_size has the wrong shape; competitors are fine
	raw := `{
		"market_size": "four billion dollars",
		"competitors": [{"name": "Acme"}]
	}`

	r, err := DecodeReport([]byte(raw))
	require.NoError(t, err)

	assert.Nil(t, r.MarketSize, "malformed section must degrade to absent")
	require.Len(t, r.Competitors, 1)
}

func TestDecodeReportUnknownKeysIgnored(t *testing.T) {
	r, err := DecodeReport([]byte(`{"something_new": {"x": 1}, "summary": {"verdict": "ok"}}`))
	require.NoError(t, err)
	require.NotNil(t, r.Summary)
}

func TestDecodeReportNotAnObject(t *testing.T) {
	_, err := DecodeReport([]byte(`"just a string"`))
	assert.Error(t, err)

	_, err = DecodeReport([]byte(`not json at all`))
	assert.Error(t, err)
}

func TestDecodeReportEmptyObject(t *testing.T) {
	r, err := DecodeReport([]byte(`{}`))
	assert.NoError(t, err)
	assert.Equal(t, Report{}, r)
}
