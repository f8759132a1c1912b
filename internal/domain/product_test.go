package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromarket/internal/domain"
)

func TestParseHarvestDate_ZuluEqualsUTCOffset(t *testing.T) {
	zulu, err := domain.ParseHarvestDate("2022-04-05T00:00:00Z")
	require.NoError(t, err)
	offset, err := domain.ParseHarvestDate("2022-04-05T00:00:00+00:00")
	require.NoError(t, err)

	assert.True(t, zulu.Equal(offset))
}

func TestParseHarvestDate_AcceptedForms(t *testing.T) {
	want := time.Date(2022, 4, 5, 10, 30, 0, 0, time.UTC)

	for _, text := range []string{
		"2022-04-05T10:30:00Z",
		"2022-04-05T10:30:00.000000+00:00",
		"2022-04-05T12:30:00+02:00",
		"2022-04-05 10:30:00",
		"2022-04-05T10:30",
	} {
		got, err := domain.ParseHarvestDate(text)
		require.NoError(t, err, text)
		assert.True(t, want.Equal(got), text)
	}

	day, err := domain.ParseHarvestDate("2022-04-05")
	require.NoError(t, err)
	assert.True(t, time.Date(2022, 4, 5, 0, 0, 0, 0, time.UTC).Equal(day))
}

func TestParseHarvestDate_Invalid(t *testing.T) {
	for _, text := range []string{"invalid-date", "", "05/04/2022", "2022-13-01"} {
		_, err := domain.ParseHarvestDate(text)
		assert.ErrorIs(t, err, domain.ErrInvalidDateFormat, text)
	}
}

func TestProduct_TotalValueAndJSON(t *testing.T) {
	p := domain.Product{
		ProductID:    7,
		Name:         "Mango",
		FarmID:       "farm7",
		Type:         "fruit",
		Quantity:     4,
		PricePerUnit: 2.5,
		Description:  "Ripe",
		HarvestDate:  time.Date(2022, 7, 7, 0, 0, 0, 0, time.UTC),
		CreatedAt:    time.Date(2022, 7, 8, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 10.0, p.TotalValue())

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, float64(7), body["product_id"])
	assert.Equal(t, "farm7", body["farm_id"])
	assert.Equal(t, "2022-07-07T00:00:00Z", body["harvest_date"])
	assert.Equal(t, 10.0, body["total_value"])
}

func TestIsPatchable(t *testing.T) {
	assert.True(t, domain.IsPatchable("harvest_date"))
	assert.False(t, domain.IsPatchable("farm_id"))
	assert.False(t, domain.IsPatchable("product_id"))
	assert.False(t, domain.IsPatchable("created_at"))
}
