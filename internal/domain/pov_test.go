package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePOV(t *testing.T) {
	pov := ParsePOV("S#Actual.Y#2025.P#Jan;Feb.E#E1.Vw#YTD.V#<Entity Currency>.C1#None.C3#Total")

	assert.Equal(t, "Actual", pov.Scenario)
	assert.Equal(t, "2025", pov.Year)
	assert.Equal(t, []string{"Jan", "Feb"}, pov.Periods)
	assert.Equal(t, "E1", pov.Entity)
	assert.Equal(t, "YTD", pov.View)
	assert.Equal(t, "<Entity Currency>", pov.Value)
	assert.Equal(t, map[int]string{1: "None", 3: "Total"}, pov.Customs)
	assert.Empty(t, pov.Missing())
	assert.Equal(t, []int{2}, pov.CustomGaps())
	require.NoError(t, pov.Validate())
}

func TestParsePOVCaseInsensitiveTwoDigitCustom(t *testing.T) {
	pov := ParsePOV("s#Actual.y#2025.p#Jan.e#E1.c12#Top")

	assert.Equal(t, "Actual", pov.Scenario)
	assert.Equal(t, map[int]string{12: "Top"}, pov.Customs)
	assert.Len(t, pov.CustomGaps(), 11)
}

func TestPOVValidateReportsMissingDimensions(t *testing.T) {
	pov := ParsePOV("S#Actual.P#Jan")

	assert.Equal(t, []string{"Y#", "E#"}, pov.Missing())
	err := pov.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Y#, E#")
}

func TestPOVDimensions(t *testing.T) {
	pov := ParsePOV("S#Actual.Y#2025.P#Jan.E#E1.C2#X")

	assert.Equal(t, map[string]string{"S": "Actual", "Y": "2025", "P": "Jan", "E": "E1", "C2": "X"}, pov.Dimensions())
}
