package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
)

func TestCommandPayloadJSONCarriesParamsForKind(t *testing.T) {
	payload := models.CommandPayload{
		Kind: models.CommandKindPlay,
		Play: &models.PlayParams{ScentID: "lavender", Intensity: 3, CycleMs: 30000},
	}

	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"kind":"play","params":{"scent_id":"lavender","intensity":3,"cycle_ms":30000}}`, string(raw))

	var decoded models.CommandPayload
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestCommandPayloadJSONOmitsParamsForBareKinds(t *testing.T) {
	payload := models.CommandPayload{Kind: models.CommandKindPause}

	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"kind":"pause"}`, string(raw))

	var decoded models.CommandPayload
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded.Play)
	assert.Nil(t, decoded.TestScent)
}

func TestCommandPayloadValidate(t *testing.T) {
	valid := []models.CommandPayload{
		{Kind: models.CommandKindPlay, Play: &models.PlayParams{ScentID: "lavender"}},
		{Kind: models.CommandKindTestScent, TestScent: &models.TestScentParams{Position: 2, DurationMs: 500}},
		{Kind: models.CommandKindPause},
		{Kind: models.CommandKindRequestAuth},
	}
	for _, payload := range valid {
		assert.NoError(t, payload.Validate(), "kind %s", payload.Kind)
	}

	invalid := []models.CommandPayload{
		{Kind: models.CommandKindPlay},
		{Kind: models.CommandKindPlay, Play: &models.PlayParams{}, TestScent: &models.TestScentParams{}},
		{Kind: models.CommandKindTestScent},
		{Kind: models.CommandKindPause, Play: &models.PlayParams{}},
		{Kind: "reboot"},
	}
	for _, payload := range invalid {
		assert.Error(t, payload.Validate(), "kind %s", payload.Kind)
	}
}
