package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIncident(t *testing.T) {
	created := time.Date(2026, 8, 14, 12, 30, 0, 0, time.UTC)
	r := Report{
		ExternalID: "1790001",
		Text:       "#EPTC — acidente na av. Azenha, 300 https://t.co/a1b2c3",
		CreatedAt:  created,
	}

	inc := NewIncident(r, Coordinates{Lat: "-30.0277", Lon: "-51.2287"})

	assert.Equal(t, "1790001", inc.ExternalID)
	assert.Equal(t, "#EPTC — acidente na av. Azenha, 300 ", inc.Text)
	assert.Equal(t, created, inc.CreatedAt)
	assert.Equal(t, EmojiCollision, inc.TypeCode)
	assert.Equal(t, "-30.0277", inc.Lat)
	assert.Equal(t, "-51.2287", inc.Lon)
}

func TestNewIncidentMetric(t *testing.T) {
	r := Report{
		ExternalID: "1790002",
		Text:       "#EPTC — queda de moto na av. Ipiranga, 1200",
		CreatedAt:  time.Date(2026, 8, 14, 9, 0, 0, 0, time.UTC),
	}

	m := NewIncidentMetric(r, true, false)

	assert.Equal(t, "1790002", m.ExternalID)
	assert.Equal(t, TypeMotorcycleFall, m.Type)
	assert.True(t, m.HasAddress)
	assert.False(t, m.IsLocalized)
}
