package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CouSixz/Ciborg/internal/models"
)

func TestRosterIndexGroupsByPool(t *testing.T) {
	idx := NewRosterIndex([]models.Agent{
		{ID: "a1", BandKey: "n2"},
		{ID: "a2", BandKey: " 0 to 2.000 "},
		{ID: "a3", BandKey: "0 to 2.000"},
		{ID: "a3", BandKey: "0 to 2.000"},
		{ID: "a4", BandKey: "0 Á 2.000"},
		{ID: "a5", BandKey: "N3"},
	})

	assert.Equal(t, 1, idx.Size(PoolN2))
	assert.Equal(t, 2, idx.Size(BandUpTo2k.Pool()))
	assert.Equal(t, "a2", idx.Candidates(BandUpTo2k.Pool())[0].ID)
	assert.Empty(t, idx.Candidates(BandAbove10k.Pool()))
}

func TestActiveAgents(t *testing.T) {
	agents := []models.Agent{
		{ID: "1", Status: "Active"},
		{ID: "2", Status: " ativo"},
		{ID: "3", Status: "Inativo"},
		{ID: "4"},
	}
	active := ActiveAgents(agents)
	assert.Len(t, active, 2)
	assert.Equal(t, "1", active[0].ID)
	assert.Equal(t, "2", active[1].ID)
}
