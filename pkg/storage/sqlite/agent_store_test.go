// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/storage"
)

type agentSpec struct {
	id        string
	name      string
	owner     string
	skills    []string
	streaming bool
	createdAt time.Time
}

func makeAgent(t *testing.T, spec agentSpec) registry.Agent {
	t.Helper()

	skillDocs := make([]map[string]string, 0, len(spec.skills))
	for _, id := range spec.skills {
		skillDocs = append(skillDocs, map[string]string{"id": id, "name": id})
	}
	card := map[string]any{
		"name":         spec.name,
		"description":  "test agent",
		"url":          "http://" + spec.name + ".example.com/invoke",
		"version":      "1.0.0",
		"capabilities": map[string]bool{"streaming": spec.streaming},
		"skills":       skillDocs,
	}
	if spec.owner != "" {
		card["owner"] = spec.owner
	}
	raw, err := json.Marshal(card)
	require.NoError(t, err)

	agent, err := registry.AgentFromCard(raw)
	require.NoError(t, err)
	agent.ID = spec.id
	agent.CreatedAt = spec.createdAt
	agent.UpdatedAt = spec.createdAt
	return *agent
}

func TestCreateAndGetAgent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := t.Context()

	now := time.Now().UTC()
	agent := makeAgent(t, agentSpec{
		id: "agent-1", name: "weather-agent", owner: "team-a",
		skills: []string{"forecast"}, streaming: true, createdAt: now,
	})
	require.NoError(t, store.CreateAgent(ctx, agent))

	got, err := store.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "weather-agent", got.Name)
	assert.Equal(t, "team-a", got.Owner)
	assert.Equal(t, "http://weather-agent.example.com/invoke", got.URL)
	assert.JSONEq(t, string(agent.Card), string(got.Card))
	assert.NotContains(t, string(got.Card), "owner")
	assert.True(t, got.CapabilityFlags().Streaming)
	assert.True(t, got.HasSkill("forecast"))
	assert.Nil(t, got.LastHeartbeat)

	err = store.CreateAgent(ctx, agent)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = store.GetAgent(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListAgentsFilters(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := t.Context()

	base := time.Now().UTC().Add(-time.Hour)
	weather := makeAgent(t, agentSpec{
		id: "agent-w", name: "Weather Helper", owner: "team-a",
		skills: []string{"forecast", "alerts"}, streaming: true, createdAt: base,
	})
	translate := makeAgent(t, agentSpec{
		id: "agent-t", name: "translator", owner: "team-b",
		skills: []string{"translate"}, createdAt: base.Add(time.Minute),
	})
	for _, agent := range []registry.Agent{weather, translate} {
		require.NoError(t, store.CreateAgent(ctx, agent))
	}

	all, err := store.ListAgents(ctx, storage.AgentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "agent-t", all[0].ID) // newest first

	bySkill, err := store.ListAgents(ctx, storage.AgentFilter{Skill: "alerts"})
	require.NoError(t, err)
	require.Len(t, bySkill, 1)
	assert.Equal(t, "agent-w", bySkill[0].ID)

	byName, err := store.ListAgents(ctx, storage.AgentFilter{Name: "WEATHER"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "agent-w", byName[0].ID)

	byOwner, err := store.ListAgents(ctx, storage.AgentFilter{Owner: "team-b"})
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, "agent-t", byOwner[0].ID)

	streaming, err := store.ListAgents(ctx, storage.AgentFilter{Streaming: true})
	require.NoError(t, err)
	require.Len(t, streaming, 1)
	assert.Equal(t, "agent-w", streaming[0].ID)

	push, err := store.ListAgents(ctx, storage.AgentFilter{PushNotifications: true})
	require.NoError(t, err)
	assert.Empty(t, push)
}

func TestListAgentsAliveFilter(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := t.Context()

	now := time.Now().UTC()
	fresh := makeAgent(t, agentSpec{id: "agent-fresh", name: "fresh", createdAt: now})
	stale := makeAgent(t, agentSpec{id: "agent-stale", name: "stale", createdAt: now})
	silent := makeAgent(t, agentSpec{id: "agent-silent", name: "silent", createdAt: now})
	for _, agent := range []registry.Agent{fresh, stale, silent} {
		require.NoError(t, store.CreateAgent(ctx, agent))
	}

	require.NoError(t, store.TouchAgent(ctx, "agent-fresh", now.Add(-time.Minute)))
	require.NoError(t, store.TouchAgent(ctx, "agent-stale", now.Add(-10*time.Minute)))

	alive, err := store.ListAgents(ctx, storage.AgentFilter{AliveAfter: now.Add(-registry.AliveWindow)})
	require.NoError(t, err)
	require.Len(t, alive, 1)
	assert.Equal(t, "agent-fresh", alive[0].ID)
}

func TestTouchAgent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := t.Context()

	now := time.Now().UTC()
	agent := makeAgent(t, agentSpec{id: "agent-1", name: "beater", createdAt: now})
	require.NoError(t, store.CreateAgent(ctx, agent))

	beat := now.Add(time.Minute)
	require.NoError(t, store.TouchAgent(ctx, "agent-1", beat))

	got, err := store.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	require.NotNil(t, got.LastHeartbeat)
	assert.WithinDuration(t, beat, *got.LastHeartbeat, time.Second)

	assert.ErrorIs(t, store.TouchAgent(ctx, "missing", beat), storage.ErrNotFound)
}

func TestUpdateAgent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := t.Context()

	now := time.Now().UTC()
	agent := makeAgent(t, agentSpec{id: "agent-1", name: "before", owner: "team-a", createdAt: now})
	require.NoError(t, store.CreateAgent(ctx, agent))
	require.NoError(t, store.TouchAgent(ctx, "agent-1", now))

	updated := makeAgent(t, agentSpec{
		id: "agent-1", name: "after", owner: "team-a",
		skills: []string{"new-skill"}, createdAt: now,
	})
	updated.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, store.UpdateAgent(ctx, updated))

	got, err := store.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
	assert.True(t, got.HasSkill("new-skill"))
	// Heartbeat survives a card update.
	require.NotNil(t, got.LastHeartbeat)

	missing := makeAgent(t, agentSpec{id: "missing", name: "none", createdAt: now})
	assert.ErrorIs(t, store.UpdateAgent(ctx, missing), storage.ErrNotFound)
}

func TestDeleteAgent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := t.Context()

	agent := makeAgent(t, agentSpec{id: "agent-1", name: "gone", createdAt: time.Now().UTC()})
	require.NoError(t, store.CreateAgent(ctx, agent))

	require.NoError(t, store.DeleteAgent(ctx, "agent-1"))
	_, err := store.GetAgent(ctx, "agent-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.DeleteAgent(ctx, "missing"), storage.ErrNotFound)
}
