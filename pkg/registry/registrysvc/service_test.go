// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registrysvc

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-core/httperr"

	"github.com/stacklok/mcphub/pkg/client"
	"github.com/stacklok/mcphub/pkg/mcp"
	"github.com/stacklok/mcphub/pkg/registry"
	"github.com/stacklok/mcphub/pkg/storage"
	"github.com/stacklok/mcphub/pkg/storage/mocks"
)

const validAgentCard = `{
	"name": "translator",
	"description": "Translates text between languages",
	"url": "http://agents.local/translator",
	"version": "1.0.0",
	"capabilities": {"streaming": true},
	"skills": [{"id": "translate", "name": "Translate"}],
	"owner": "team-i18n"
}`

func testCaps() mcp.Capabilities {
	return mcp.Capabilities{
		Tools:     []mcp.Tool{{Name: "echo"}, {Name: "add"}},
		Resources: []mcp.Resource{{URI: "file://config.json"}},
		Prompts:   []mcp.Prompt{},
	}
}

func testService(t *testing.T, opts ...Option) (Service, *mocks.MockStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	pool := client.NewManager(store)
	t.Cleanup(func() { pool.CloseAll(context.Background()) })
	return New(store, pool, opts...), store
}

func staticDiscoverer(caps mcp.Capabilities, err error) client.DiscoverFunc {
	return func(context.Context, registry.ServerType, registry.ServerConfig) (mcp.Capabilities, error) {
		return caps, err
	}
}

func TestRegisterServer(t *testing.T) {
	t.Parallel()

	svc, store := testService(t, WithDiscoverer(staticDiscoverer(testCaps(), nil)))

	var created registry.ServerRecord
	store.EXPECT().CreateServer(gomock.Any(), gomock.Any(), testCaps()).DoAndReturn(
		func(_ context.Context, record registry.ServerRecord, _ mcp.Capabilities) error {
			created = record
			return nil
		})

	detail, err := svc.RegisterServer(t.Context(), RegisterServerRequest{
		Type:        "stdio",
		Description: "  local echo server  ",
		Config:      registry.ServerConfig{Command: "mcp-echo", Args: []string{"--fast"}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, detail.ID)
	assert.Equal(t, created.ID, detail.ID)
	assert.Equal(t, registry.ServerTypeStdio, detail.Type)
	assert.Equal(t, "local echo server", detail.Description)
	assert.Equal(t, registry.ServerStatusActive, detail.Status)
	require.NotNil(t, detail.LastVerified)
	assert.Equal(t, detail.CreatedAt, *detail.LastVerified)
	assert.Equal(t, testCaps(), detail.Capabilities)
}

func TestRegisterServerUnknownType(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t)

	_, err := svc.RegisterServer(t.Context(), RegisterServerRequest{Type: "websocket"})
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrInvalidConfig)
	assert.Equal(t, http.StatusUnprocessableEntity, httperr.Code(err))
}

func TestRegisterServerInvalidConfig(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t)

	_, err := svc.RegisterServer(t.Context(), RegisterServerRequest{Type: "stdio"})
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "command is required")
}

func TestRegisterServerNormalizesConfig(t *testing.T) {
	t.Parallel()

	svc, store := testService(t, WithDiscoverer(staticDiscoverer(mcp.Capabilities{}, nil)))

	var created registry.ServerRecord
	store.EXPECT().CreateServer(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, record registry.ServerRecord, _ mcp.Capabilities) error {
			created = record
			return nil
		})

	_, err := svc.RegisterServer(t.Context(), RegisterServerRequest{
		Type: "http",
		Config: registry.ServerConfig{
			URL:     " http://backend.local/mcp ",
			Command: "leftover",
			Args:    []string{"--stale"},
		},
	})
	require.NoError(t, err)

	// Cross-type leftovers never reach the store.
	assert.Equal(t, "http://backend.local/mcp", created.Config.URL)
	assert.Empty(t, created.Config.Command)
	assert.Empty(t, created.Config.Args)
}

func TestRegisterServerDiscoveryFailure(t *testing.T) {
	t.Parallel()

	discoveryErr := httperr.WithCode(errors.New("failed to connect"), http.StatusServiceUnavailable)
	svc, _ := testService(t, WithDiscoverer(staticDiscoverer(mcp.Capabilities{}, discoveryErr)))

	_, err := svc.RegisterServer(t.Context(), RegisterServerRequest{
		Type:   "http",
		Config: registry.ServerConfig{URL: "http://backend.local/mcp"},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, httperr.Code(err))
}

func TestGetServer(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)

	record := registry.ServerRecord{ID: "srv-1", Type: registry.ServerTypeStdio}
	store.EXPECT().GetServer(gomock.Any(), "srv-1").Return(record, nil)
	store.EXPECT().GetCapabilities(gomock.Any(), "srv-1").Return(testCaps(), nil)

	detail, err := svc.GetServer(t.Context(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", detail.ID)
	assert.Equal(t, testCaps(), detail.Capabilities)
}

func TestGetServerNotFound(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().GetServer(gomock.Any(), "ghost").Return(registry.ServerRecord{}, storage.ErrNotFound)

	_, err := svc.GetServer(t.Context(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListServers(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)

	records := []registry.ServerRecord{{ID: "srv-new"}, {ID: "srv-old"}}
	store.EXPECT().ListServers(gomock.Any(), storage.ServerFilter{}).Return(records, nil)
	store.EXPECT().GetCapabilities(gomock.Any(), "srv-new").Return(testCaps(), nil)
	store.EXPECT().GetCapabilities(gomock.Any(), "srv-old").Return(mcp.Capabilities{}, nil)

	summaries, err := svc.ListServers(t.Context(), storage.ServerFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "srv-new", summaries[0].ID)
	assert.Equal(t, mcp.CapabilityCounts{Tools: 2, Resources: 1}, summaries[0].Capabilities)
	assert.Equal(t, mcp.CapabilityCounts{}, summaries[1].Capabilities)
}

func TestListServersSkipsConcurrentlyDeleted(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)

	records := []registry.ServerRecord{{ID: "srv-kept"}, {ID: "srv-gone"}}
	store.EXPECT().ListServers(gomock.Any(), gomock.Any()).Return(records, nil)
	store.EXPECT().GetCapabilities(gomock.Any(), "srv-kept").Return(testCaps(), nil)
	store.EXPECT().GetCapabilities(gomock.Any(), "srv-gone").Return(mcp.Capabilities{}, storage.ErrNotFound)

	summaries, err := svc.ListServers(t.Context(), storage.ServerFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "srv-kept", summaries[0].ID)
}

func TestListServersEmpty(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().ListServers(gomock.Any(), gomock.Any()).Return(nil, nil)

	summaries, err := svc.ListServers(t.Context(), storage.ServerFilter{})
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestVerifyServerSuccess(t *testing.T) {
	t.Parallel()

	svc, store := testService(t, WithDiscoverer(staticDiscoverer(testCaps(), nil)))

	record := registry.ServerRecord{ID: "srv-1", Type: registry.ServerTypeHTTP, Status: registry.ServerStatusError}
	store.EXPECT().GetServer(gomock.Any(), "srv-1").Return(record, nil)
	store.EXPECT().RecordVerification(gomock.Any(), "srv-1", registry.ServerStatusActive, gomock.Any(), testCaps()).
		Return(nil)

	result, err := svc.VerifyServer(t.Context(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", result.ServerID)
	assert.Equal(t, registry.ServerStatusActive, result.Status)
	assert.Equal(t, "Server is reachable and responding", result.Message)
	assert.Equal(t, testCaps(), result.Capabilities)
}

func TestVerifyServerFailure(t *testing.T) {
	t.Parallel()

	cause := httperr.WithCode(errors.New("failed to connect for server srv-1"), http.StatusServiceUnavailable)
	svc, store := testService(t, WithDiscoverer(staticDiscoverer(mcp.Capabilities{}, cause)))

	store.EXPECT().GetServer(gomock.Any(), "srv-1").Return(registry.ServerRecord{ID: "srv-1"}, nil)
	store.EXPECT().UpdateServerStatus(gomock.Any(), "srv-1", registry.ServerStatusError, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, _ registry.ServerStatus, lastVerified *time.Time) error {
			// A failed attempt still counts as a verification attempt.
			require.NotNil(t, lastVerified)
			return nil
		})

	_, err := svc.VerifyServer(t.Context(), "srv-1")
	require.Error(t, err)

	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, verr.Cause, cause)
	assert.Equal(t, http.StatusServiceUnavailable, httperr.Code(err))
	assert.Contains(t, err.Error(), "server verification failed")
}

func TestVerifyServerNotFound(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().GetServer(gomock.Any(), "ghost").Return(registry.ServerRecord{}, storage.ErrNotFound)

	_, err := svc.VerifyServer(t.Context(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteServer(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().DeleteServer(gomock.Any(), "srv-1").Return(nil)

	require.NoError(t, svc.DeleteServer(t.Context(), "srv-1"))
}

func TestDeleteServerNotFound(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().DeleteServer(gomock.Any(), "ghost").Return(storage.ErrNotFound)

	err := svc.DeleteServer(t.Context(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSearchCapabilitiesNormalizesQuery(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)

	var seen registry.SearchQuery
	store.EXPECT().SearchCapabilities(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, query registry.SearchQuery) ([]registry.SearchMatch, error) {
			seen = query
			return nil, nil
		})

	matches, err := svc.SearchCapabilities(t.Context(), registry.SearchQuery{
		Query: "  Echo  ",
		Limit: registry.SearchLimitDefault,
	})
	require.NoError(t, err)

	assert.Equal(t, "echo", seen.Query)
	assert.Equal(t, registry.AllCapabilityKinds, seen.Kinds)
	assert.Equal(t, registry.SearchLimitDefault, seen.Limit)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestSearchCapabilitiesLimitOutOfRange(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t)

	// A zero limit is invalid rather than "use the default": the parameter
	// default belongs to the HTTP layer, not the service.
	for _, limit := range []int{0, -1, 1001} {
		_, err := svc.SearchCapabilities(t.Context(), registry.SearchQuery{Limit: limit})
		require.Error(t, err)
		assert.ErrorIs(t, err, registry.ErrInvalidSearch)
		assert.Equal(t, http.StatusUnprocessableEntity, httperr.Code(err))
	}
}

func TestRegisterAgent(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)

	var created registry.Agent
	store.EXPECT().CreateAgent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, agent registry.Agent) error {
			created = agent
			return nil
		})

	agent, err := svc.RegisterAgent(t.Context(), []byte(validAgentCard))
	require.NoError(t, err)

	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, created.ID, agent.ID)
	assert.Equal(t, "translator", agent.Name)
	assert.Equal(t, "team-i18n", agent.Owner)
	assert.False(t, agent.CreatedAt.IsZero())
	assert.Nil(t, agent.LastHeartbeat)
	// The stored card no longer carries the owner key.
	assert.NotContains(t, string(created.Card), "team-i18n")
}

func TestRegisterAgentKeepsCardID(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().CreateAgent(gomock.Any(), gomock.Any()).Return(nil)

	card := `{
		"id": "agent-42",
		"name": "translator",
		"description": "Translates text",
		"url": "http://agents.local/translator",
		"version": "1.0.0",
		"capabilities": {},
		"skills": []
	}`
	agent, err := svc.RegisterAgent(t.Context(), []byte(card))
	require.NoError(t, err)
	assert.Equal(t, "agent-42", agent.ID)
}

func TestRegisterAgentInvalidCard(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t)

	_, err := svc.RegisterAgent(t.Context(), []byte(`{"name":"incomplete"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrInvalidAgentCard)
	assert.Equal(t, http.StatusUnprocessableEntity, httperr.Code(err))
}

func TestRegisterAgentDuplicate(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().CreateAgent(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, err := svc.RegisterAgent(t.Context(), []byte(validAgentCard))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestUpdateAgentPreservesIdentity(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)

	registered := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	beat := registered.Add(time.Hour)
	existing := registry.Agent{
		ID:            "agent-1",
		Name:          "translator",
		Owner:         "team-i18n",
		CreatedAt:     registered,
		UpdatedAt:     registered,
		LastHeartbeat: &beat,
	}
	store.EXPECT().GetAgent(gomock.Any(), "agent-1").Return(existing, nil)

	var updated registry.Agent
	store.EXPECT().UpdateAgent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, agent registry.Agent) error {
			updated = agent
			return nil
		})

	card := `{
		"name": "translator-v2",
		"description": "Translates more text",
		"url": "http://agents.local/translator",
		"version": "2.0.0",
		"capabilities": {},
		"skills": []
	}`
	agent, err := svc.UpdateAgent(t.Context(), "agent-1", []byte(card))
	require.NoError(t, err)

	assert.Equal(t, "agent-1", agent.ID)
	assert.Equal(t, "translator-v2", agent.Name)
	assert.Equal(t, registered, agent.CreatedAt)
	require.NotNil(t, agent.LastHeartbeat)
	assert.Equal(t, beat, *agent.LastHeartbeat)
	// The replacement card named no owner, so the existing one stays.
	assert.Equal(t, "team-i18n", agent.Owner)
	assert.True(t, agent.UpdatedAt.After(registered))
	assert.Equal(t, agent.ID, updated.ID)
}

func TestUpdateAgentNotFound(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().GetAgent(gomock.Any(), "ghost").Return(registry.Agent{}, storage.ErrNotFound)

	_, err := svc.UpdateAgent(t.Context(), "ghost", []byte(validAgentCard))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateAgentInvalidCard(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().GetAgent(gomock.Any(), "agent-1").Return(registry.Agent{ID: "agent-1"}, nil)

	_, err := svc.UpdateAgent(t.Context(), "agent-1", []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrInvalidAgentCard)
}

func TestHeartbeatAgent(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)

	var touchedAt time.Time
	store.EXPECT().TouchAgent(gomock.Any(), "agent-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, at time.Time) error {
			touchedAt = at
			return nil
		})
	store.EXPECT().GetAgent(gomock.Any(), "agent-1").DoAndReturn(
		func(context.Context, string) (registry.Agent, error) {
			return registry.Agent{ID: "agent-1", LastHeartbeat: &touchedAt}, nil
		})

	agent, err := svc.HeartbeatAgent(t.Context(), "agent-1")
	require.NoError(t, err)
	require.NotNil(t, agent.LastHeartbeat)
	assert.Equal(t, touchedAt, *agent.LastHeartbeat)
}

func TestHeartbeatAgentNotFound(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().TouchAgent(gomock.Any(), "ghost", gomock.Any()).Return(storage.ErrNotFound)

	_, err := svc.HeartbeatAgent(t.Context(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteAgent(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	store.EXPECT().DeleteAgent(gomock.Any(), "agent-1").Return(nil)

	require.NoError(t, svc.DeleteAgent(t.Context(), "agent-1"))
}
