// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed agent_card_schema.json
var agentCardSchema []byte

// AliveWindow is how recently an agent must have sent a heartbeat to be
// considered alive by list filters.
const AliveWindow = 5 * time.Minute

// AgentCapabilities are the optional A2A protocol features an agent declares
// in its card.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentSkill is a single skill entry from an agent card. Only the fields
// needed for filtering are parsed; the stored card keeps everything the
// agent declared.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Agent is a registered A2A agent. The indexed fields are extracted from the
// card at registration time; Card holds the submitted document with the owner
// key stripped, so it can be served back verbatim.
type Agent struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	URL           string          `json:"url,omitempty"`
	Version       string          `json:"version,omitempty"`
	Capabilities  json.RawMessage `json:"capabilities,omitempty"`
	Skills        json.RawMessage `json:"skills,omitempty"`
	Owner         string          `json:"owner,omitempty"`
	Card          json.RawMessage `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	LastHeartbeat *time.Time      `json:"last_heartbeat,omitempty"`
}

// ValidateAgentCard checks a submitted agent card against the embedded A2A
// card schema. Failures are reported through ErrInvalidAgentCard with the
// validator's messages attached.
func ValidateAgentCard(card []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(agentCardSchema)
	documentLoader := gojsonschema.NewBytesLoader(card)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAgentCard, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidAgentCard, strings.Join(details, "; "))
	}
	return nil
}

// AgentFromCard extracts the indexed fields from a validated agent card.
// An owner key in the document is recorded on the agent and removed from the
// stored card. The caller assigns the identifier and timestamps.
func AgentFromCard(card json.RawMessage) (*Agent, error) {
	var fields struct {
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		URL          string          `json:"url"`
		Version      string          `json:"version"`
		Owner        string          `json:"owner"`
		Capabilities json.RawMessage `json:"capabilities"`
		Skills       json.RawMessage `json:"skills"`
	}
	if err := json.Unmarshal(card, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAgentCard, err)
	}

	stored := card
	if fields.Owner != "" {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(card, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAgentCard, err)
		}
		delete(doc, "owner")
		reencoded, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encoding agent card: %w", err)
		}
		stored = reencoded
	}

	return &Agent{
		Name:         fields.Name,
		Description:  fields.Description,
		URL:          fields.URL,
		Version:      fields.Version,
		Owner:        fields.Owner,
		Capabilities: fields.Capabilities,
		Skills:       fields.Skills,
		Card:         stored,
	}, nil
}

// CapabilityFlags parses the capability booleans declared in the card.
// A missing or malformed capabilities object reads as all false.
func (a *Agent) CapabilityFlags() AgentCapabilities {
	var caps AgentCapabilities
	if len(a.Capabilities) > 0 {
		_ = json.Unmarshal(a.Capabilities, &caps)
	}
	return caps
}

// ParsedSkills returns the typed view of the card's skill entries.
func (a *Agent) ParsedSkills() []AgentSkill {
	var skills []AgentSkill
	if len(a.Skills) > 0 {
		_ = json.Unmarshal(a.Skills, &skills)
	}
	return skills
}

// HasSkill reports whether the card declares a skill with the given id.
func (a *Agent) HasSkill(id string) bool {
	for _, skill := range a.ParsedSkills() {
		if skill.ID == id {
			return true
		}
	}
	return false
}

// Alive reports whether the agent sent a heartbeat within AliveWindow of now.
func (a *Agent) Alive(now time.Time) bool {
	return a.LastHeartbeat != nil && now.Sub(*a.LastHeartbeat) <= AliveWindow
}
