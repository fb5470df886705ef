// ABOUTME: Persona app: gives each agent a stored name and description.
// ABOUTME: create_persona and set_persona are bootstrap tools; get_persona_string feeds the context.

package builtins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/coven-swarm/internal/inference"
	"github.com/2389/coven-swarm/internal/store"
	"github.com/2389/coven-swarm/internal/tools"
)

// PersonaToolsetID is the toolset id of the persona app.
const PersonaToolsetID = "persona"

// PersonaIDKey is the app key holding the agent's persona id.
const PersonaIDKey = "persona_id"

var personaSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"}
  },
  "required": ["name", "description"]
}`)

const personaPrompt = `Invent a persona for a member of a small online team.
Reply with JSON matching the schema: a short first name and a one-sentence description of their personality.`

type personaReply struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Persona is the persona app.
type Persona struct {
	*tools.Toolset

	store  store.PersonaStore
	client inference.Client
	logger *slog.Logger
}

// NewPersona creates the persona app. client is only used when
// create_persona is called without a name and description; it may be nil.
func NewPersona(s store.PersonaStore, client inference.Client, logger *slog.Logger) *Persona {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Persona{
		store:  s,
		client: client,
		logger: logger.With("component", "persona"),
	}

	p.Toolset = tools.NewToolset(tools.Identity{
		ToolsetID:   PersonaToolsetID,
		DisplayName: "Persona",
		Description: "Your identity.",
	},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "create_persona",
				Description: "creates and assigns a persona.",
				Arguments: []tools.Argument{
					{Name: "name", Type: "string", Description: "persona name"},
					{Name: "description", Type: "string", Description: "persona description"},
				},
			},
			Handler: p.CreatePersona,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "set_persona",
				Description: "assigns an existing persona.",
				Arguments: []tools.Argument{
					{Name: "persona_id", Type: "string", Description: "id of a stored persona"},
				},
			},
			Handler: p.SetPersona,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "get_persona_string",
				Description: "describes the persona you are playing.",
			},
			Handler: p.GetPersonaString,
		},
	)
	return p
}

type createPersonaInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (p *Persona) CreatePersona(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in createPersonaInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}

	if in.Name == "" && in.Description == "" && p.client != nil {
		generated, err := p.generate(ctx)
		if err != nil {
			return "", err
		}
		in = createPersonaInput(generated)
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" {
		return "", errors.New("name and description are required")
	}

	persona := &store.Persona{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   time.Now(),
	}
	if err := p.store.SavePersona(ctx, persona); err != nil {
		return "", fmt.Errorf("saving persona: %w", err)
	}

	state.SetAppKey(PersonaIDKey, persona.ID)
	state.SetAppKey(PersonaNameKey, persona.Name)

	p.logger.Info("=== PERSONA CREATED ===",
		"agent_id", state.AgentID(),
		"persona_id", persona.ID,
		"name", persona.Name,
	)
	return fmt.Sprintf("Created persona %s (%s)", persona.Name, persona.ID), nil
}

type setPersonaInput struct {
	PersonaID string `json:"persona_id"`
}

// SetPersona points the agent at a persona that is already stored.
func (p *Persona) SetPersona(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in setPersonaInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if in.PersonaID == "" {
		return "", errors.New("persona_id is required")
	}

	persona, err := p.store.GetPersona(ctx, in.PersonaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("persona not found: %s", in.PersonaID)
		}
		return "", fmt.Errorf("reading persona: %w", err)
	}

	state.SetAppKey(PersonaIDKey, persona.ID)
	state.SetAppKey(PersonaNameKey, persona.Name)

	p.logger.Info("persona assigned", "agent_id", state.AgentID(), "persona_id", persona.ID)
	return fmt.Sprintf("Persona set: %s\nDescription: %s", persona.Name, persona.Description), nil
}

func (p *Persona) GetPersonaString(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	id := state.AppKey(PersonaIDKey)
	if id == "" {
		return "", errors.New("no persona has been created for this agent")
	}

	persona, err := p.store.GetPersona(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("persona %s not found", id)
		}
		return "", fmt.Errorf("reading persona: %w", err)
	}
	return fmt.Sprintf("You are %s. %s", persona.Name, persona.Description), nil
}

func (p *Persona) generate(ctx context.Context) (personaReply, error) {
	reply, err := p.client.Infer(ctx, []inference.Message{
		{Role: inference.RoleSystem, Content: personaPrompt},
		{Role: inference.RoleUser, Content: "Create the persona."},
	}, personaSchema)
	if err != nil {
		return personaReply{}, fmt.Errorf("generating persona: %w", err)
	}

	var parsed personaReply
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return personaReply{}, fmt.Errorf("parsing persona reply: %w", err)
	}
	return parsed, nil
}
