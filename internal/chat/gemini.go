package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel implements Model with Gemini function calling.
type GeminiModel struct {
	client      *genai.Client
	name        string
	temperature float32
}

// NewGeminiModel creates a client for the named model.
func NewGeminiModel(ctx context.Context, apiKey, name string, temperature float64) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, errors.New("chat: gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("chat: gemini client: %w", err)
	}
	return &GeminiModel{client: client, name: name, temperature: float32(temperature)}, nil
}

// Close releases the underlying client.
func (g *GeminiModel) Close() error { return g.client.Close() }

func (g *GeminiModel) Complete(ctx context.Context, turn Turn) (*Reply, error) {
	m := g.client.GenerativeModel(g.name)
	m.SetTemperature(g.temperature)
	if turn.System != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(turn.System))
	}
	if len(turn.Tools) > 0 {
		m.Tools = []*genai.Tool{{FunctionDeclarations: declarations(turn.Tools)}}
	}

	cs := m.StartChat()
	cs.History = contents(turn.History)

	var (
		resp *genai.GenerateContentResponse
		err  error
	)
	if turn.Call == nil {
		resp, err = cs.SendMessage(ctx, genai.Text(turn.Prompt))
	} else {
		cs.History = append(cs.History,
			&genai.Content{Role: RoleUser, Parts: []genai.Part{genai.Text(turn.Prompt)}},
			&genai.Content{Role: RoleModel, Parts: []genai.Part{genai.FunctionCall{Name: turn.Call.Name, Args: turn.Call.Args}}},
		)
		resp, err = cs.SendMessage(ctx, genai.FunctionResponse{Name: turn.Call.Name, Response: turn.Result})
	}
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	return parseResponse(resp)
}

func declarations(specs []ToolSpec) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		schema := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
		for _, p := range s.Params {
			typ := genai.TypeString
			if p.Type == TypeInteger {
				typ = genai.TypeInteger
			}
			schema.Properties[p.Name] = &genai.Schema{Type: typ, Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		out = append(out, &genai.FunctionDeclaration{Name: s.Name, Description: s.Description, Parameters: schema})
	}
	return out
}

func contents(history []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := RoleUser
		if m.Role == RoleModel {
			role = RoleModel
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return out
}

func parseResponse(resp *genai.GenerateContentResponse) (*Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no candidates")
	}
	var (
		sb    strings.Builder
		reply Reply
	)
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			if reply.Call == nil {
				reply.Call = &ToolCall{Name: p.Name, Args: p.Args}
			}
		case *genai.FunctionCall:
			if reply.Call == nil && p != nil {
				reply.Call = &ToolCall{Name: p.Name, Args: p.Args}
			}
		}
	}
	reply.Text = strings.TrimSpace(sb.String())
	return &reply, nil
}
