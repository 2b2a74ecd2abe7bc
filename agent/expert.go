package agent

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"
)

// Expert is one chat-backed collaborator of the trading desk: the trader,
// the analyst or the researcher. An expert with a library resolves the
// model's function calls before answering. An expert is itself a Function,
// so one expert can sit in another expert's library as a callable tool.
type Expert struct {
	Name        string
	Description string
	ModelName   string
	Config      *genai.GenerateContentConfig
	Library     *Library

	chat *genai.Chat
}

// Start opens the underlying chat. It must be called once before Ask.
func (e *Expert) Start(ctx context.Context, client *genai.Client) error {
	chat, err := client.Chats.Create(ctx, e.ModelName, e.Config, nil)
	if err != nil {
		return fmt.Errorf("could not start expert %s: %w", e.Name, err)
	}
	e.chat = chat
	return nil
}

// Ask sends the parts to the expert's chat and serves the function calls
// the model makes, looping until the model produces a plain answer.
func (e *Expert) Ask(ctx context.Context, parts ...*genai.Part) (*genai.Content, error) {
	for {
		resp, err := e.chat.Send(ctx, parts...)
		if err != nil {
			return nil, err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("no response from expert %s", e.Name)
		}
		content := resp.Candidates[0].Content

		call := content.Parts[0].FunctionCall
		if call == nil {
			return content, nil
		}
		if e.Library == nil {
			return nil, fmt.Errorf("expert %s has no library to serve function call %s", e.Name, call.Name)
		}
		// Serve the call and hand the result back to the model.
		parts = []*genai.Part{{FunctionResponse: e.Library.Dispatch(ctx, call)}}
	}
}

// Declaration exposes the expert as a single-question callable function.
func (e *Expert) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        e.Name,
		Description: e.Description,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {
					Type:        genai.TypeString,
					Description: "The question to ask " + e.Name + ".",
				},
			},
			Required: []string{"question"},
		},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "The expert's answer.",
		},
	}
}

// Call answers a question coming from another expert's function call.
func (e *Expert) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	fresp := &genai.FunctionResponse{ID: id, Name: e.Name}

	question, ok := args["question"].(string)
	if !ok {
		fresp.Response = map[string]any{
			"error": fmt.Sprintf("question must be a string, got %T", args["question"]),
		}
		return fresp
	}

	answer, err := e.Ask(ctx, &genai.Part{Text: question})
	if err != nil {
		fresp.Response = map[string]any{
			"error": fmt.Sprintf("expert %s failed: %v", e.Name, err),
		}
		return fresp
	}

	log.Printf("expert %s answered: %q", e.Name, question)
	fresp.Response = map[string]any{"output": answer.Parts[0].Text}
	return fresp
}
