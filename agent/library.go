package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Function is one callable tool: a gate operation or another expert.
type Function interface {
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

// Library is the set of functions an expert can reach during a chat,
// dispatched by declared name.
type Library struct {
	byName map[string]Function
	decls  []*genai.FunctionDeclaration
}

// NewLibrary indexes the given functions. A later function with the same
// declared name shadows an earlier one.
func NewLibrary(functions ...Function) *Library {
	l := &Library{byName: make(map[string]Function, len(functions))}
	for _, f := range functions {
		d := f.Declaration()
		if _, ok := l.byName[d.Name]; !ok {
			l.decls = append(l.decls, d)
		}
		l.byName[d.Name] = f
	}
	return l
}

// Declarations returns the function declarations, in registration order.
// This is what the expert's chat config advertises to the model.
func (l *Library) Declarations() []*genai.FunctionDeclaration {
	return l.decls
}

// Dispatch routes a model function call to the named function. A call to a
// name the library does not hold is answered with an error response, never
// an error: the model gets to read it and recover.
func (l *Library) Dispatch(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
	f, ok := l.byName[call.Name]
	if !ok {
		return &genai.FunctionResponse{
			ID:   call.ID,
			Name: call.Name,
			Response: map[string]any{
				"error": fmt.Sprintf("unknown function %s", call.Name),
			},
		}
	}
	return f.Call(ctx, call.ID, call.Args)
}
