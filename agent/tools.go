package agent

import (
	"context"
	"encoding/json"

	"github.com/etnz/rebalance"
	"google.golang.org/genai"
)

// gateFunc exposes one tool gate operation as a callable Function. The
// capability it carries is the capability of the expert owning the library,
// so the gate rejects mutating calls coming from read-only experts.
type gateFunc struct {
	gate *rebalance.ToolGate
	op   rebalance.Operation
	cap  rebalance.Capability
}

// GateFunctions wraps the given operations for an expert holding cap.
func GateFunctions(gate *rebalance.ToolGate, ops []rebalance.Operation, cap rebalance.Capability) []Function {
	out := make([]Function, 0, len(ops))
	for _, op := range ops {
		out = append(out, &gateFunc{gate: gate, op: op, cap: cap})
	}
	return out
}

func (f *gateFunc) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        f.op.Name,
		Description: f.op.Description,
		Parameters:  paramSchemas[f.op.Name],
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "JSON-encoded result.",
		},
	}
}

func (f *gateFunc) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	fresp := &genai.FunctionResponse{ID: id, Name: f.op.Name}

	result, err := f.gate.Invoke(ctx, f.op.Name, args, f.cap)
	if err != nil {
		fresp.Response = map[string]any{"error": err.Error()}
		return fresp
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fresp.Response = map[string]any{"error": err.Error()}
		return fresp
	}
	fresp.Response = map[string]any{"output": string(out)}
	return fresp
}

// paramSchemas declares the arguments of the operations that take any.
// Operations absent from this map take no argument.
var paramSchemas = map[string]*genai.Schema{
	rebalance.OpGetAssetPrice: {
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"assetId": {
				Type:        genai.TypeString,
				Description: "The identifier of the asset in the portfolio.",
			},
		},
		Required: []string{"assetId"},
	},
	rebalance.OpSimulateTrade: {
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action": {
				Type:        genai.TypeString,
				Enum:        []string{"buy", "sell"},
				Description: "Whether to buy or sell the asset.",
			},
			"assetId": {
				Type:        genai.TypeString,
				Description: "The identifier of the asset to trade. Only tradeable assets are accepted.",
			},
			"quantity": {
				Type:        genai.TypeNumber,
				Description: "The number of units to trade. Must be strictly positive.",
			},
			"rationale": {
				Type:        genai.TypeString,
				Description: "The reasoning behind this trade, recorded in the ledger.",
			},
		},
		Required: []string{"action", "assetId", "quantity", "rationale"},
	},
	rebalance.OpSaveCommentary: {
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"kind": {
				Type:        genai.TypeString,
				Enum:        []string{"portfolio_analysis", "target_allocation"},
				Description: "Which commentary slot to fill.",
			},
			"text": {
				Type:        genai.TypeString,
				Description: "The commentary text, markdown accepted.",
			},
		},
		Required: []string{"kind", "text"},
	},
}
