package agent

import (
	"github.com/etnz/rebalance"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// NewTrader creates the orchestrating expert. It is the only expert holding
// the mutate capability, so trades, commentary and resets only happen through
// it. The team experts are exposed to it as callable functions.
func NewTrader(gate *rebalance.ToolGate, team ...*Expert) *Expert {
	fns := GateFunctions(gate, gate.Operations(), rebalance.MutateCapability)
	for _, e := range team {
		fns = append(fns, e)
	}
	lib := NewLibrary(fns...)
	return &Expert{
		Name: "Trader",
		Description: `This is the desk trader. He is in charge of the user's simulated portfolio,
		he can read its state, execute simulated trades and record analysis commentary.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: lib.Declarations()},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are the desk trader in charge of the user's simulated portfolio.

			You are the only one allowed to execute trades. Before trading, check the
			portfolio state and the list of tradeable assets, and always give a clear
			rationale for every trade you execute.

			Learn about your team's skills from the Tools and ask them questions.
			They are at your service and 100% dedicated to you, they keep context of
			your previous questions. Ask the Analyst for allocation and performance
			figures, ask the Researcher for market news and grounding information.

			Never invent prices or holdings, always read them through the tools.
		`}}},
		},
		Library: lib,
	}
}

// NewAnalyst creates the read-only expert interpreting the session analysis.
func NewAnalyst(gate *rebalance.ToolGate) *Expert {
	lib := NewLibrary(GateFunctions(gate, gate.ReadOperations(), rebalance.ReadCapability)...)
	return &Expert{
		Name: "Analyst",
		Description: `This is the portfolio analyst. He reads the portfolio state, the
		allocation figures and the session analysis. He cannot trade.
		Ask the Analyst whenever you need allocation, deviation or performance figures.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: lib.Declarations()},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a portfolio analyst. You read the portfolio state and the session
				analysis through the available tools and interpret them for the team.

				The analysis figures of the session are frozen, use them exactly as the
				tools return them, never recalculate or estimate them yourself.

				You cannot execute trades. When the team needs a trade, state your
				recommendation and let the trader act on it.
			`}}},
		},
		Library: lib,
	}
}

// NewResearcher creates the expert grounding the team in market news.
func NewResearcher() *Expert {
	return &Expert{
		Name: "Researcher",
		Description: `This is a market researcher,
		very well aware of all the financial products and institutions,
		about the latest news about the different funds or companies.
		Ask the Researcher whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert market researcher, you can search and find about anything
			related to financial institutions, companies, markets, funds etc. You
			leverage Google Search to ground your assertions in a solid truth.
			You can get the latest news too, and you know how to relate them to the
			user's request.
				`}}},
		},
	}
}
