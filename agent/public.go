package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/seaward/cgt"
	"github.com/seaward/cgt/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here primarily to understand the capital gains tax position of his trades:
			which rule identified a disposal, what a tax year's totals are, and what is left in
			his holding pools.

			Devise a plan of questions to ask each expert and come up with the best response
			to the user's request. Never invent a figure: every number must come from the
			Accountant's computations.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewAnalyst creates the market analyst expert, grounded on search.
func NewAnalyst() *Expert {
	return &Expert{
		Name: "Analyst",
		Description: `This is a market analyst,
		very well aware of financial products, corporate actions and market events,
		and of the latest news about companies and funds.
		Ask the Analyst whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert market analyst. You can search and find anything related to
			financial institutions, companies, markets and funds. You leverage Google Search
			to ground your assertions.
			You can get the latest news too, and you know how to relate corporate actions
			(splits, takeovers, spinoffs) to the user's holdings.
				`}}},
		},
	}
}

// NewAccountant creates the accountant expert, wired to the ledger.
func NewAccountant() *Expert {

	lib := []Function{TaxReport, Pools, Log}

	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. He is in charge of reading the user's tax ledger.
		He can compute the capital gains figures of any tax year, show the holding pools,
		and list the recorded events.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's capital gains ledger.
				You know how to use the Tools to extract relevant information about the
				user's disposals, gains and holding pools.
				You are part of a team of experts, yours is everything about the user's ledger.
				They might ask you questions in approximative language, figure out what they meant.

				Use the available tools to get information about the user's ledger
				  - the capital gains report of a tax year
				  - the holding pools and their history
				  - the raw list of recorded events
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

// TaxReport computes one tax year's capital gains figures.
var TaxReport = &Func{
	Decl: &genai.FunctionDeclaration{
		Name: "TaxReport",
		Description: `TaxReport computes the capital gains report of one UK tax year:
		every disposal with the rule that identified it, the year's totals,
		repayment claims and the pools open at year end.`,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"year": {
					Type: genai.TypeString,
					Description: `The tax year, named by its starting calendar year:
					"2024" is the year from 6 April 2024 to 5 April 2025.
					Defaults to the current tax year.`,
				},
			},
		},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "A markdown-formatted capital gains report for the tax year.",
		},
	},
	Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
		year := cgt.TaxYearOf(cgt.Today())
		if s, ok := args["year"].(string); ok && s != "" {
			var err error
			year, err = cgt.ParseTaxYear(s)
			if err != nil {
				return errResponse(id, "TaxReport", err)
			}
		}
		res, err := calculate()
		if err != nil {
			return errResponse(id, "TaxReport", err)
		}
		return okResponse(id, "TaxReport", renderer.ReportMarkdown(res.Report(year)))
	},
}

// Pools renders every holding pool with its history.
var Pools = &Func{
	Decl: &genai.FunctionDeclaration{
		Name: "Pools",
		Description: `Pools lists the holding pool of every asset: quantity held, pooled cost,
		average cost, and every change that built the pool.`,
		Parameters: &genai.Schema{Type: genai.TypeObject},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "A markdown-formatted list of all holding pools.",
		},
	},
	Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
		res, err := calculate()
		if err != nil {
			return errResponse(id, "Pools", err)
		}
		return okResponse(id, "Pools", renderer.PoolsMarkdown(res))
	},
}

// Log lists the ledger's raw events.
var Log = &Func{
	Decl: &genai.FunctionDeclaration{
		Name:        "Log",
		Description: `Log lists every recorded event of the ledger in chronological order.`,
		Parameters:  &genai.Schema{Type: genai.TypeObject},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "A markdown-formatted table of all ledger events.",
		},
	},
	Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
		ledger, err := decodeLedger()
		if err != nil {
			return errResponse(id, "Log", err)
		}
		return okResponse(id, "Log", renderer.LedgerMarkdown(ledger))
	},
}

func okResponse(id, name, output string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"output": output},
	}
}

func errResponse(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"error": err.Error()},
	}
}

// calculate loads the default ledger and runs the matching rules.
func calculate() (*cgt.Result, error) {
	ledger, err := decodeLedger()
	if err != nil {
		return nil, err
	}
	return cgt.NewSession().Calculate(ledger, nil)
}

// decodeLedger decodes the ledger from the application's default ledger file.
// If the file does not exist, it returns a new empty ledger.
func decodeLedger() (*cgt.Ledger, error) {
	ledgerFile := "ledger.jsonl"
	f, err := os.Open(ledgerFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// If the file doesn't exist, it's an empty ledger.
			return cgt.NewLedger(), nil
		}
		return nil, fmt.Errorf("could not open ledger file %q: %w", ledgerFile, err)
	}
	defer f.Close()

	ledger, err := cgt.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger file %q: %w", ledgerFile, err)
	}
	return ledger, nil
}
