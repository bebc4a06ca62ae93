// Package tools holds the handlers exposed by the host and the profiles
// that decide which of them a process registers.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mwiater/toolhost/internal/coingecko"
	"github.com/mwiater/toolhost/internal/dispatch"
	"github.com/mwiater/toolhost/internal/n8n"
)

const (
	// CryptoPriceName is the canonical name for the price lookup tool.
	CryptoPriceName = "crypto_price"
	// ListWorkflowsName is the canonical name for the workflow listing tool.
	ListWorkflowsName = "lister_workflows"
	// WorkflowStatusName is the canonical name for the workflow status tool.
	WorkflowStatusName = "statut_workflow"
	// ExecuteWorkflowName is the canonical name for the workflow trigger tool.
	ExecuteWorkflowName = "executer_workflow"
	// GreetName is the canonical name for the greeting demo tool.
	GreetName = "dire_bonjour"
	// ServerInfoName is the canonical name for the host status tool.
	ServerInfoName = "info_serveur"
	// AvailableToolsName is the canonical name for the available-tools helper.
	AvailableToolsName = "available_tools"
)

// WorkflowAPI is the subset of the n8n client used by the workflow tools.
type WorkflowAPI interface {
	ListWorkflows(ctx context.Context) ([]n8n.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*n8n.Workflow, error)
	ListExecutions(ctx context.Context, workflowID string, limit int) ([]n8n.Execution, error)
	ExecuteWorkflow(ctx context.Context, id string) (n8n.Accepted, error)
}

// PriceAPI is the subset of the CoinGecko client used by crypto_price.
type PriceAPI interface {
	Search(ctx context.Context, query string) ([]coingecko.Coin, error)
	SimplePrice(ctx context.Context, ids ...string) (map[string]coingecko.Quote, error)
}

// Deps are the collaborators handed to the handlers. Workflows and Prices
// may be nil when the selected profile does not need them.
type Deps struct {
	Workflows WorkflowAPI
	Prices    PriceAPI
	Now       func() time.Time
	Version   string
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// DefaultProfile registers every tool.
const DefaultProfile = "all"

var profiles = map[string][]string{
	"all": {
		CryptoPriceName, ListWorkflowsName, WorkflowStatusName, ExecuteWorkflowName,
		GreetName, ServerInfoName, AvailableToolsName,
	},
	"crypto":    {CryptoPriceName},
	"workflows": {ListWorkflowsName, WorkflowStatusName, ExecuteWorkflowName},
	"lister":    {ListWorkflowsName},
	"statut":    {WorkflowStatusName},
	"executer":  {ExecuteWorkflowName},
	"demo":      {GreetName, ServerInfoName, AvailableToolsName},
}

// Profiles returns the known profile names, sorted.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProfileTools returns the tool names a profile registers, in registration order.
func ProfileTools(profile string) ([]string, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	names, ok := profiles[profile]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (known: %v)", profile, Profiles())
	}
	return append([]string(nil), names...), nil
}

// Register adds the tools of profile to reg.
func Register(reg *dispatch.Registry, profile string, deps Deps) error {
	names, err := ProfileTools(profile)
	if err != nil {
		return err
	}
	started := deps.now()
	for _, name := range names {
		var tool dispatch.Tool
		switch name {
		case CryptoPriceName:
			if deps.Prices == nil {
				return fmt.Errorf("%s: no price client configured", name)
			}
			tool = cryptoPriceTool(deps.Prices)
		case ListWorkflowsName:
			if deps.Workflows == nil {
				return fmt.Errorf("%s: no n8n client configured", name)
			}
			tool = listWorkflowsTool(deps.Workflows)
		case WorkflowStatusName:
			if deps.Workflows == nil {
				return fmt.Errorf("%s: no n8n client configured", name)
			}
			tool = workflowStatusTool(deps.Workflows)
		case ExecuteWorkflowName:
			if deps.Workflows == nil {
				return fmt.Errorf("%s: no n8n client configured", name)
			}
			tool = executeWorkflowTool(deps.Workflows, deps.now)
		case GreetName:
			tool = greetTool()
		case ServerInfoName:
			tool = serverInfoTool(reg, profileOrDefault(profile), deps.Version, started, deps.now)
		case AvailableToolsName:
			tool = availableToolsTool(reg)
		}
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func profileOrDefault(profile string) string {
	if profile == "" {
		return DefaultProfile
	}
	return profile
}

// requiredString reads a required string argument. The schema guarantees
// presence and type; this rejects values that are blank after trimming.
func requiredString(args dispatch.Arguments, key string) (string, error) {
	v, ok := args.String(key)
	if !ok || v == "" {
		return "", &dispatch.Error{Kind: dispatch.KindInvalidArguments, Message: key + ": must not be empty"}
	}
	return v, nil
}

func jsonText(v any) ([]dispatch.Content, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return []dispatch.Content{dispatch.Text(string(data))}, nil
}
