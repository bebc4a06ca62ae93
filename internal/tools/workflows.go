package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mwiater/toolhost/internal/dispatch"
	"github.com/mwiater/toolhost/internal/n8n"
)

// MissingExecutionID is reported when n8n accepts a trigger without
// returning an execution id.
const MissingExecutionID = "identifier unavailable"

var workflowIDSchema = dispatch.Object(map[string]dispatch.Property{
	"workflowId": {Type: "string", Description: "ID of the n8n workflow"},
}, "workflowId")

type workflowSummary struct {
	ID        n8n.ID            `json:"id"`
	Name      string            `json:"name"`
	Active    bool              `json:"active"`
	Tags      []json.RawMessage `json:"tags"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

func summarize(w n8n.Workflow) workflowSummary {
	return workflowSummary{
		ID:        w.ID,
		Name:      w.Name,
		Active:    w.Active,
		Tags:      w.TagList(),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func listWorkflowsTool(api WorkflowAPI) dispatch.Tool {
	return dispatch.Tool{
		Descriptor: dispatch.Descriptor{
			Name:        ListWorkflowsName,
			Description: "List every n8n workflow with its status, tags and dates.",
			InputSchema: dispatch.Object(nil),
		},
		Handler: func(ctx context.Context, _ dispatch.Arguments) ([]dispatch.Content, error) {
			workflows, err := api.ListWorkflows(ctx)
			if err != nil {
				return nil, err
			}
			out := struct {
				Status    string            `json:"status"`
				Server    string            `json:"server"`
				Total     int               `json:"total"`
				Workflows []workflowSummary `json:"workflows"`
			}{
				Status:    "success",
				Server:    "n8n API",
				Total:     len(workflows),
				Workflows: make([]workflowSummary, 0, len(workflows)),
			}
			for _, w := range workflows {
				out.Workflows = append(out.Workflows, summarize(w))
			}
			return jsonText(out)
		},
	}
}

type executionSummary struct {
	ID         n8n.ID  `json:"id"`
	Status     string  `json:"status"`
	Mode       string  `json:"mode"`
	StartedAt  *string `json:"startedAt"`
	StoppedAt  *string `json:"stoppedAt"`
	DurationMS *int64  `json:"durationMs"`
}

func workflowStatusTool(api WorkflowAPI) dispatch.Tool {
	return dispatch.Tool{
		Descriptor: dispatch.Descriptor{
			Name:        WorkflowStatusName,
			Description: "Show details of an n8n workflow and statistics over its most recent executions.",
			InputSchema: workflowIDSchema,
		},
		Handler: func(ctx context.Context, args dispatch.Arguments) ([]dispatch.Content, error) {
			id, err := requiredString(args, "workflowId")
			if err != nil {
				return nil, err
			}
			wf, err := api.GetWorkflow(ctx, id)
			if err != nil {
				return nil, err
			}
			execs, err := api.ListExecutions(ctx, id, n8n.RecentExecutions)
			if err != nil {
				return nil, err
			}

			recent := make([]executionSummary, 0, len(execs))
			for _, e := range execs {
				recent = append(recent, executionSummary{
					ID:         e.ID,
					Status:     e.Status,
					Mode:       e.Mode,
					StartedAt:  e.StartedAt,
					StoppedAt:  e.StoppedAt,
					DurationMS: e.DurationMS(),
				})
			}

			out := struct {
				Status   string `json:"status"`
				Workflow struct {
					workflowSummary
					NodeCount int `json:"nodeCount"`
				} `json:"workflow"`
				Statistics       n8n.Stats          `json:"statistics"`
				RecentExecutions []executionSummary `json:"recentExecutions"`
			}{
				Status:           "success",
				Statistics:       n8n.Summarize(execs),
				RecentExecutions: recent,
			}
			out.Workflow.workflowSummary = summarize(*wf)
			out.Workflow.NodeCount = len(wf.Nodes)
			return jsonText(out)
		},
	}
}

func executeWorkflowTool(api WorkflowAPI, now func() time.Time) dispatch.Tool {
	return dispatch.Tool{
		Descriptor: dispatch.Descriptor{
			Name:        ExecuteWorkflowName,
			Description: "Start an execution of an n8n workflow. Returns once n8n accepts the request.",
			InputSchema: workflowIDSchema,
		},
		Handler: func(ctx context.Context, args dispatch.Arguments) ([]dispatch.Content, error) {
			id, err := requiredString(args, "workflowId")
			if err != nil {
				return nil, err
			}
			accepted, err := api.ExecuteWorkflow(ctx, id)
			if err != nil {
				return nil, err
			}
			executionID := string(accepted.ExecutionID)
			if executionID == "" {
				executionID = MissingExecutionID
			}
			return jsonText(struct {
				Status      string `json:"status"`
				WorkflowID  string `json:"workflowId"`
				ExecutionID string `json:"executionId"`
				Message     string `json:"message"`
				StartedAt   string `json:"startedAt"`
				Details     string `json:"details"`
			}{
				Status:      "started",
				WorkflowID:  id,
				ExecutionID: executionID,
				Message:     fmt.Sprintf("workflow %s started", id),
				StartedAt:   now().Format(time.RFC3339),
				Details:     "the execution runs asynchronously; use " + WorkflowStatusName + " to follow it",
			})
		},
	}
}
