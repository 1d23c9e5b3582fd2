package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/providers"
	"github.com/kickai-team/kickai/internal/tools"
)

// maxIterations bounds the think → act → observe loop. Team-management tasks
// resolve in one or two tool rounds; anything longer is the model wandering.
const maxIterations = 6

// Invocation records one tool call the agent made, for the orchestrator's
// output verification.
type Invocation struct {
	Name     string
	Args     map[string]any
	Envelope *tools.Envelope
}

// RunResult is the outcome of one agent task.
type RunResult struct {
	Reply       string
	Invocations []Invocation
	Usage       providers.Usage
}

// Runner executes agent tasks against one provider.
type Runner struct {
	provider    providers.Provider
	temperature float64
	log         *slog.Logger
}

func NewRunner(provider providers.Provider, temperature float64, log *slog.Logger) *Runner {
	return &Runner{provider: provider, temperature: temperature, log: log}
}

// taskContext is the typed identity block embedded in the user turn. The
// user's text travels separately; identity never gets interpolated into
// prose the model could be talked out of.
type taskContext struct {
	TelegramID     int64    `json:"telegram_id"`
	Username       string   `json:"username,omitempty"`
	TeamID         string   `json:"team_id"`
	ChatKind       string   `json:"chat_kind"`
	Classification string   `json:"classification"`
	PlayerID       string   `json:"player_id,omitempty"`
	MemberID       string   `json:"member_id,omitempty"`
	PermittedTools []string `json:"permitted_tools"`
}

// Run executes one task: the agent thinks, calls zero or more tools, and
// produces a final textual reply. ctx must carry the per-update deadline; on
// expiry the in-flight LLM call and tools are cancelled cooperatively and a
// TimedOut error is returned.
func (r *Runner) Run(ctx context.Context, def Definition, user *auth.UserContext, text string) (*RunResult, error) {
	tc := taskContext{
		TelegramID:     user.TelegramID,
		Username:       user.Username,
		TeamID:         user.TeamID,
		ChatKind:       string(user.ChatKind),
		Classification: string(user.Class),
		PlayerID:       user.PlayerID,
		MemberID:       user.MemberID,
		PermittedTools: def.ToolNames,
	}
	ctxJSON, err := json.Marshal(tc)
	if err != nil {
		return nil, errs.Wrap(errs.SystemCritical, errs.CannedMessage(errs.SystemCritical), err)
	}

	system := fmt.Sprintf("You are %s. %s\nGoal: %s\n%s\nReply in plain text only: no markdown, no HTML.",
		def.Name, def.Role, def.Goal, def.Backstory)
	userTurn := fmt.Sprintf("Context (authoritative, typed):\n%s\n\nUser message:\n%s", ctxJSON, text)

	messages := []providers.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: userTurn},
	}
	toolDefs := tools.ProviderDefs(def.ToolNames)
	permitted := make(map[string]bool, len(def.ToolNames))
	for _, name := range def.ToolNames {
		permitted[name] = true
	}

	result := &RunResult{}
	for iteration := 1; iteration <= maxIterations; iteration++ {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.TimedOut, errs.CannedMessage(errs.TimedOut), ctx.Err())
		}

		resp, err := r.provider.Chat(ctx, providers.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: r.temperature,
		})
		if err != nil {
			return nil, err
		}
		if resp.Usage != nil {
			result.Usage.PromptTokens += resp.Usage.PromptTokens
			result.Usage.CompletionTokens += resp.Usage.CompletionTokens
			result.Usage.TotalTokens += resp.Usage.TotalTokens
		}

		if len(resp.ToolCalls) == 0 {
			result.Reply = strings.TrimSpace(resp.Content)
			return result, nil
		}

		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			env := r.execute(ctx, permitted, user, call)
			result.Invocations = append(result.Invocations, Invocation{
				Name:     call.Name,
				Args:     call.Arguments,
				Envelope: env,
			})
			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    env.JSON(),
				ToolCallID: call.ID,
			})
		}
	}

	// The loop budget ran out with tool calls still coming. Surface the last
	// envelope message rather than invent a reply.
	r.log.Warn("agent exceeded iteration budget",
		slog.String("agent", def.Name),
		slog.Int("invocations", len(result.Invocations)))
	if n := len(result.Invocations); n > 0 {
		result.Reply = result.Invocations[n-1].Envelope.Message
		return result, nil
	}
	return nil, errs.E(errs.DependencyUnavailable, errs.CannedMessage(errs.DependencyUnavailable))
}

func (r *Runner) execute(ctx context.Context, permitted map[string]bool, user *auth.UserContext, call providers.ToolCall) *tools.Envelope {
	if !permitted[call.Name] {
		r.log.Warn("agent called unpermitted tool", slog.String("tool", call.Name))
		return tools.Failf(errs.Denied, "Tool %s is not available to this agent.", call.Name)
	}
	tool, ok := tools.Get(call.Name)
	if !ok {
		return tools.Failf(errs.SystemCritical, "%s", errs.CannedMessage(errs.SystemCritical))
	}
	if ctx.Err() != nil {
		return tools.Failf(errs.TimedOut, "%s", errs.CannedMessage(errs.TimedOut))
	}

	r.log.Debug("tool call",
		slog.String("tool", call.Name),
		slog.String("team_id", user.TeamID))
	return tool.Invoke(ctx, &tools.Call{User: user, Args: call.Arguments})
}
