package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/logging"
	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/prompt"
)

const (
	FallbackAnswer = "I'm not sure how to respond."
	ApologyAnswer  = "Sorry, I couldn't process that. Please try again."
)

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrMissingOwner  = errors.New("owner is required")
	ErrInvalidTurn   = errors.New("invalid history turn")
)

// AckMode decides how a tool-call turn is answered.
type AckMode string

const (
	// AckRaw answers with the tool's status message as is.
	AckRaw AckMode = "raw"
	// AckModel asks the model to phrase an acknowledgement of the status,
	// falling back to the raw status when that call fails.
	AckModel AckMode = "model"
)

func ParseAckMode(s string) (AckMode, error) {
	switch AckMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", AckRaw:
		return AckRaw, nil
	case AckModel:
		return AckModel, nil
	}
	return "", fmt.Errorf("unknown ack mode %q", s)
}

type State int

const (
	StateIdle State = iota
	StateDispatched
	StateToolPending
	StateToolExecuted
	StateAnswered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatched:
		return "dispatched"
	case StateToolPending:
		return "tool_pending"
	case StateToolExecuted:
		return "tool_executed"
	case StateAnswered:
		return "answered"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type AskInput struct {
	Question string        `json:"question"`
	History  []models.Turn `json:"history"`
	Tasks    []models.Task `json:"tasks"`
}

type AskOutput struct {
	Answer string        `json:"answer"`
	Tasks  []models.Task `json:"tasks"`
}

type ChatbotService struct {
	llm     client.LanguageModel
	tools   *ToolRegistry
	prompts *prompt.Catalogue
	ackMode AckMode
	logger  *log.Logger
}

func NewChatbotService(
	llm client.LanguageModel,
	tools *ToolRegistry,
	prompts *prompt.Catalogue,
	ackMode AckMode,
	logger *log.Logger,
) *ChatbotService {
	if prompts == nil {
		prompts = prompt.Default()
	}
	if ackMode == "" {
		ackMode = AckRaw
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ChatbotService{
		llm:     llm,
		tools:   tools,
		prompts: prompts,
		ackMode: ackMode,
		logger:  logger,
	}
}

// turn is the state of one Ask invocation.
type turn struct {
	ownerID  string
	question string
	history  []models.Turn
	snapshot *Snapshot

	states []State
	tool   string
	answer string
	err    error
}

func (t *turn) enter(s State) {
	t.states = append(t.states, s)
}

func (t *turn) answered(text string) {
	t.answer = text
	t.enter(StateAnswered)
}

// fail ends the turn with the apology. The snapshot is left as it was when
// the failure happened; every failure path runs before any tool mutation.
func (t *turn) fail(err error) {
	t.err = err
	t.answered(ApologyAnswer)
}

// Ask resolves one conversational turn. Model, tool and store failures are
// folded into the answer; the returned error only reports invalid input.
// Turns of one conversation must be submitted one at a time.
func (s *ChatbotService) Ask(ctx context.Context, ownerID string, in AskInput) (AskOutput, error) {
	t, err := s.newTurn(ownerID, in)
	if err != nil {
		return AskOutput{}, err
	}

	s.resolve(ctx, t)
	t.enter(StateIdle)
	s.logTurn(t)

	return AskOutput{Answer: t.answer, Tasks: t.snapshot.Tasks()}, nil
}

func (s *ChatbotService) newTurn(ownerID string, in AskInput) (*turn, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	for i, h := range in.History {
		if h.Role != models.RoleUser && h.Role != models.RoleAssistant {
			return nil, fmt.Errorf("%w: turn %d has role %q", ErrInvalidTurn, i, h.Role)
		}
	}

	return &turn{
		ownerID:  ownerID,
		question: question,
		history:  slices.Clone(in.History),
		snapshot: NewSnapshot(ownerID, in.Tasks),
		states:   []State{StateIdle},
	}, nil
}

func (s *ChatbotService) resolve(ctx context.Context, t *turn) {
	system, err := s.systemPrompt(t.snapshot)
	if err != nil {
		t.fail(err)
		return
	}

	t.enter(StateDispatched)
	res, err := s.llm.Generate(ctx, client.GenerateRequest{
		System:  system,
		History: t.history,
		Prompt:  t.question,
		Tools:   s.tools.Specs(),
	})
	if err != nil {
		t.fail(err)
		return
	}

	switch r := res.(type) {
	case client.Answer:
		text := strings.TrimSpace(r.Text)
		if text == "" {
			text = FallbackAnswer
		}
		t.answered(text)

	case client.ToolCall:
		t.enter(StateToolPending)
		t.tool = r.Name
		status, err := s.tools.Execute(ctx, t.snapshot, r)
		if err != nil {
			t.fail(err)
			return
		}
		t.enter(StateToolExecuted)
		t.answered(s.acknowledge(ctx, t, status))

	default:
		t.fail(fmt.Errorf("%w: unexpected resolution %T", client.ErrGatewayUnavailable, res))
	}
}

func (s *ChatbotService) acknowledge(ctx context.Context, t *turn, status string) string {
	if s.ackMode != AckModel {
		return status
	}

	system, err := prompt.Render(s.prompts.Chatbot.Acknowledge, struct{ Status string }{status})
	if err != nil {
		logging.Warn(s.logger, "acknowledge_prompt_failed", map[string]any{"error": err})
		return status
	}
	res, err := s.llm.Generate(ctx, client.GenerateRequest{
		System:  system,
		History: t.history,
		Prompt:  t.question,
	})
	if err != nil {
		logging.Warn(s.logger, "acknowledge_failed", map[string]any{"owner": t.ownerID, "error": err})
		return status
	}
	if a, ok := res.(client.Answer); ok && strings.TrimSpace(a.Text) != "" {
		return strings.TrimSpace(a.Text)
	}
	return status
}

// taskView is the part of a task the model sees.
type taskView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	DueDate     string          `json:"dueDate,omitempty"`
	Priority    models.Priority `json:"priority"`
	Status      models.Status   `json:"status"`
}

func (s *ChatbotService) systemPrompt(snap *Snapshot) (string, error) {
	tasks := snap.Tasks()
	views := make([]taskView, len(tasks))
	for i, t := range tasks {
		views[i] = taskView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate,
			Priority:    t.Priority,
			Status:      t.Status,
		}
	}
	b, err := json.Marshal(views)
	if err != nil {
		return "", fmt.Errorf("encode task snapshot: %w", err)
	}
	return prompt.Render(s.prompts.Chatbot.System, struct{ Tasks string }{string(b)})
}

func (s *ChatbotService) logTurn(t *turn) {
	states := make([]string, len(t.states))
	for i, st := range t.states {
		states[i] = st.String()
	}
	fields := map[string]any{
		"owner":  t.ownerID,
		"states": strings.Join(states, ">"),
		"tasks":  t.snapshot.Len(),
	}
	if t.tool != "" {
		fields["tool"] = t.tool
	}
	if t.err != nil {
		fields["error"] = t.err
		logging.Warn(s.logger, "chat_turn_failed", fields)
		return
	}
	logging.Info(s.logger, "chat_turn", fields)
}
