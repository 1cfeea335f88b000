package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/prompt"
	"github.com/tidwall/gjson"
)

var (
	ErrEmptyInput          = errors.New("input is required")
	ErrMalformedGeneration = errors.New("model returned an unusable task")
)

type ConceptTask struct {
	TaskTitle       string `json:"taskTitle"`
	TaskDescription string `json:"taskDescription"`
	Explanation     string `json:"explanation"`
}

type EmailTask struct {
	TaskTitle       string `json:"taskTitle"`
	TaskDescription string `json:"taskDescription"`
}

// AssistService runs the one-shot generation flows: a concept or an email
// body in, a suggested task out. Nothing is written to the store; the
// caller decides whether to save the suggestion.
type AssistService struct {
	llm     client.LanguageModel
	prompts *prompt.Catalogue
}

func NewAssistService(llm client.LanguageModel, prompts *prompt.Catalogue) *AssistService {
	if prompts == nil {
		prompts = prompt.Default()
	}
	return &AssistService{llm: llm, prompts: prompts}
}

func (s *AssistService) ConceptToTask(ctx context.Context, concept string) (ConceptTask, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return ConceptTask{}, fmt.Errorf("concept: %w", ErrEmptyInput)
	}

	doc, err := s.generate(ctx, s.prompts.ConceptToTask, struct{ Concept string }{concept})
	if err != nil {
		return ConceptTask{}, fmt.Errorf("concept to task: %w", err)
	}

	out := ConceptTask{
		TaskTitle:       strings.TrimSpace(doc.Get("taskTitle").String()),
		TaskDescription: strings.TrimSpace(doc.Get("taskDescription").String()),
		Explanation:     strings.TrimSpace(doc.Get("explanation").String()),
	}
	if out.TaskTitle == "" || out.Explanation == "" {
		return ConceptTask{}, fmt.Errorf("concept to task: %w", ErrMalformedGeneration)
	}
	return out, nil
}

func (s *AssistService) EmailToTask(ctx context.Context, emailBody string) (EmailTask, error) {
	emailBody = strings.TrimSpace(emailBody)
	if emailBody == "" {
		return EmailTask{}, fmt.Errorf("email body: %w", ErrEmptyInput)
	}

	doc, err := s.generate(ctx, s.prompts.EmailToTask, struct{ EmailBody string }{emailBody})
	if err != nil {
		return EmailTask{}, fmt.Errorf("email to task: %w", err)
	}

	out := EmailTask{
		TaskTitle:       strings.TrimSpace(doc.Get("taskTitle").String()),
		TaskDescription: strings.TrimSpace(doc.Get("taskDescription").String()),
	}
	if out.TaskTitle == "" {
		return EmailTask{}, fmt.Errorf("email to task: %w", ErrMalformedGeneration)
	}
	return out, nil
}

func (s *AssistService) generate(ctx context.Context, p prompt.Pair, data any) (gjson.Result, error) {
	user, err := prompt.Render(p.User, data)
	if err != nil {
		return gjson.Result{}, err
	}

	res, err := s.llm.Generate(ctx, client.GenerateRequest{System: p.System, Prompt: user})
	if err != nil {
		return gjson.Result{}, err
	}
	answer, ok := res.(client.Answer)
	if !ok {
		return gjson.Result{}, fmt.Errorf("%w: expected text, got %T", ErrMalformedGeneration, res)
	}

	body := extractJSON(answer.Text)
	if !gjson.Valid(body) {
		return gjson.Result{}, fmt.Errorf("%w: response is not JSON", ErrMalformedGeneration)
	}
	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: response is not a JSON object", ErrMalformedGeneration)
	}
	return doc, nil
}

// extractJSON strips the markdown fence models like to wrap JSON in.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
