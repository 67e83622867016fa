// Package advisor answers free-form questions about the current advice feed
// with an LLM.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"signal-deck/internal/domain"
	"signal-deck/internal/query"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultModel      = "gpt-4o-mini"
	DefaultMaxHistory = 20
	maxQuestionLen    = 1000
)

var ErrEmptyQuestion = errors.New("question must not be empty")

type Message struct {
	Role    string
	Content string
}

type LLMClient interface {
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}

// FeedReader exposes the latest advice query state.
type FeedReader interface {
	State() query.State
}

type ConversationStore interface {
	Append(chatID int64, msgs ...domain.ConversationMessage)
	History(chatID int64) []domain.ConversationMessage
	Reset(chatID int64)
}

type AdvisorService struct {
	tracer trace.Tracer
	llm    LLMClient
	feed   FeedReader
	store  ConversationStore
	model  string
	now    func() time.Time
}

func NewAdvisorService(tracer trace.Tracer, llm LLMClient, feed FeedReader, store ConversationStore, model string, maxHistory int) *AdvisorService {
	if model == "" {
		model = DefaultModel
	}
	if store == nil {
		store = NewMemoryStore(maxHistory)
	}
	return &AdvisorService{
		tracer: tracer,
		llm:    llm,
		feed:   feed,
		store:  store,
		model:  model,
		now:    time.Now,
	}
}

// Ask sends the question with the chat's history and the current advice feed
// as context. The exchange is stored only when the model answers.
func (s *AdvisorService) Ask(ctx context.Context, chatID int64, question string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor-service.ask")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatID))

	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if len(question) > maxQuestionLen {
		question = question[:maxQuestionLen]
	}
	if s.llm == nil {
		return "", errors.New("advisor not configured")
	}

	messages := []Message{{Role: RoleSystem, Content: s.systemPrompt()}}
	for _, m := range s.store.History(chatID) {
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: question})

	reply, err := s.llm.Complete(ctx, s.model, messages)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("ask advisor: %w", err)
	}
	reply = strings.TrimSpace(reply)

	now := s.now()
	s.store.Append(chatID,
		domain.ConversationMessage{Role: RoleUser, Content: question, CreatedAt: now},
		domain.ConversationMessage{Role: RoleAssistant, Content: reply, CreatedAt: now},
	)
	return reply, nil
}

func (s *AdvisorService) Reset(chatID int64) {
	s.store.Reset(chatID)
}

func (s *AdvisorService) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a crypto market assistant. Answer using the buy/hold/sell advices below. ")
	b.WriteString("Be concise, cite symbols, and remind users this is not financial advice.\n\n")

	var st query.State
	if s.feed != nil {
		st = s.feed.State()
	}
	if len(st.Data) == 0 {
		b.WriteString("No advices are currently available.")
		return b.String()
	}

	fmt.Fprintf(&b, "Current advices (fetched %s):\n", st.UpdatedAt.UTC().Format(time.RFC3339))
	for _, a := range st.Data {
		fmt.Fprintf(&b, "- %s (%s): %s, %s confidence, price $%.4f, 24h %+.2f%%, sentiment %d. %s\n",
			a.Symbol, a.Name, a.Action, a.Strength, a.Price, a.Change24h, a.Sentiment, a.Reason)
	}
	stats := domain.SummarizeAdvices(st.Data)
	fmt.Fprintf(&b, "Totals: %d buy, %d hold, %d sell.", stats.Buy, stats.Hold, stats.Sell)
	if st.Err != nil {
		fmt.Fprintf(&b, "\nThe latest refresh failed (%v); the data may be stale.", st.Err)
	}
	return b.String()
}
