package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/cache"
	"pdf-chat-go/pkg/llm"
	"pdf-chat-go/pkg/log"
)

// Answers returned instead of an error when the question is answerable in
// principle but no model answer is available.
const (
	NoContextAnswer     = "I couldn't find relevant information in the PDF."
	EmptyResponseAnswer = "Sorry, I couldn't generate a response."
	ProviderErrorAnswer = "An error occurred while communicating with the LLM."
	TimeoutAnswer       = "The LLM took too long to respond, please try again later."
)

// DefaultLLMTimeout bounds one answer computation.
const DefaultLLMTimeout = 20 * time.Second

// ChatService answers questions about an uploaded document.
type ChatService interface {
	// Ask returns an answer string for every outcome except invalid input and
	// retrieval infrastructure failures, which are returned as errors.
	Ask(ctx context.Context, pdfID, question string) (string, error)
}

type chatService struct {
	retrieval RetrievalService
	llmClient llm.Client
	cache     *cache.ResponseCache
	timeout   time.Duration
	topK      int
}

// NewChatService creates a ChatService. A non-positive timeout or topK uses the default.
func NewChatService(retrieval RetrievalService, llmClient llm.Client, responseCache *cache.ResponseCache, timeout time.Duration, topK int) ChatService {
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &chatService{
		retrieval: retrieval,
		llmClient: llmClient,
		cache:     responseCache,
		timeout:   timeout,
		topK:      topK,
	}
}

func (s *chatService) Ask(ctx context.Context, pdfID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: message must not be empty", apperr.ErrValidation)
	}

	key := cache.Key{PdfID: pdfID, Question: question}
	if answer, ok := s.cache.Get(key); ok {
		log.Infof("[ChatService] cache hit, pdf_id: %s", pdfID)
		return answer, nil
	}

	result := s.cache.Do(key, func() (string, error) {
		// detached from the request so a computation shared by several callers
		// is not cancelled when the first of them goes away
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		answer, err := s.generate(cctx, pdfID, question)
		if cctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", apperr.ErrLLMTimeout, cctx.Err())
		}
		switch {
		case err == nil:
			s.cache.Put(key, answer)
		case errors.Is(err, apperr.ErrNoContext):
			s.cache.Put(key, NoContextAnswer)
		}
		return answer, err
	})

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	var (
		answer string
		err    error
	)
	select {
	case r := <-result:
		answer, err = r.Answer, r.Err
	case <-timer.C:
		err = apperr.ErrLLMTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}

	switch {
	case err == nil:
		return answer, nil
	case errors.Is(err, apperr.ErrNoContext):
		log.Warnf("[ChatService] no relevant chunks found, pdf_id: %s", pdfID)
		return NoContextAnswer, nil
	case errors.Is(err, apperr.ErrLLMTimeout):
		log.Errorf("[ChatService] llm call timed out after %s, pdf_id: %s", s.timeout, pdfID)
		return TimeoutAnswer, nil
	case errors.Is(err, apperr.ErrEmptyResponse):
		log.Warnf("[ChatService] llm returned no content, pdf_id: %s", pdfID)
		return EmptyResponseAnswer, nil
	case errors.Is(err, apperr.ErrLLMProvider):
		log.Errorf("[ChatService] llm provider error, pdf_id: %s, error: %v", pdfID, err)
		return ProviderErrorAnswer, nil
	default:
		return "", err
	}
}

// generate runs retrieval and the model call. It never produces fallback text.
func (s *chatService) generate(ctx context.Context, pdfID, question string) (string, error) {
	chunks, err := s.retrieval.Retrieve(ctx, pdfID, question, s.topK)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", apperr.ErrNoContext
	}

	resp, err := s.llmClient.GenerateContent(ctx, BuildPrompt(chunks, question))
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrLLMProvider, err)
	}
	text, ok := resp.FirstText()
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return "", apperr.ErrEmptyResponse
	}
	return text, nil
}

// BuildPrompt renders the grounding prompt: the retrieved chunks separated by
// blank lines, the question, and the instruction to answer from the chunks only.
func BuildPrompt(chunks []string, question string) string {
	var sb strings.Builder
	sb.WriteString("The user has a PDF with the following relevant chunks:\n\n")
	sb.WriteString(strings.Join(chunks, "\n\n"))
	sb.WriteString("\n\nThe user's question is: ")
	sb.WriteString(question)
	sb.WriteString("\n\nPlease answer concisely and accurately using only the information from these chunks.")
	return sb.String()
}
