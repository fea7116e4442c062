// Package usecase contains application business logic services.
package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/policy-advisor/internal/adapter/observability"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/internal/retrieval"
	"github.com/fairyhunter13/policy-advisor/internal/scoring"
)

// Store key prefixes.
const (
	SubmissionKeyPrefix = "submission:"
	ResultKeyPrefix     = "result:"
)

// Submission outcomes recorded in metrics.
const (
	outcomeSuccess  = "success"
	outcomeFallback = "fallback"
	outcomeError    = "error"
)

// SubmitRequest is a decoded submission body.
type SubmitRequest struct {
	// QuizID is the explicit quiz, lower-cased; empty or unknown values are ignored.
	QuizID string
	// Keys are the answer keys as sent, used for quiz inference.
	Keys    []string
	Answers domain.Answers
}

// ParseSubmitRequest decodes {"quiz_id"|"quiz": ..., "answers": {...}}. A body
// without "answers" is read as the answers object itself.
func ParseSubmitRequest(body []byte) (SubmitRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return SubmitRequest{}, fmt.Errorf("%w: 未收到任何數據", domain.ErrInvalidArgument)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return SubmitRequest{}, fmt.Errorf("%w: body must be a json object", domain.ErrInvalidArgument)
	}
	if len(top) == 0 {
		return SubmitRequest{}, fmt.Errorf("%w: 未收到任何數據", domain.ErrInvalidArgument)
	}

	req := SubmitRequest{QuizID: explicitQuiz(top)}

	var raw map[string]domain.RawAnswer
	if a, ok := top["answers"]; ok && !isJSONNull(a) {
		if err := json.Unmarshal(a, &raw); err != nil {
			return SubmitRequest{}, fmt.Errorf("%w: answers must be an object", domain.ErrInvalidArgument)
		}
	} else {
		raw = make(map[string]domain.RawAnswer, len(top))
		for k, v := range top {
			if k == "quiz_id" || k == "quiz" || k == "answers" {
				continue
			}
			var ra domain.RawAnswer
			if err := json.Unmarshal(v, &ra); err != nil {
				return SubmitRequest{}, fmt.Errorf("%w: answer %s: %v", domain.ErrInvalidArgument, k, err)
			}
			raw[k] = ra
		}
	}
	req.Keys = make([]string, 0, len(raw))
	for k := range raw {
		req.Keys = append(req.Keys, k)
	}
	req.Answers = domain.CanonicalizeAnswers(raw)
	return req, nil
}

func explicitQuiz(top map[string]json.RawMessage) string {
	for _, k := range []string{"quiz_id", "quiz"} {
		var s string
		if v, ok := top[k]; ok && json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.ToLower(strings.TrimSpace(s))
		}
	}
	return ""
}

func isJSONNull(b json.RawMessage) bool { return string(bytes.TrimSpace(b)) == "null" }

// InferQuiz picks the quiz type. A valid explicit quiz wins. Otherwise keys
// starting with "Q" mean insurance and keys starting with "q" or the
// demographic keys age, gender and job mean values; mixed or no signal means values.
func InferQuiz(explicit string, keys []string) domain.QuizType {
	if q := domain.QuizType(strings.ToLower(strings.TrimSpace(explicit))); q.Valid() {
		return q
	}
	insurance, values := false, false
	for _, k := range keys {
		switch {
		case strings.HasPrefix(k, "Q"):
			insurance = true
		case strings.HasPrefix(k, "q"), k == "age", k == "gender", k == "job":
			values = true
		}
	}
	if insurance && !values {
		return domain.QuizInsurance
	}
	return domain.QuizValues
}

// SubmissionService runs a submission through scoring, retrieval and text
// generation and stores the resulting report.
type SubmissionService struct {
	Recommender retrieval.Recommender
	Generator   domain.TextGenerator
	Store       domain.KVStore
	NewID       func() string
}

// NewSubmissionService constructs a SubmissionService that assigns random UUID user ids.
func NewSubmissionService(rec retrieval.Recommender, gen domain.TextGenerator, store domain.KVStore) SubmissionService {
	return SubmissionService{Recommender: rec, Generator: gen, Store: store, NewID: uuid.NewString}
}

// Submit stores the submission and its report and returns the new user id.
func (s SubmissionService) Submit(ctx domain.Context, req SubmitRequest) (string, error) {
	tracer := otel.Tracer("usecase.submission")
	ctx, span := tracer.Start(ctx, "submission.Submit")
	defer span.End()

	quiz := InferQuiz(req.QuizID, req.Keys)
	userID := s.NewID()
	span.SetAttributes(attribute.String("quiz", string(quiz)), attribute.String("user_id", userID))
	lg := observability.LoggerFromContext(ctx).With(slog.String("user_id", userID), slog.String("quiz", string(quiz)))

	answers := req.Answers
	if answers == nil {
		answers = domain.Answers{}
	}
	sub := domain.Submission{UserID: userID, Quiz: quiz, Answers: answers}
	if err := s.putJSON(ctx, SubmissionKeyPrefix+userID, sub); err != nil {
		observability.ObserveSubmission(string(quiz), outcomeError)
		return "", err
	}

	var (
		report  map[string]any
		outcome string
		err     error
	)
	switch quiz {
	case domain.QuizInsurance:
		report, outcome, err = s.insuranceReport(ctx, answers)
	default:
		report, outcome, err = s.valuesReport(ctx, answers)
	}
	if err != nil {
		observability.ObserveSubmission(string(quiz), outcomeError)
		lg.Error("submission failed", slog.Any("error", err))
		return "", err
	}
	if err := s.putJSON(ctx, ResultKeyPrefix+userID, report); err != nil {
		observability.ObserveSubmission(string(quiz), outcomeError)
		return "", err
	}
	observability.ObserveSubmission(string(quiz), outcome)
	lg.Info("submission stored", slog.String("outcome", outcome), slog.Int("answers", len(answers)))
	return userID, nil
}

type scoringResult struct {
	TopCategories []scoring.TopCategory  `json:"top_categories"`
	Scores        map[domain.Category]int `json:"scores"`
	Channels      map[domain.Channel]int  `json:"channels"`
	Meta          map[string]string       `json:"meta"`
}

type insurancePayload struct {
	QuizID              domain.QuizType  `json:"quiz_id"`
	Answers             domain.Answers   `json:"answers"`
	ScoringResult       scoringResult    `json:"scoring_result"`
	RecommendedProducts []domain.Product `json:"recommended_products"`
}

type valuesPayload struct {
	QuizID  domain.QuizType `json:"quiz_id"`
	Answers domain.Answers  `json:"answers"`
}

func (s SubmissionService) insuranceReport(ctx domain.Context, a domain.Answers) (map[string]any, string, error) {
	sc := scoring.ScoreInsurance(a)
	age := retrieval.AgeFromGroup(a.Get("Q2").ChoiceText())
	products, err := s.Recommender.Recommend(ctx, sc.TopCategories, age)
	if err != nil {
		return nil, "", fmt.Errorf("op=usecase.Submit: %w", err)
	}
	observability.RecommendedProducts.Observe(float64(len(products)))

	payload := insurancePayload{
		QuizID:  domain.QuizInsurance,
		Answers: a,
		ScoringResult: scoringResult{
			TopCategories: sc.TopCategories,
			Scores:        sc.Scores,
			Channels:      sc.Channels,
			Meta:          sc.Meta,
		},
		RecommendedProducts: products,
	}
	out, outcome, err := s.generate(ctx, SystemPromptInsurance, payload)
	if err != nil {
		return nil, "", err
	}
	if outcome == outcomeFallback {
		out = InsuranceFallback(sc)
	}
	return applyInsuranceDefaults(out, sc, products), outcome, nil
}

func (s SubmissionService) valuesReport(ctx domain.Context, a domain.Answers) (map[string]any, string, error) {
	vm := scoring.ComputeValueMetrics(a)
	out, outcome, err := s.generate(ctx, SystemPromptValues, valuesPayload{QuizID: domain.QuizValues, Answers: a})
	if err != nil {
		return nil, "", err
	}
	if outcome == outcomeFallback {
		return ValuesFallback(scoring.ComputeProfile(a), vm), outcome, nil
	}
	return applyValuesDefaults(out, vm), outcome, nil
}

// generate calls the model. Unreadable output or a non-success status selects
// the fallback report; transport failures are returned.
func (s SubmissionService) generate(ctx domain.Context, system string, payload any) (map[string]any, string, error) {
	lg := observability.LoggerFromContext(ctx)
	out, err := s.Generator.Generate(ctx, system, payload)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaInvalid) {
			lg.Warn("model output unusable, using rule-based report", slog.Any("error", err))
			return nil, outcomeFallback, nil
		}
		return nil, "", err
	}
	if out == nil || reportFailed(out) {
		lg.Warn("model reported failure, using rule-based report", slog.Any("status", out["status"]))
		return nil, outcomeFallback, nil
	}
	return out, outcomeSuccess, nil
}

func (s SubmissionService) putJSON(ctx domain.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("op=usecase.store key=%s: %w", key, err)
	}
	if err := s.Store.Put(ctx, key, b); err != nil {
		return fmt.Errorf("op=usecase.store: %w", err)
	}
	return nil
}
