package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/adaptive-survey/config"
	"github.com/lshigami/adaptive-survey/internal/dto"
	"github.com/lshigami/adaptive-survey/internal/model"
	"github.com/lshigami/adaptive-survey/internal/oracle"
	"github.com/lshigami/adaptive-survey/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const fallbackInsightConfidence = 0.5

const synthesizerSystemPrompt = `You are an expert research analyst. You read every respondent's question and answer transcript for a survey and identify the most important insights.
Return ONLY a JSON array of 3 to 7 insights ranked from most to least important. Each insight is an object with:
- "statement": one clear sentence stating the insight
- "confidence": integer from 0 to 100
- "evidence": short summary of the responses supporting it
- "category": one of "trend", "pattern", "recommendation", "concern", "opportunity"
- "tags": array of short keywords`

// InsightSynthesizer aggregates completed responses into ranked insights.
// Every successful round appends rows; nothing is replaced or deduplicated.
type InsightSynthesizer interface {
	Synthesize(ctx context.Context, surveyID uint) ([]model.Insight, error)
	// ListInsights returns persisted insights, newest round first and by rank
	// within a round.
	ListInsights(ctx context.Context, surveyID uint) ([]model.Insight, error)
	// OwnerInsights checks ownership, optionally regenerates, and returns all
	// insights for display.
	OwnerInsights(ctx context.Context, ownerID, surveyID uint, regenerate bool) (*dto.SurveyInsightsDTO, error)
}

type insightSynthesizer struct {
	db           *gorm.DB
	surveyRepo   repository.SurveyRepository
	responseRepo repository.SurveyResponseRepository
	insightRepo  repository.InsightRepository
	oracle       oracle.Oracle
	limits       oracle.Limits
	newBatchID   func() string
}

func NewInsightSynthesizer(
	db *gorm.DB,
	surveyRepo repository.SurveyRepository,
	responseRepo repository.SurveyResponseRepository,
	insightRepo repository.InsightRepository,
	o oracle.Oracle,
	cfg *config.Config,
) InsightSynthesizer {
	return &insightSynthesizer{
		db:           db,
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		insightRepo:  insightRepo,
		oracle:       o,
		limits:       oracle.Limits(cfg.Oracle.Synthesis),
		newBatchID:   uuid.NewString,
	}
}

type qaPair struct {
	Question      string          `json:"question"`
	Answer        string          `json:"answer"`
	ProcessedData json.RawMessage `json:"processed_data,omitempty"`
}

type transcript struct {
	RespondentID string   `json:"respondent_id"`
	QAPairs      []qaPair `json:"qa_pairs"`
}

func (s *insightSynthesizer) Synthesize(ctx context.Context, surveyID uint) ([]model.Insight, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, notFound(err, "survey %d", surveyID)
	}
	responses, err := s.responseRepo.FindCompletedWithAnswers(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed responses for survey %d: %w", surveyID, err)
	}
	if len(responses) == 0 {
		log.Info().Uint("surveyID", surveyID).Msg("Synthesize: no completed responses, skipping")
		return []model.Insight{}, nil
	}

	payload, err := json.Marshal(buildTranscripts(responses))
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcripts: %w", err)
	}
	prompt := oracle.Prompt{
		System:     synthesizerSystemPrompt,
		User:       fmt.Sprintf("Main survey question: %s\n\nResponses (%d completed):\n%s", survey.MainQuestion, len(responses), payload),
		ExpectJSON: true,
	}

	out, err := s.oracle.Generate(ctx, prompt, s.limits)
	if err != nil {
		log.Warn().Err(err).Uint("surveyID", surveyID).Msg("Synthesize: oracle failed, no insights this round")
		return []model.Insight{}, nil
	}

	batch := s.newBatchID()
	count := len(responses)
	var rows []model.Insight
	if parsed, ok := parseInsights(out); ok {
		rows = make([]model.Insight, 0, len(parsed))
		for i, p := range parsed {
			rows = append(rows, model.Insight{
				SurveyID:      surveyID,
				Batch:         batch,
				Rank:          i + 1,
				Statement:     p.statement(),
				Evidence:      p.evidence(),
				Confidence:    normalizeConfidence(p.confidence()),
				Category:      model.NormalizeInsightCategory(p.Category),
				Tags:          datatypes.JSONSlice[string](p.Tags),
				ResponseCount: count,
			})
		}
	} else {
		log.Warn().Uint("surveyID", surveyID).Msg("Synthesize: could not parse oracle output, storing raw text")
		rows = []model.Insight{{
			SurveyID:      surveyID,
			Batch:         batch,
			Rank:          1,
			Statement:     out,
			Confidence:    fallbackInsightConfidence,
			Category:      model.InsightCategoryPattern,
			ResponseCount: count,
		}}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.insightRepo.WithTx(tx).CreateBatch(ctx, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save insights for survey %d: %w", surveyID, err)
	}
	log.Info().Uint("surveyID", surveyID).Str("batch", batch).Int("insights", len(rows)).Int("responses", count).Msg("Synthesize: insights saved")
	return rows, nil
}

func (s *insightSynthesizer) ListInsights(ctx context.Context, surveyID uint) ([]model.Insight, error) {
	all, err := s.insightRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights for survey %d: %w", surveyID, err)
	}

	var order []string
	byBatch := make(map[string][]model.Insight)
	for _, in := range all {
		if _, seen := byBatch[in.Batch]; !seen {
			order = append(order, in.Batch)
		}
		byBatch[in.Batch] = append(byBatch[in.Batch], in)
	}

	out := make([]model.Insight, 0, len(all))
	for i := len(order) - 1; i >= 0; i-- {
		group := byBatch[order[i]]
		sort.SliceStable(group, func(a, b int) bool { return group[a].Rank < group[b].Rank })
		out = append(out, group...)
	}
	return out, nil
}

func (s *insightSynthesizer) OwnerInsights(ctx context.Context, ownerID, surveyID uint, regenerate bool) (*dto.SurveyInsightsDTO, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, notFound(err, "survey %d", surveyID)
	}
	if survey.UserID != ownerID {
		return nil, fmt.Errorf("survey %d insights requested by user %d: %w", surveyID, ownerID, ErrAccessDenied)
	}
	if regenerate {
		if _, err := s.Synthesize(ctx, surveyID); err != nil {
			return nil, err
		}
	}
	insights, err := s.ListInsights(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	var result dto.SurveyInsightsDTO
	if err := copier.Copy(&result.Survey, survey); err != nil {
		return nil, fmt.Errorf("failed to map survey: %w", err)
	}
	result.Insights = make([]dto.InsightDTO, 0, len(insights))
	if err := copier.Copy(&result.Insights, &insights); err != nil {
		return nil, fmt.Errorf("failed to map insights: %w", err)
	}
	return &result, nil
}

func buildTranscripts(responses []model.SurveyResponse) []transcript {
	out := make([]transcript, 0, len(responses))
	for _, r := range responses {
		answers := append([]model.Answer(nil), r.Answers...)
		sort.SliceStable(answers, func(i, j int) bool {
			return questionPosition(answers[i]) < questionPosition(answers[j])
		})
		t := transcript{RespondentID: r.RespondentID, QAPairs: make([]qaPair, 0, len(answers))}
		for _, a := range answers {
			pair := qaPair{Answer: a.Text}
			if a.Question != nil {
				pair.Question = a.Question.Text
			}
			if len(a.ProcessedData) > 0 && json.Valid(a.ProcessedData) {
				pair.ProcessedData = json.RawMessage(a.ProcessedData)
			}
			t.QAPairs = append(t.QAPairs, pair)
		}
		out = append(out, t)
	}
	return out
}

func questionPosition(a model.Answer) int {
	if a.Question == nil {
		return 0
	}
	return a.Question.Position
}

// insightPayload accepts both the current field names and the longer ones
// older prompts produced.
type insightPayload struct {
	Statement          string   `json:"statement"`
	InsightStatement   string   `json:"insight_statement"`
	Confidence         *flexNum `json:"confidence"`
	ConfidenceLevel    *flexNum `json:"confidence_level"`
	Evidence           flexText `json:"evidence"`
	SupportingEvidence flexText `json:"supporting_evidence"`
	Category           string   `json:"category"`
	Tags               flexList `json:"tags"`
}

func (p insightPayload) statement() string {
	if s := strings.TrimSpace(p.Statement); s != "" {
		return s
	}
	return strings.TrimSpace(p.InsightStatement)
}

func (p insightPayload) evidence() string {
	if p.Evidence != "" {
		return string(p.Evidence)
	}
	return string(p.SupportingEvidence)
}

func (p insightPayload) confidence() float64 {
	switch {
	case p.Confidence != nil:
		return float64(*p.Confidence)
	case p.ConfidenceLevel != nil:
		return float64(*p.ConfidenceLevel)
	default:
		return fallbackInsightConfidence
	}
}

// parseInsights accepts a JSON array or an object with an "insights" array,
// optionally fenced or surrounded by prose. ok is false when no usable
// structure is found.
func parseInsights(text string) ([]insightPayload, bool) {
	clean := oracle.StripCodeFence(text)
	candidates := []string{clean}
	if start, end := strings.IndexByte(clean, '['), strings.LastIndexByte(clean, ']'); start >= 0 && end > start {
		candidates = append(candidates, clean[start:end+1])
	}

	for _, c := range candidates {
		var list []insightPayload
		if err := json.Unmarshal([]byte(c), &list); err != nil {
			var wrapped struct {
				Insights []insightPayload `json:"insights"`
			}
			if err := json.Unmarshal([]byte(c), &wrapped); err != nil || wrapped.Insights == nil {
				continue
			}
			list = wrapped.Insights
		}
		usable := list[:0]
		for _, p := range list {
			if p.statement() != "" {
				usable = append(usable, p)
			}
		}
		if len(list) > 0 && len(usable) == 0 {
			continue
		}
		return usable, true
	}
	return nil, false
}

// normalizeConfidence maps a 0-100 score (or an already normalised 0-1
// value) into [0,1].
func normalizeConfidence(c float64) float64 {
	if c > 1 {
		c /= 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// flexNum decodes a JSON number or a numeric string such as "85" or "85%".
type flexNum float64

func (n *flexNum) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		if err != nil {
			return err
		}
		*n = flexNum(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = flexNum(f)
	return nil
}

// flexText decodes a string or a list of strings (joined with "; ").
type flexText string

func (t *flexText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = flexText(strings.TrimSpace(s))
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*t = flexText(strings.Join(list, "; "))
	return nil
}

// flexList decodes a list of strings or a comma-separated string.
type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}
