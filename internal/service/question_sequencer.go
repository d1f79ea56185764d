package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lshigami/adaptive-survey/config"
	"github.com/lshigami/adaptive-survey/internal/model"
	"github.com/lshigami/adaptive-survey/internal/oracle"
	"github.com/rs/zerolog/log"
)

// completionSentinel is what the model is told to answer when nothing useful
// is left to ask.
const completionSentinel = "SURVEY_COMPLETE"

const sequencerSystemPrompt = `You are an adaptive survey assistant. You ask one open-ended question at a time to learn about the respondent's experience with the survey topic.
Rules:
- Return ONLY the question text, without numbering, quotes or commentary.
- Never repeat a question that was already asked.
- If the previous answers already cover the topic thoroughly, return exactly ` + completionSentinel + `.`

// QuestionSequencer produces the next question for a response, or reports
// that there is nothing more to ask.
type QuestionSequencer interface {
	// NextQuestion returns an unsaved Question at position len(history)+1.
	// ok is false when the oracle fails, declines, or returns nothing.
	NextQuestion(ctx context.Context, survey model.Survey, history []model.Exchange) (question *model.Question, ok bool)
}

type questionSequencer struct {
	oracle        oracle.Oracle
	firstQuestion oracle.Limits
	followUp      oracle.Limits
}

func NewQuestionSequencer(o oracle.Oracle, cfg *config.Config) QuestionSequencer {
	return &questionSequencer{
		oracle:        o,
		firstQuestion: oracle.Limits(cfg.Oracle.FirstQuestion),
		followUp:      oracle.Limits(cfg.Oracle.FollowUp),
	}
}

func (s *questionSequencer) NextQuestion(ctx context.Context, survey model.Survey, history []model.Exchange) (*model.Question, bool) {
	prompt, limits, err := s.buildPrompt(survey, history)
	if err != nil {
		log.Error().Err(err).Uint("surveyID", survey.ID).Msg("NextQuestion: failed to build prompt")
		return nil, false
	}

	raw, err := s.oracle.Generate(ctx, prompt, limits)
	if err != nil {
		log.Warn().Err(err).Uint("surveyID", survey.ID).Int("historyLen", len(history)).Msg("NextQuestion: oracle failed, treating as exhausted")
		return nil, false
	}

	text := cleanQuestionText(raw)
	if text == "" || strings.EqualFold(strings.Trim(text, ".! "), completionSentinel) {
		log.Info().Uint("surveyID", survey.ID).Int("historyLen", len(history)).Msg("NextQuestion: oracle signalled completion")
		return nil, false
	}

	return &model.Question{
		SurveyID: survey.ID,
		Text:     text,
		Type:     model.QuestionTypeOpenEnded,
		Position: len(history) + 1,
	}, true
}

func (s *questionSequencer) buildPrompt(survey model.Survey, history []model.Exchange) (oracle.Prompt, oracle.Limits, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Main survey question: %s\n", survey.MainQuestion)
	if d := strings.TrimSpace(survey.Description); d != "" {
		fmt.Fprintf(&sb, "Survey context: %s\n", d)
	}

	if len(history) == 0 {
		sb.WriteString("Write the first question to open the conversation with a new respondent.")
		return oracle.Prompt{System: sequencerSystemPrompt, User: sb.String()}, s.firstQuestion, nil
	}

	qa, err := json.Marshal(history)
	if err != nil {
		return oracle.Prompt{}, oracle.Limits{}, err
	}
	fmt.Fprintf(&sb, "Previous Q&A: %s\n", qa)
	sb.WriteString("Write the next follow-up question that digs deeper into what the respondent said.")
	return oracle.Prompt{System: sequencerSystemPrompt, User: sb.String()}, s.followUp, nil
}

const quoteChars = "\"'“”"

// cleanQuestionText strips labels, quotes and surrounding whitespace models
// tend to add despite instructions.
func cleanQuestionText(raw string) string {
	text := strings.TrimSpace(oracle.StripCodeFence(raw))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	text = strings.TrimSpace(strings.Trim(text, quoteChars))
	for _, label := range []string{"Question:", "Next question:", "Follow-up question:"} {
		if len(text) >= len(label) && strings.EqualFold(text[:len(label)], label) {
			text = strings.TrimSpace(text[len(label):])
		}
	}
	return strings.TrimSpace(strings.Trim(text, quoteChars))
}
