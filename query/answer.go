package query

import (
	"context"
	"strings"

	"github.com/rlch/moviekg/metrics"
	"go.uber.org/zap"
)

// Outcome label recorded for questions without a recognisable title.
const outcomeNotRecognized = "not_recognized"

// Answer is the full result of answering one question.
type Answer struct {
	Question string  `json:"question"`
	Title    string  `json:"title,omitempty"`
	Intent   Intent  `json:"intent"`
	Outcome  Outcome `json:"outcome"`
	// Recognized is false when no title could be extracted; Outcome is then
	// zero and the store was not queried.
	Recognized bool   `json:"recognized"`
	Text       string `json:"text"`
}

// Answerer runs the question pipeline: extract, classify, query, format.
// It is safe for concurrent use.
type Answerer struct {
	extractor *Extractor
	engine    *Engine
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewAnswerer creates an Answerer. The engine's logger and metrics are reused.
func NewAnswerer(extractor *Extractor, engine *Engine) *Answerer {
	return &Answerer{
		extractor: extractor,
		engine:    engine,
		logger:    engine.logger,
		metrics:   engine.metrics,
	}
}

// Answer answers question.
func (a *Answerer) Answer(ctx context.Context, question string) Answer {
	question = strings.TrimSpace(question)
	ans := Answer{Question: question}

	title, ok := a.extractor.Extract(question)
	if !ok {
		ans.Text = NotRecognizedMessage
		a.metrics.Answer(Unknown.String(), outcomeNotRecognized)
		a.logger.Debug("No title recognised", zap.String("question", question))

		return ans
	}

	ans.Recognized = true
	ans.Title = title
	ans.Intent = Classify(question)
	ans.Outcome = a.engine.Query(ctx, title, ans.Intent)
	ans.Text = Format(ans.Intent, title, ans.Outcome)

	a.metrics.Answer(ans.Intent.String(), ans.Outcome.Kind.String())
	a.logger.Debug("Question answered",
		zap.String("title", title),
		zap.Stringer("intent", ans.Intent),
		zap.Stringer("outcome", ans.Outcome.Kind))

	return ans
}
