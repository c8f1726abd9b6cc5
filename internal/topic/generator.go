// Package topic classifies free text into a subject, a topic and a short list
// of subtopics, and plans a course skeleton from the result.
package topic

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/GriffinCanCode/screentutor/internal/trace"
)

// Completer runs one chat completion.
type Completer interface {
	Complete(ctx context.Context, system, text, imageURL string) (string, error)
}

// Result is the classification of one text.
type Result struct {
	Subject   string   `json:"dominant_subject"`
	Topic     string   `json:"dominant_topic"`
	Subtopics []string `json:"subtopics"`
}

// Defaults returns the fallback classification.
func Defaults() Result {
	return Result{Subject: DefaultSubject, Topic: DefaultTopic, Subtopics: defaultSubtopics()}
}

func defaultSubtopics() []string {
	return []string{"Introduction", "Fundamentals", "Advanced", "Applications", "Projects"}
}

var (
	conversational = []string{"i understand", "please provide", "i'm ready", "okay", "let me analyze"}
	objectPattern  = regexp.MustCompile(`\{[^{}]*"dominant_subject"[^{}]*\}`)
)

// Generator asks a model to classify text. It never fails: every error path
// degrades to Defaults.
type Generator struct {
	model Completer
}

// NewGenerator creates a generator backed by model.
func NewGenerator(model Completer) *Generator {
	return &Generator{model: model}
}

// Generate classifies text.
func (g *Generator) Generate(ctx context.Context, text string) Result {
	ctx, span := trace.StartSpan(ctx, "topic_generate")
	defer span.End()
	log := trace.Logger(ctx)

	raw, err := g.model.Complete(ctx, "", analyzePrompt(text), "")
	if err != nil {
		log.Warn("topic model call failed", "error", err)
		return Defaults()
	}
	reply := clean(raw)
	if reply == "" {
		log.Warn("topic model returned empty reply")
		return Defaults()
	}

	if isConversational(reply) {
		log.Info("conversational reply, re-prompting for JSON")
		raw, err = g.model.Complete(ctx, "", strictPrompt(text), "")
		if err != nil {
			log.Warn("strict topic re-prompt failed", "error", err)
			return Defaults()
		}
		reply = cleanStrict(raw)
		if reply == "" {
			return Defaults()
		}
	}

	res, ok := Parse(reply)
	span.SetAttr("parsed", ok)
	span.SetAttr("subject", res.Subject)
	return res
}

// Parse extracts a classification from a cleaned reply. ok is false when
// neither the reply nor any embedded object could be decoded.
func Parse(reply string) (Result, bool) {
	var r Result
	if err := json.Unmarshal([]byte(reply), &r); err == nil {
		return normalize(r, true), true
	}
	m := objectPattern.FindString(reply)
	if m == "" {
		return Defaults(), false
	}
	r = Result{}
	if err := json.Unmarshal([]byte(m), &r); err != nil {
		return Defaults(), false
	}
	return normalize(r, false), true
}

// normalize fills empty fields. pad tops up short subtopic lists to three.
func normalize(r Result, pad bool) Result {
	if strings.TrimSpace(r.Subject) == "" {
		r.Subject = DefaultSubject
	}
	if r.Topic == "" {
		r.Topic = DefaultTopic
	}
	switch {
	case len(r.Subtopics) == 0:
		r.Subtopics = defaultSubtopics()
	case pad && len(r.Subtopics) < MinSubtopics:
		r.Subtopics = append(r.Subtopics, "Advanced Topics", "Applications", "Projects")
	}
	if len(r.Subtopics) > MaxSubtopics {
		r.Subtopics = r.Subtopics[:MaxSubtopics]
	}
	return r
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(strings.Trim(s, "`"))
}

func cleanStrict(s string) string {
	s = strings.Trim(s, "`")
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func isConversational(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range conversational {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
