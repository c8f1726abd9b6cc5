package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/GriffinCanCode/screentutor/internal/trace"
)

var (
	quotedPattern = regexp.MustCompile(`"([^"]+)"`)
	onPattern     = regexp.MustCompile(`(?i)\bon\s+`)
	fencedObject  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	dayKey        = regexp.MustCompile(`^Day\s*(\d+)$`)

	fillerDays  = []string{"Fundamentals", "Core Concepts", "Advanced Topics", "Practical Applications", "Projects", "Review", "Capstone"}
	moduleParts = [ModulesPerDay]string{"Introduction", "Key Techniques", "Practice"}
)

// ExtractTopic pulls the course topic out of a free-form request: the first
// quoted phrase, else whatever follows "on", else the whole input.
func ExtractTopic(input string) string {
	if strings.Contains(input, `"`) {
		if m := quotedPattern.FindStringSubmatch(input); m != nil {
			return m[1]
		}
		return input
	}
	if loc := onPattern.FindStringIndex(input); loc != nil {
		if rest := strings.TrimSpace(input[loc[1]:]); rest != "" {
			return rest
		}
	}
	return input
}

// Day is one day of a planned course.
type Day struct {
	Number  int      `json:"day"`
	Title   string   `json:"title"`
	Modules []string `json:"modules"`
}

// Reference is an external video suggested for the course.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Assessment is a suggested end-of-course check.
type Assessment struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Outline is a course skeleton, either written by the model or derived from a
// classification.
type Outline struct {
	Name         string       `json:"name"`
	Domain       string       `json:"domain"`
	Subtopics    []string     `json:"subtopics"`
	Introduction string       `json:"introduction,omitempty"`
	Days         []Day        `json:"days"`
	References   []Reference  `json:"youtube_references,omitempty"`
	Assessments  []Assessment `json:"assessments,omitempty"`
}

// ClampDays bounds a day count to the supported course length.
func ClampDays(n int) int {
	return min(max(n, MinDays), MaxDays)
}

// Plan lays out one day per subtopic with ModulesPerDay modules each.
func Plan(r Result) Outline {
	n := ClampDays(len(r.Subtopics))
	o := Outline{
		Name:      r.Topic,
		Domain:    r.Subject,
		Subtopics: r.Subtopics,
		Days:      make([]Day, 0, n),
	}
	for i := range n {
		title := fillerDays[i]
		if i < len(r.Subtopics) && strings.TrimSpace(r.Subtopics[i]) != "" {
			title = r.Subtopics[i]
		}
		o.Days = append(o.Days, Day{Number: i + 1, Title: title, Modules: templateModules(title)})
	}
	return o
}

func templateModules(title string) []string {
	mods := make([]string, ModulesPerDay)
	for j, part := range moduleParts {
		mods[j] = fmt.Sprintf("Module %d: %s %s", j+1, title, part)
	}
	return mods
}

// Outline asks the model for a full course on text. When the call fails or the
// reply holds no usable day lists it falls back to Plan(res); ok reports whether
// the model's outline was used. Missing name, domain and subtopics come from res.
func (g *Generator) Outline(ctx context.Context, text string, res Result) (o Outline, ok bool) {
	ctx, span := trace.StartSpan(ctx, "topic_outline")
	defer span.End()
	log := trace.Logger(ctx)

	raw, err := g.model.Complete(ctx, "", OutlinePrompt(text), "")
	if err != nil {
		log.Warn("outline model call failed, using planned outline", "error", err)
		return Plan(res), false
	}
	o, ok = ParseOutline(raw)
	span.SetAttr("parsed", ok)
	if !ok {
		log.Warn("outline reply unusable, using planned outline", "reply_len", len(raw))
		return Plan(res), false
	}
	if o.Name == "" {
		o.Name = res.Topic
	}
	if o.Domain == "" {
		o.Domain = res.Subject
	}
	if len(o.Subtopics) == 0 {
		o.Subtopics = res.Subtopics
	}
	return o, true
}

type rawOutline struct {
	Name         string          `json:"name"`
	Domain       string          `json:"domain"`
	Subtopics    []string        `json:"subtopics"`
	NumberOfDays int             `json:"numberofdays"`
	Introduction json.RawMessage `json:"Introduction"`
	Modules      []struct {
		Day   int    `json:"day"`
		Title string `json:"title"`
	} `json:"modules"`
	References  []Reference  `json:"YouTubeReferences"`
	Assessments []Assessment `json:"assessments"`
}

// ParseOutline decodes a course reply: bare JSON, a fenced JSON block, or the
// span from the first "{" to the last "}". Day lists come from the "Day N"
// keys; ok is false when there are none. The day count is numberofdays (or the
// highest listed day) clamped to MinDays..MaxDays, and days the model left
// empty get template modules.
func ParseOutline(reply string) (Outline, bool) {
	body, ok := outlineObject(reply)
	if !ok {
		return Outline{}, false
	}
	var raw rawOutline
	if err := json.Unmarshal(body, &raw); err != nil {
		return Outline{}, false
	}

	lists := map[int][]string{}
	last := 0
	gjson.ParseBytes(body).ForEach(func(k, v gjson.Result) bool {
		m := dayKey.FindStringSubmatch(k.String())
		if m == nil || !v.IsArray() {
			return true
		}
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			return true
		}
		var mods []string
		for _, item := range v.Array() {
			if item.Type == gjson.String {
				mods = append(mods, item.String())
			}
		}
		lists[n] = nonBlank(mods)
		last = max(last, n)
		return true
	})
	if last == 0 {
		return Outline{}, false
	}

	titles := map[int]string{}
	for _, m := range raw.Modules {
		if t := strings.TrimSpace(m.Title); t != "" {
			titles[m.Day] = t
		}
	}

	n := raw.NumberOfDays
	if n <= 0 {
		n = last
	}
	n = ClampDays(n)

	o := Outline{
		Name:         strings.TrimSpace(raw.Name),
		Domain:       strings.TrimSpace(raw.Domain),
		Subtopics:    nonBlank(raw.Subtopics),
		Introduction: introduction(raw.Introduction),
		Days:         make([]Day, 0, n),
	}
	for i := 1; i <= n; i++ {
		title, ok := titles[i]
		if !ok {
			title = fillerDays[i-1]
		}
		mods := lists[i]
		if len(mods) == 0 {
			mods = templateModules(title)
		}
		o.Days = append(o.Days, Day{Number: i, Title: title, Modules: mods})
	}
	for _, r := range raw.References {
		if u := strings.TrimSpace(r.URL); u != "" {
			o.References = append(o.References, Reference{Title: strings.TrimSpace(r.Title), URL: u})
		}
	}
	for _, a := range raw.Assessments {
		if strings.TrimSpace(a.Title) != "" {
			o.Assessments = append(o.Assessments, a)
		}
	}
	return o, true
}

func outlineObject(reply string) ([]byte, bool) {
	s := strings.TrimSpace(reply)
	if json.Valid([]byte(s)) {
		return []byte(s), true
	}
	if m := fencedObject.FindStringSubmatch(s); m != nil && json.Valid([]byte(m[1])) {
		return []byte(m[1]), true
	}
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start >= 0 && end > start && json.Valid([]byte(s[start:end+1])) {
		return []byte(s[start : end+1]), true
	}
	return nil, false
}

// introduction accepts a string or a list of paragraphs.
func introduction(raw json.RawMessage) string {
	var parts []string
	if json.Unmarshal(raw, &parts) == nil {
		return strings.Join(nonBlank(parts), " ")
	}
	var one string
	if json.Unmarshal(raw, &one) == nil {
		return strings.TrimSpace(one)
	}
	return ""
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
