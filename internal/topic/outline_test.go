package topic

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtractTopic(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{`Make a course called "Graph Theory" please`, "Graph Theory"},
		{`a "quoted" and "second"`, "quoted"},
		{`stray " quote`, `stray " quote`},
		{"A course on Distributed Systems", "Distributed Systems"},
		{"COURSE ON linear algebra", "linear algebra"},
		{"python basics", "python basics"},
		{"Kubernetes", "Kubernetes"},
	}
	for _, tt := range tests {
		if got := ExtractTopic(tt.input); got != tt.want {
			t.Errorf("ExtractTopic(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClampDays(t *testing.T) {
	for n, want := range map[int]int{0: 3, 3: 3, 5: 5, 7: 7, 12: 7} {
		if got := ClampDays(n); got != want {
			t.Errorf("ClampDays(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestPlan(t *testing.T) {
	o := Plan(Result{Subject: "Programming", Topic: "Go", Subtopics: []string{"Syntax", "Concurrency"}})
	if o.Name != "Go" || o.Domain != "Programming" {
		t.Errorf("name/domain = %q/%q", o.Name, o.Domain)
	}
	if len(o.Days) != MinDays {
		t.Fatalf("days = %d, want %d", len(o.Days), MinDays)
	}
	if o.Days[0].Title != "Syntax" || o.Days[2].Title != "Advanced Topics" {
		t.Errorf("titles = %q, %q", o.Days[0].Title, o.Days[2].Title)
	}
	for _, d := range o.Days {
		if len(d.Modules) != ModulesPerDay {
			t.Errorf("day %d modules = %d", d.Number, len(d.Modules))
		}
	}
	if !strings.HasPrefix(o.Days[1].Modules[0], "Module 1: Concurrency") {
		t.Errorf("module = %q", o.Days[1].Modules[0])
	}
}

func TestOutlinePrompt(t *testing.T) {
	p := OutlinePrompt("teach me on Compilers")
	if !strings.Contains(p, `course on the topic "Compilers"`) {
		t.Error("prompt should name the extracted topic")
	}
	if !strings.Contains(p, "ranging from 3 to 7 days") {
		t.Error("prompt should bound the duration")
	}
}

const cannedOutline = `{
  "name": "Go Concurrency",
  "domain": "Programming",
  "numberofdays": 3,
  "Introduction": ["Learn goroutines.", "Then channels."],
  "modules": [{"day": 1, "title": "Goroutines"}, {"day": 2, "title": "Channels"}],
  "Day 1": ["Module 1: Spawning", "Module 2: Scheduling", " "],
  "Day 2": ["Module 1: Unbuffered", "Module 2: Buffered", "Module 3: Select"],
  "Day 9": ["Module 1: Out of range"],
  "YouTubeReferences": [
    {"title": "Concurrency is not parallelism", "url": "https://www.youtube.com/watch?v=oV9rvDllKEg"},
    {"title": "no link", "url": ""}
  ],
  "assessments": [{"type": "quiz", "title": "Channels quiz", "description": "Buffered vs unbuffered"}]
}`

func TestParseOutline(t *testing.T) {
	o, ok := ParseOutline(cannedOutline)
	if !ok {
		t.Fatal("ParseOutline() ok = false")
	}
	if o.Name != "Go Concurrency" || o.Domain != "Programming" {
		t.Errorf("name/domain = %q/%q", o.Name, o.Domain)
	}
	if o.Introduction != "Learn goroutines. Then channels." {
		t.Errorf("introduction = %q", o.Introduction)
	}
	if len(o.Days) != 3 {
		t.Fatalf("days = %d, want 3", len(o.Days))
	}
	if want := []string{"Module 1: Spawning", "Module 2: Scheduling"}; !reflect.DeepEqual(o.Days[0].Modules, want) {
		t.Errorf("day 1 modules = %v, want %v", o.Days[0].Modules, want)
	}
	if o.Days[1].Title != "Channels" || len(o.Days[1].Modules) != 3 {
		t.Errorf("day 2 = %+v", o.Days[1])
	}
	// Day 3 has no list and no title.
	if o.Days[2].Title != "Advanced Topics" || o.Days[2].Modules[0] != "Module 1: Advanced Topics Introduction" {
		t.Errorf("day 3 = %+v", o.Days[2])
	}
	if len(o.References) != 1 || o.References[0].URL != "https://www.youtube.com/watch?v=oV9rvDllKEg" {
		t.Errorf("references = %+v", o.References)
	}
	if len(o.Assessments) != 1 || o.Assessments[0].Title != "Channels quiz" {
		t.Errorf("assessments = %+v", o.Assessments)
	}
}

func TestParseOutlineEnvelopes(t *testing.T) {
	body := `{"name":"Rust","Day 1":["a"],"Day 2":["b"],"Day 3":["c"],"Day 4":["d"]}`
	tests := []struct {
		name   string
		reply  string
		wantOK bool
	}{
		{"bare", body, true},
		{"fenced", "Here you go:\n```json\n" + body + "\n```\nEnjoy!", true},
		{"embedded", "Sure! " + body + " Good luck.", true},
		{"no day lists", `{"name":"Rust","numberofdays":4}`, false},
		{"not json", "I can help with that.", false},
		{"wrong types", `{"name":"Rust","numberofdays":"four","Day 1":["a"]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, ok := ParseOutline(tt.reply)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (o.Name != "Rust" || len(o.Days) != 4) {
				t.Errorf("outline = %+v", o)
			}
		})
	}
}

func TestParseOutlineClampsDays(t *testing.T) {
	tests := []struct {
		reply string
		want  int
	}{
		{`{"numberofdays": 12, "Day 1": ["a"]}`, MaxDays},
		{`{"numberofdays": 1, "Day 1": ["a"]}`, MinDays},
		{`{"Day 1": ["a"], "Day 5": ["e"]}`, 5},
	}
	for _, tt := range tests {
		o, ok := ParseOutline(tt.reply)
		if !ok || len(o.Days) != tt.want {
			t.Errorf("ParseOutline(%s) days = %d ok = %v, want %d", tt.reply, len(o.Days), ok, tt.want)
		}
	}
}

func TestGeneratorOutline(t *testing.T) {
	res := Result{Subject: "Programming", Topic: "Goroutines", Subtopics: []string{"a", "b", "c"}}

	t.Run("model outline", func(t *testing.T) {
		m := &scriptedModel{replies: []string{"```json\n" + cannedOutline + "\n```"}}
		o, ok := NewGenerator(m).Outline(context.Background(), `Teach me "Go concurrency"`, res)
		if !ok {
			t.Fatal("model outline not used")
		}
		if !strings.Contains(m.prompts[0], `topic "Go concurrency"`) {
			t.Errorf("prompt does not carry the extracted topic: %q", m.prompts[0])
		}
		if o.Name != "Go Concurrency" || !reflect.DeepEqual(o.Subtopics, res.Subtopics) {
			t.Errorf("outline = %+v", o)
		}
	})

	t.Run("falls back to plan", func(t *testing.T) {
		tests := []*scriptedModel{
			{errs: []error{errors.New("down")}},
			{replies: []string{"Sorry, I cannot do that."}},
		}
		for _, m := range tests {
			o, ok := NewGenerator(m).Outline(context.Background(), "go", res)
			if ok {
				t.Error("ok = true for an unusable reply")
			}
			if !reflect.DeepEqual(o, Plan(res)) {
				t.Errorf("outline = %+v, want Plan(res)", o)
			}
		}
	})
}
