package llm

import (
	"context"
	"testing"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/resilience"
)

type call struct {
	system, text, imageURL string
}

type mockCompleter struct {
	replies []string
	errs    []error
	calls   []call
}

func (m *mockCompleter) Name() string  { return "groq" }
func (m *mockCompleter) Model() string { return "scout" }
func (m *mockCompleter) Complete(_ context.Context, system, text, imageURL string) (string, error) {
	i := len(m.calls)
	m.calls = append(m.calls, call{system, text, imageURL})
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return "", err
	}
	return m.replies[i], nil
}

func TestRespondWithImage(t *testing.T) {
	m := &mockCompleter{replies: []string{"Look at line 3."}}
	r := NewResponder(m, resilience.DefaultConfig(), nil, nil)

	ans, err := r.Respond(context.Background(), "why is this failing", "data:image/png;base64,AA")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if ans.Text != "Look at line 3." || ans.Mode != ModeTextImage {
		t.Errorf("answer = %+v", ans)
	}
	if len(m.calls) != 1 || m.calls[0].system != PromptTeach || m.calls[0].imageURL == "" {
		t.Errorf("calls = %+v", m.calls)
	}
}

func TestRespondFallsBackTextOnly(t *testing.T) {
	m := &mockCompleter{
		replies: []string{"", "Try a smaller example."},
		errs:    []error{apperrors.New(apperrors.InvalidArgument, "image rejected")},
	}
	r := NewResponder(m, resilience.DefaultConfig(), nil, nil)

	ans, err := r.Respond(context.Background(), "help", "data:image/png;base64,AA")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if ans.Mode != ModeTextOnly || ans.Text != "Try a smaller example." {
		t.Errorf("answer = %+v", ans)
	}
	if len(m.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(m.calls))
	}
	second := m.calls[1]
	if second.system != PromptHelp || second.imageURL != "" || second.text != "help" {
		t.Errorf("fallback call = %+v", second)
	}
}

func TestRespondBothFail(t *testing.T) {
	m := &mockCompleter{errs: []error{
		apperrors.New(apperrors.ProviderFailed, "a"),
		apperrors.New(apperrors.RateLimited, "b"),
	}}
	r := NewResponder(m, resilience.DefaultConfig(), nil, nil)

	_, err := r.Respond(context.Background(), "q", "")
	if !apperrors.IsKind(err, apperrors.RateLimited) {
		t.Errorf("error = %v, want RateLimited", err)
	}
	if len(m.calls) != 2 {
		t.Errorf("calls = %d, want exactly 2", len(m.calls))
	}
}

func TestRespondWithoutScreenshotUsesTeachPrompt(t *testing.T) {
	m := &mockCompleter{replies: []string{"ok"}}
	ans, err := NewResponder(m, resilience.DefaultConfig(), nil, nil).Respond(context.Background(), "q", "")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Mode != ModeTextOnly || m.calls[0].system != PromptTeach {
		t.Errorf("answer = %+v, first system prompt teach = %v", ans, m.calls[0].system == PromptTeach)
	}
}

func TestRespondEmptyQuestion(t *testing.T) {
	m := &mockCompleter{}
	_, err := NewResponder(m, resilience.DefaultConfig(), nil, nil).Respond(context.Background(), "", "")
	if !apperrors.IsKind(err, apperrors.EmptyInput) {
		t.Errorf("error = %v, want EmptyInput", err)
	}
	if len(m.calls) != 0 {
		t.Error("model should not be called")
	}
}
