package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"confbot/dialog"
	"confbot/scenario"
)

const testYAML = `
default_answer: "I do not understand. Say 'register me' to join the conference."
intents:
  - name: date
    tokens: ["when", "date"]
    answer: "The conference is on April 15th."
  - name: place
    tokens: ["where", "place"]
    answer: "The conference is held in St. Petersburg."
  - name: registration
    tokens: ["register"]
    scenario: registration
scenarios:
  registration:
    first_step: step_1
    steps:
      step_1:
        text: "To register, send your name. It goes on the badge."
        handler: name
        next_step: step_2
        failure_text: "A name is 3-40 letters, dashes or spaces. Try again."
      step_2:
        text: "Great, {name}! Now send your email."
        handler: email
        next_step: step_3
        failure_text: "That does not contain an email. Try again."
      step_3:
        text: "Thanks for registering, {name}! Your ticket went to {email}."
        image: invitation
`

type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, dialogCtx *scenario.Context) ([]byte, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return []byte("png:" + dialogCtx.Name), nil
}

type recordingSink struct {
	texts  []string
	images [][]byte
}

func (s *recordingSink) SendText(_ context.Context, text string) error {
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSink) SendImage(_ context.Context, image []byte) error {
	s.images = append(s.images, image)
	return nil
}

func newTestEngine(t *testing.T, gen scenario.ImageGenerator) (*Engine, *dialog.MemoryStore) {
	t.Helper()
	handlers := scenario.NewHandlers()
	handlers.RegisterImage("invitation", gen)
	cfg, err := scenario.Parse([]byte(testYAML), handlers)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	store := dialog.NewMemoryStore()
	eng, err := New(cfg, store, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng, store
}

// send runs one message through the engine and returns the text bodies.
func send(t *testing.T, eng *Engine, userID int64, text string) []string {
	t.Helper()
	effects, err := eng.HandleText(context.Background(), userID, text)
	if err != nil {
		t.Fatalf("HandleText(%q): %v", text, err)
	}
	var out []string
	for _, e := range effects {
		if te, ok := e.(TextEffect); ok {
			out = append(out, te.Body)
		}
	}
	return out
}

func TestFullRegistrationConversation(t *testing.T) {
	gen := &fakeGenerator{}
	eng, store := newTestEngine(t, gen)
	const user = int64(100)

	steps := []struct {
		input string
		want  string
	}{
		{"Hi there", "I do not understand"},
		{"And when is it?", "April 15th"},
		{"Where does it take place?", "St. Petersburg"},
		{"Please register me", "send your name"},
		{"Kirill", "Great, Kirill!"},
		{"my mail email@email", "does not contain an email"},
		{"email@email.com", "Thanks for registering, Kirill!"},
	}

	for _, s := range steps {
		replies := send(t, eng, user, s.input)
		if len(replies) != 1 {
			t.Fatalf("input %q: got %d text replies", s.input, len(replies))
		}
		if !strings.Contains(replies[0], s.want) {
			t.Fatalf("input %q: reply %q does not contain %q", s.input, replies[0], s.want)
		}
	}

	if state, _ := store.Get(context.Background(), user); state != nil {
		t.Fatalf("state must be deleted after completion, got %+v", state)
	}
	regs := store.Registrations()
	if len(regs) != 1 {
		t.Fatalf("got %d registrations", len(regs))
	}
	if regs[0].Name != "Kirill" || regs[0].Email != "email@email.com" {
		t.Fatalf("unexpected registration: %+v", regs[0])
	}
}

func TestIntentsDoNotTouchState(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGenerator{})

	send(t, eng, 1, "when is it?")
	send(t, eng, 1, "where?")
	send(t, eng, 1, "gibberish")

	if store.Len() != 0 {
		t.Fatalf("stateless turns created %d states", store.Len())
	}
}

func TestIntentMatchRepeatable(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeGenerator{})

	first := send(t, eng, 2, "when is the conference?")
	second := send(t, eng, 2, "when is the conference?")
	if first[0] != second[0] {
		t.Fatalf("same input produced %q then %q", first[0], second[0])
	}
}

func TestInvalidAnswerKeepsStep(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGenerator{})
	const user = int64(3)

	send(t, eng, user, "register")

	for i := 0; i < 3; i++ {
		replies := send(t, eng, user, "x")
		if !strings.Contains(replies[0], "Try again") {
			t.Fatalf("attempt %d: got %q", i, replies[0])
		}
	}

	state, err := store.Get(context.Background(), user)
	if err != nil || state == nil {
		t.Fatalf("state lost after failed attempts: %v", err)
	}
	if state.Step != "step_1" {
		t.Fatalf("step advanced on failure: %q", state.Step)
	}
	if state.Context.Name != "" {
		t.Fatalf("failed validation polluted context: %+v", state.Context)
	}

	// A keyword inside an active scenario is an answer, not an intent.
	replies := send(t, eng, user, "when is it?")
	if !strings.Contains(replies[0], "Try again") {
		t.Fatalf("active state must shadow intents, got %q", replies[0])
	}
}

func TestScenarioIsolationBetweenUsers(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGenerator{})

	send(t, eng, 10, "register")
	send(t, eng, 10, "Alice")

	replies := send(t, eng, 11, "when?")
	if !strings.Contains(replies[0], "April 15th") {
		t.Fatalf("second user affected by first user's state: %q", replies[0])
	}

	state, _ := store.Get(context.Background(), 10)
	if state == nil || state.Step != "step_2" {
		t.Fatalf("first user's state corrupted: %+v", state)
	}
}

func TestDispatchOrderTextBeforeImage(t *testing.T) {
	gen := &fakeGenerator{}
	eng, _ := newTestEngine(t, gen)
	const user = int64(20)

	send(t, eng, user, "register")
	send(t, eng, user, "Kirill")
	effects, err := eng.HandleText(context.Background(), user, "kirill@example.com")
	if err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if len(effects) != 2 {
		t.Fatalf("terminal step produced %d effects", len(effects))
	}
	if _, ok := effects[0].(TextEffect); !ok {
		t.Fatalf("first effect is %T, want TextEffect", effects[0])
	}
	if _, ok := effects[1].(ImageEffect); !ok {
		t.Fatalf("second effect is %T, want ImageEffect", effects[1])
	}

	sink := &recordingSink{}
	if err := Dispatch(context.Background(), effects, sink); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sink.texts) != 1 || len(sink.images) != 1 {
		t.Fatalf("sink got %d texts, %d images", len(sink.texts), len(sink.images))
	}
	if string(sink.images[0]) != "png:Kirill" {
		t.Fatalf("image payload %q", sink.images[0])
	}
	if gen.calls != 1 {
		t.Fatalf("generator called %d times", gen.calls)
	}
}

func TestImageFailureDoesNotSuppressText(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("avatar service down")}
	eng, store := newTestEngine(t, gen)
	const user = int64(30)

	send(t, eng, user, "register")
	send(t, eng, user, "Kirill")
	effects, err := eng.HandleText(context.Background(), user, "kirill@example.com")
	if err != nil {
		t.Fatalf("HandleText: %v", err)
	}

	sink := &recordingSink{}
	dispatchErr := Dispatch(context.Background(), effects, sink)
	if dispatchErr == nil {
		t.Fatal("expected dispatch error from failed generation")
	}
	if len(sink.texts) != 1 {
		t.Fatalf("text reply suppressed: %d texts", len(sink.texts))
	}
	if len(sink.images) != 0 {
		t.Fatalf("unexpected image sent: %d", len(sink.images))
	}

	// The registration itself already succeeded.
	if len(store.Registrations()) != 1 {
		t.Fatal("registration must be persisted despite image failure")
	}
	if state, _ := store.Get(context.Background(), user); state != nil {
		t.Fatalf("state must be deleted despite image failure: %+v", state)
	}
}

func TestUnknownScenarioInStateFails(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGenerator{})
	const user = int64(40)

	state := &dialog.State{UserID: user, Scenario: "deleted", Step: "step_1"}
	if err := store.Create(context.Background(), state); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := eng.HandleText(context.Background(), user, "hello"); err == nil {
		t.Fatal("expected error for state referencing unknown scenario")
	}
}
