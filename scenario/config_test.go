package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, *Context) ([]byte, error) {
	return []byte("png"), nil
}

func testHandlers() *Handlers {
	h := NewHandlers()
	h.RegisterImage("invitation", stubGenerator{})
	return h
}

const validYAML = `
default_answer: "I do not understand."
intents:
  - name: date
    tokens: ["when", "date"]
    answer: "April 15th."
  - name: registration
    tokens: ["register"]
    scenario: registration
scenarios:
  registration:
    first_step: step_1
    steps:
      step_1:
        text: "Your name?"
        handler: name
        next_step: step_2
        failure_text: "3-40 letters please."
      step_2:
        text: "Nice, {name}. Your email?"
        handler: email
        next_step: step_3
        failure_text: "No email found."
      step_3:
        text: "Done, {name}! Sent to {email}."
        image: invitation
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML), testHandlers())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	sc, ok := cfg.Scenario("registration")
	if !ok {
		t.Fatal("registration scenario missing")
	}
	first, ok := sc.Step(sc.FirstStep)
	if !ok || first.Validator == nil || first.Validator.Key() != "name" {
		t.Fatalf("first step wiring broken: %+v", first)
	}
	last, _ := sc.Step("step_3")
	if !last.Terminal() {
		t.Fatal("step_3 should be terminal")
	}
	if last.Image == nil {
		t.Fatal("step_3 should carry the image generator")
	}
	if last.Validator != nil {
		t.Fatal("terminal step must not have a validator")
	}
}

func TestParseRejectsBrokenConfigs(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		errPart string
	}{
		{
			"unknown handler",
			func(s string) string { return strings.Replace(s, "handler: name", "handler: phone", 1) },
			"unknown handler",
		},
		{
			"dangling next_step",
			func(s string) string { return strings.Replace(s, "next_step: step_2", "next_step: step_9", 1) },
			"not found",
		},
		{
			"missing failure_text",
			func(s string) string { return strings.Replace(s, `failure_text: "No email found."`, "", 1) },
			"failure_text",
		},
		{
			"unknown image",
			func(s string) string { return strings.Replace(s, "image: invitation", "image: certificate", 1) },
			"image",
		},
		{
			"unknown template field",
			func(s string) string { return strings.Replace(s, "{email}", "{phone}", 1) },
			"phone",
		},
		{
			"missing first_step",
			func(s string) string { return strings.Replace(s, "first_step: step_1", "first_step: intro", 1) },
			"first_step",
		},
		{
			"no default answer",
			func(s string) string { return strings.Replace(s, "default_answer", "default_answerx", 1) },
			"default_answer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.mutate(validYAML)), testHandlers())
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("error %v does not wrap ErrConfig", err)
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Fatalf("error %q does not mention %q", err, tc.errPart)
			}
		})
	}
}

func TestParseRejectsTerminalFirstStep(t *testing.T) {
	const yaml = `
default_answer: "I do not understand."
intents:
  - name: hours
    tokens: ["hours"]
    scenario: hours
scenarios:
  hours:
    first_step: only
    steps:
      only:
        text: "We are open 9 to 5."
`
	_, err := Parse([]byte(yaml), testHandlers())
	if err == nil {
		t.Fatal("single terminal-step scenario must fail to load")
	}
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("error %v does not wrap ErrConfig", err)
	}
	if !strings.Contains(err.Error(), "first_step") {
		t.Fatalf("error %q does not mention first_step", err)
	}
}

func TestParseIntentValidation(t *testing.T) {
	both := strings.Replace(validYAML, "scenario: registration", "scenario: registration\n    answer: also", 1)
	if _, err := Parse([]byte(both), testHandlers()); err == nil {
		t.Fatal("intent with both answer and scenario must fail")
	}

	missing := strings.Replace(validYAML, "scenario: registration", "scenario: onboarding", 1)
	if _, err := Parse([]byte(missing), testHandlers()); err == nil {
		t.Fatal("intent pointing at missing scenario must fail")
	}
}

func TestMatchIntent(t *testing.T) {
	cfg, err := Parse([]byte(validYAML), testHandlers())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := cfg.MatchIntent("WHEN is it?"); got == nil || got.Name != "date" {
		t.Fatalf("case-insensitive match failed: %+v", got)
	}
	if got := cfg.MatchIntent("please register me and tell me the date"); got == nil || got.Name != "date" {
		t.Fatalf("declaration order must win: %+v", got)
	}
	if got := cfg.MatchIntent("completely unrelated"); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}
