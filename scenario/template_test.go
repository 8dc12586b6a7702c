package scenario

import "testing"

func TestRenderSubstitutesFields(t *testing.T) {
	ctx := &Context{Name: "Kirill", Email: "kirill@example.com"}
	got, err := Render("Thanks, {name}! Ticket sent to {email}.", ctx)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "Thanks, Kirill! Ticket sent to kirill@example.com."
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRenderPlainTextPassesThrough(t *testing.T) {
	got, err := Render("no placeholders here", &Context{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "no placeholders here" {
		t.Fatalf("Render = %q", got)
	}
}

func TestRenderEscapedBraces(t *testing.T) {
	got, err := Render("literal {{name}} and {name}", &Context{Name: "Ann"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "literal {name} and Ann" {
		t.Fatalf("Render = %q", got)
	}
}

func TestRenderErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		ctx  Context
	}{
		{"unknown field", "hello {nickname}", Context{Name: "Ann"}},
		{"uncollected field", "bye {email}", Context{Name: "Ann"}},
		{"unterminated", "broken {name", Context{Name: "Ann"}},
		{"unmatched close", "broken name}", Context{Name: "Ann"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, err := Render(tc.text, &tc.ctx); err == nil {
				t.Fatalf("Render(%q) = %q, want error", tc.text, got)
			}
		})
	}
}
