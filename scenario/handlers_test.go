package scenario

import "testing"

func TestNameValidator(t *testing.T) {
	v := nameValidator{}

	var ctx Context
	if !v.Validate("Кирилл", &ctx) {
		t.Fatal("expected cyrillic name to pass")
	}
	if ctx.Name != "Кирилл" {
		t.Fatalf("ctx.Name = %q", ctx.Name)
	}

	ctx = Context{}
	if !v.Validate("Anna-Maria Smith", &ctx) {
		t.Fatal("expected hyphenated name to pass")
	}

	for _, bad := range []string{"ab", "x", "", "name!with#symbols", "почта email@email"} {
		ctx = Context{}
		if v.Validate(bad, &ctx) {
			t.Fatalf("expected %q to fail", bad)
		}
		if ctx.Name != "" {
			t.Fatalf("failed validation wrote %q into context", ctx.Name)
		}
	}
}

func TestEmailValidator(t *testing.T) {
	v := emailValidator{}

	var ctx Context
	if !v.Validate("my mail is kirill@example.com thanks", &ctx) {
		t.Fatal("expected embedded email to pass")
	}
	if ctx.Email != "kirill@example.com" {
		t.Fatalf("ctx.Email = %q", ctx.Email)
	}

	for _, bad := range []string{"email@email", "no mail here", "at@sign"} {
		ctx = Context{}
		if v.Validate(bad, &ctx) {
			t.Fatalf("expected %q to fail, got %q", bad, ctx.Email)
		}
		if ctx.Email != "" {
			t.Fatalf("failed validation wrote %q into context", ctx.Email)
		}
	}
}

func TestHandlersUnknownKeys(t *testing.T) {
	h := NewHandlers()
	if _, err := h.validator("phone"); err == nil {
		t.Fatal("expected error for unknown validator")
	}
	if _, err := h.image("certificate"); err == nil {
		t.Fatal("expected error for unknown image generator")
	}
}
