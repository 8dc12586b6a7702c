package scenario

import (
	"context"
	"fmt"
	"regexp"
)

// Validator checks one inbound answer against a step's requirement.
// On success it writes the collected value into ctx; on failure it must
// leave ctx untouched.
type Validator interface {
	Key() string
	Validate(text string, ctx *Context) bool
}

// ImageGenerator synthesizes a binary attachment from collected context.
// Implementations are external collaborators (network calls, compositing);
// the engine only relies on this contract.
type ImageGenerator interface {
	Generate(ctx context.Context, dialogCtx *Context) ([]byte, error)
}

var (
	reName  = regexp.MustCompile(`^[\p{L}\d_\-\s]{3,40}$`)
	reEmail = regexp.MustCompile(`\b[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+\b`)
)

type nameValidator struct{}

func (nameValidator) Key() string { return "name" }

// Validate accepts 3-40 word characters, dashes, or spaces covering the
// whole message and stores the raw text as the registrant name.
func (nameValidator) Validate(text string, ctx *Context) bool {
	if !reName.MatchString(text) {
		return false
	}
	ctx.Name = text
	return true
}

type emailValidator struct{}

func (emailValidator) Key() string { return "email" }

// Validate scans the message for an email address and stores the first match.
func (emailValidator) Validate(text string, ctx *Context) bool {
	match := reEmail.FindString(text)
	if match == "" {
		return false
	}
	ctx.Email = match
	return true
}

// Handlers is the closed registry of step capabilities. Scenario loading
// resolves handler keys against it, so an unknown key fails at startup
// rather than mid-dialog.
type Handlers struct {
	validators map[string]Validator
	images     map[string]ImageGenerator
}

// NewHandlers returns a registry preloaded with the built-in validators.
func NewHandlers() *Handlers {
	h := &Handlers{
		validators: make(map[string]Validator),
		images:     make(map[string]ImageGenerator),
	}
	h.RegisterValidator(nameValidator{})
	h.RegisterValidator(emailValidator{})
	return h
}

// RegisterValidator adds a validator under its key, replacing any previous one.
func (h *Handlers) RegisterValidator(v Validator) {
	if v == nil || v.Key() == "" {
		return
	}
	h.validators[v.Key()] = v
}

// RegisterImage adds an image generator under the given key.
func (h *Handlers) RegisterImage(key string, g ImageGenerator) {
	if key == "" || g == nil {
		return
	}
	h.images[key] = g
}

func (h *Handlers) validator(key string) (Validator, error) {
	v, ok := h.validators[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown handler %q", ErrConfig, key)
	}
	return v, nil
}

func (h *Handlers) image(key string) (ImageGenerator, error) {
	g, ok := h.images[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown image generator %q", ErrConfig, key)
	}
	return g, nil
}
