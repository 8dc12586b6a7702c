package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type fileStep struct {
	Text        string `yaml:"text"`
	Image       string `yaml:"image"`
	Handler     string `yaml:"handler"`
	NextStep    string `yaml:"next_step"`
	FailureText string `yaml:"failure_text"`
}

type fileScenario struct {
	FirstStep string              `yaml:"first_step"`
	Steps     map[string]fileStep `yaml:"steps"`
}

type fileIntent struct {
	Name     string   `yaml:"name"`
	Tokens   []string `yaml:"tokens"`
	Answer   string   `yaml:"answer"`
	Scenario string   `yaml:"scenario"`
}

type fileConfig struct {
	DefaultAnswer string                  `yaml:"default_answer"`
	Intents       []fileIntent            `yaml:"intents"`
	Scenarios     map[string]fileScenario `yaml:"scenarios"`
}

// Load reads the dialog configuration from a YAML file and resolves every
// handler and image key against the registry. Any inconsistency is a
// startup error wrapping ErrConfig.
func Load(path string, handlers *Handlers) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}
	return Parse(data, handlers)
}

// Parse builds and validates a Config from raw YAML.
func Parse(data []byte, handlers *Handlers) (*Config, error) {
	if handlers == nil {
		return nil, fmt.Errorf("%w: nil handler registry", ErrConfig)
	}
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrConfig, err)
	}

	cfg := &Config{
		DefaultAnswer: strings.TrimSpace(raw.DefaultAnswer),
		Scenarios:     make(map[string]*Scenario, len(raw.Scenarios)),
	}
	if cfg.DefaultAnswer == "" {
		return nil, fmt.Errorf("%w: default_answer is required", ErrConfig)
	}

	for name, rawScenario := range raw.Scenarios {
		sc, err := buildScenario(name, rawScenario, handlers)
		if err != nil {
			return nil, err
		}
		cfg.Scenarios[name] = sc
	}

	if len(raw.Intents) == 0 {
		return nil, fmt.Errorf("%w: at least one intent is required", ErrConfig)
	}
	cfg.Intents = make([]Intent, 0, len(raw.Intents))
	for i, rawIntent := range raw.Intents {
		intent, err := buildIntent(i, rawIntent, cfg.Scenarios)
		if err != nil {
			return nil, err
		}
		cfg.Intents = append(cfg.Intents, intent)
	}

	return cfg, nil
}

func buildScenario(name string, raw fileScenario, handlers *Handlers) (*Scenario, error) {
	if len(raw.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", ErrConfig, name)
	}
	first, ok := raw.Steps[raw.FirstStep]
	if !ok {
		return nil, fmt.Errorf("%w: scenario %q first_step %q not found", ErrConfig, name, raw.FirstStep)
	}
	// A terminal first step would create state no message can ever advance.
	if first.NextStep == "" {
		return nil, fmt.Errorf("%w: scenario %q first_step %q is terminal and can never await input",
			ErrConfig, name, raw.FirstStep)
	}

	sc := &Scenario{
		Name:      name,
		FirstStep: raw.FirstStep,
		Steps:     make(map[string]*Step, len(raw.Steps)),
	}

	for stepName, rawStep := range raw.Steps {
		step := &Step{
			Name:        stepName,
			Text:        rawStep.Text,
			FailureText: rawStep.FailureText,
			NextStep:    rawStep.NextStep,
		}
		if strings.TrimSpace(step.Text) == "" {
			return nil, fmt.Errorf("%w: scenario %q step %q has empty text", ErrConfig, name, stepName)
		}
		if err := checkTemplates(name, stepName, step.Text, step.FailureText); err != nil {
			return nil, err
		}

		if rawStep.NextStep != "" {
			if _, ok := raw.Steps[rawStep.NextStep]; !ok {
				return nil, fmt.Errorf("%w: scenario %q step %q next_step %q not found",
					ErrConfig, name, stepName, rawStep.NextStep)
			}
			if rawStep.Handler == "" {
				return nil, fmt.Errorf("%w: scenario %q step %q awaits input but has no handler",
					ErrConfig, name, stepName)
			}
			if strings.TrimSpace(rawStep.FailureText) == "" {
				return nil, fmt.Errorf("%w: scenario %q step %q has no failure_text",
					ErrConfig, name, stepName)
			}
			v, err := handlers.validator(rawStep.Handler)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %q: %w", name, stepName, err)
			}
			step.Validator = v
		} else if rawStep.Handler != "" {
			return nil, fmt.Errorf("%w: scenario %q terminal step %q must not declare a handler",
				ErrConfig, name, stepName)
		}

		if rawStep.Image != "" {
			g, err := handlers.image(rawStep.Image)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %q: %w", name, stepName, err)
			}
			step.Image = g
		}

		sc.Steps[stepName] = step
	}

	return sc, nil
}

func buildIntent(idx int, raw fileIntent, scenarios map[string]*Scenario) (Intent, error) {
	label := raw.Name
	if label == "" {
		label = fmt.Sprintf("#%d", idx)
	}
	intent := Intent{Name: raw.Name, Answer: raw.Answer}

	if len(raw.Tokens) == 0 {
		return Intent{}, fmt.Errorf("%w: intent %s has no tokens", ErrConfig, label)
	}
	intent.Tokens = make([]string, 0, len(raw.Tokens))
	for _, token := range raw.Tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			return Intent{}, fmt.Errorf("%w: intent %s has an empty token", ErrConfig, label)
		}
		intent.Tokens = append(intent.Tokens, token)
	}

	hasAnswer := strings.TrimSpace(raw.Answer) != ""
	hasScenario := raw.Scenario != ""
	if hasAnswer == hasScenario {
		return Intent{}, fmt.Errorf("%w: intent %s must set exactly one of answer or scenario", ErrConfig, label)
	}
	if hasScenario {
		sc, ok := scenarios[raw.Scenario]
		if !ok {
			return Intent{}, fmt.Errorf("%w: intent %s references unknown scenario %q", ErrConfig, label, raw.Scenario)
		}
		intent.Scenario = sc
	}

	return intent, nil
}

func checkTemplates(scenarioName, stepName string, texts ...string) error {
	for _, text := range texts {
		for _, key := range placeholders(text) {
			if _, known := (&Context{}).Value(Field(key)); !known {
				return fmt.Errorf("%w: scenario %q step %q references unknown field %q",
					ErrConfig, scenarioName, stepName, key)
			}
		}
	}
	return nil
}
