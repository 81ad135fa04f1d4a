package config

import "fmt"

// Validator runs dependency-ordered validation over a loaded Config, in the
// same style as the teacher's pkg/config/validator.go: each stage is
// self-contained and wrapped with its own error context.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given config.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every validation stage in dependency order.
func (v *Validator) ValidateAll() error {
	if err := v.validateTenants(); err != nil {
		return fmt.Errorf("tenant validation: %w", err)
	}
	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("llm provider validation: %w", err)
	}
	if err := v.validateRetrieval(); err != nil {
		return fmt.Errorf("retrieval validation: %w", err)
	}
	if err := v.validateCache(); err != nil {
		return fmt.Errorf("cache validation: %w", err)
	}
	if err := v.validatePolicy(); err != nil {
		return fmt.Errorf("policy validation: %w", err)
	}
	if err := v.validateFeedback(); err != nil {
		return fmt.Errorf("feedback validation: %w", err)
	}
	if err := v.validateAlerts(); err != nil {
		return fmt.Errorf("alerts validation: %w", err)
	}
	return nil
}

func (v *Validator) validateTenants() error {
	seenSites := make(map[string]bool)
	for id, t := range v.cfg.TenantRegistry.GetAll() {
		if t.ID == "" {
			return NewValidationError("tenant", id, "id", ErrMissingRequiredField)
		}
		for _, s := range t.Sites {
			if s.ID == "" {
				return NewValidationError("site", id, "id", ErrMissingRequiredField)
			}
			key := t.ID + "/" + s.ID
			if seenSites[key] {
				return NewValidationError("site", key, "id", fmt.Errorf("%w: duplicate site", ErrInvalidValue))
			}
			seenSites[key] = true
		}
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	for name, p := range v.cfg.LLMProviderRegistry.GetAll() {
		if !p.Type.IsValid() {
			return NewValidationError("llm_provider", name, "type", ErrInvalidValue)
		}
		if p.Model == "" {
			return NewValidationError("llm_provider", name, "model", ErrMissingRequiredField)
		}
		if p.MaxRetries < 0 {
			return NewValidationError("llm_provider", name, "max_retries", ErrInvalidValue)
		}
	}
	return nil
}

func (v *Validator) validateRetrieval() error {
	r := v.cfg.Retrieval
	if r == nil {
		return nil
	}
	if !r.DefaultStrategy.IsValid() {
		return NewValidationError("retrieval", "default", "default_strategy", ErrInvalidValue)
	}
	if r.TrgmWeight < 0 || r.QdrantWeight < 0 {
		return NewValidationError("retrieval", "default", "weights", ErrInvalidValue)
	}
	if r.TopK <= 0 {
		return NewValidationError("retrieval", "default", "top_k", ErrInvalidValue)
	}
	if r.MinScore < 0 || r.MinScore > 1 {
		return NewValidationError("retrieval", "default", "min_score", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateCache() error {
	c := v.cfg.Cache
	if c == nil {
		return nil
	}
	if c.SessionMaxMessages <= 0 {
		return NewValidationError("cache", "session", "session_max_messages", ErrInvalidValue)
	}
	if c.SessionMaxChars <= 0 {
		return NewValidationError("cache", "session", "session_max_chars", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validatePolicy() error {
	p := v.cfg.Policy
	if p == nil {
		return nil
	}
	if p.DefaultName == "" {
		return NewValidationError("policy", "default", "default_name", ErrMissingRequiredField)
	}
	if p.RefreshInterval <= 0 {
		return NewValidationError("policy", "default", "refresh_interval", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateFeedback() error {
	f := v.cfg.Feedback
	if f == nil {
		return nil
	}
	if f.DefaultSLAHours <= 0 {
		return NewValidationError("feedback", "default", "default_sla_hours", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateAlerts() error {
	a := v.cfg.Alerts
	if a == nil {
		return nil
	}
	if a.EvalInterval <= 0 {
		return NewValidationError("alerts", "default", "eval_interval", ErrInvalidValue)
	}
	return nil
}
