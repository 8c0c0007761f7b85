package config

// JWTConfig signs and checks the bearer tokens accepted by POST /runs. Callers
// are machines (a scheduler, an operator shell) identified only by subject.
type JWTConfig struct {
	Secret          string `validate:"required,min=32"`
	ExpirationHours int    `validate:"gte=1,lte=8760"`
}

// TriggerAuth returns the trigger token settings. They are checked here rather
// than in Validate because only serve and token need them.
func (c *Config) TriggerAuth() (*JWTConfig, error) {
	jc := &JWTConfig{Secret: c.JWTSecret, ExpirationHours: c.JWTExpirationHours}
	if err := validate.Struct(jc); err != nil {
		return nil, fieldError(err, "JWT")
	}
	return jc, nil
}
