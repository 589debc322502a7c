package providers

// ProviderError carries an adapter-internal failure up to the adapter boundary,
// where it is logged and turned into an empty result
type ProviderError struct {
	Provider string
	Stage    string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Stage + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Stage
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider, stage string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Stage:    stage,
		Err:      err,
	}
}
