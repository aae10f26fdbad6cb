// Package configutil contains helpers for Viper based configuration.
package configutil

// SetDefault abstracts setting Viper defaults.
// *viper.Viper implements it.
type SetDefault interface {
	SetDefault(key string, value any)
}

// SetDefaultFunc implements SetDefault, e.g. to add a key prefix
// to every default of a nested config.
type SetDefaultFunc func(key string, value any)

// SetDefault implements SetDefault.
func (f SetDefaultFunc) SetDefault(key string, value any) {
	if f == nil {
		return
	}
	f(key, value)
}
