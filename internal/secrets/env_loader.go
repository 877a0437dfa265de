package secrets

import "os"

// EnvLoader returns a Loader backed by the given environment variables,
// typically the OVERSEER_* API-key variables. Unset or empty variables
// are left out of the vault rather than stored as blanks.
func EnvLoader(names ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(names))
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				vals[name] = v
			}
		}
		return vals, nil
	}
}
