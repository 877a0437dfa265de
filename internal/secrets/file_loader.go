package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileLoader returns a Loader that reads one "<name>.key" file per name
// from dir, as written by "overseer admin set-key". Missing files are
// silently omitted; any other read failure aborts the load.
func FileLoader(dir string, names ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(names))
		for _, name := range names {
			data, err := os.ReadFile(filepath.Join(dir, name+".key"))
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("read key file for %s: %w", name, err)
			}
			if v := strings.TrimSpace(string(data)); v != "" {
				vals[name] = v
			}
		}
		return vals, nil
	}
}
