// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/subosito/gotenv"
)

// LoadDotenv reads the dotenv file at path. A missing file yields an empty
// map; content gotenv cannot parse is a *ConfigError.
func LoadDotenv(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &ConfigError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	vars, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: fmt.Errorf("malformed dotenv file: %w", err)}
	}
	return vars, nil
}
