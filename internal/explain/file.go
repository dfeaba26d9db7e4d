package explain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadImportances reads an importance vector from a YAML or JSON file
// holding a flat list of numbers.
func LoadImportances(path string) (Importances, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading importances: %w", err)
	}

	var values []float64
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing importances %s: %w", path, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("importances file %s is empty", path)
	}

	return Importances(values), nil
}
