package testsupport

import (
	"encoding/json"
	"os"
	"testing"
)

func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LoadGolden decodes the JSON file at path into v.
func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// MustLoadJSON is LoadGolden that fails the test on error.
func MustLoadJSON(t testing.TB, path string, v any) {
	t.Helper()
	if err := LoadGolden(path, v); err != nil {
		t.Fatalf("load fixture %s: %v", path, err)
	}
}
