package lineup

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// LoadSeed reads a JSON array of artists from path. Artists without a slug get
// one derived from their name.
func LoadSeed(path string) ([]Artist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var artists []Artist
	if err := json.Unmarshal(data, &artists); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i := range artists {
		if artists[i].Slug == "" {
			artists[i].Slug = Slugify(artists[i].Name)
		}
		if err := artists[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed artist %d: %w", i, err)
		}
	}
	return artists, nil
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
