package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/speech"
)

type voiceCatalog struct {
	Voices []speech.Voice `json:"voices"`
}

// LoadVoices reads a catalog of hosted voices:
//
//	voices:
//	  - name: Anna
//	    locale: de-DE
//	    high_quality: true
func LoadVoices(path string) ([]speech.Voice, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice catalog: %w", err)
	}
	if format == FormatYAML {
		if data, err = yamlToJSON(data); err != nil {
			return nil, fmt.Errorf("%w: %s: yaml: %v", domain.ErrInvalidFormat, path, err)
		}
	}

	var catalog voiceCatalog
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidFormat, path, err)
	}

	for i, v := range catalog.Voices {
		if v.Name == "" || v.Locale == "" {
			return nil, fmt.Errorf("%w: %s: voice %d needs a name and a locale", domain.ErrInvalidFormat, path, i)
		}
	}
	return catalog.Voices, nil
}
