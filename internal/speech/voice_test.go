package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectVoice(t *testing.T) {
	t.Parallel()

	var (
		neuralUS = Voice{Name: "Neural US", Locale: "en-US", Family: "Neural", HighQuality: true}
		neuralGB = Voice{Name: "Neural GB", Locale: "en-GB", Family: "Neural"}
		basicUS  = Voice{Name: "Basic US", Locale: "en_US", Family: "Basic"}
		basicAU  = Voice{Name: "Basic AU", Locale: "en-AU", Family: "Basic"}
		basicES  = Voice{Name: "Basic ES", Locale: "es-ES", Family: "Basic"}
		basicMX  = Voice{Name: "Basic MX", Locale: "es-Latn-MX", Family: "Basic"}
		hostedDE = Voice{Name: "Hosted DE", Locale: "de-DE"}
	)

	tests := []struct {
		name     string
		platform []Voice
		hosted   []Voice
		locale   string
		want     string
		found    bool
	}{
		{"high quality exact", []Voice{basicUS, neuralUS}, nil, "en-US", "Neural US", true},
		{"high quality family by language", []Voice{basicAU, neuralGB, neuralUS}, nil, "en-AU", "Neural GB", true},
		{"any exact locale", []Voice{basicAU, basicUS}, nil, "en-US", "Basic US", true},
		{"language and region", []Voice{basicES, basicMX}, nil, "es-MX", "Basic MX", true},
		{"language only", []Voice{basicES}, nil, "es", "Basic ES", true},
		{"hosted fallback", []Voice{basicES}, []Voice{hostedDE}, "de-AT", "Hosted DE", true},
		{"nothing fits", []Voice{basicES}, nil, "ja-JP", "", false},
		{"empty locale", []Voice{basicES}, nil, " ", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := SelectVoice(tc.platform, tc.hosted, tc.locale)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got.Name)
		})
	}
}

func TestSelectVoiceMarksHostedLocal(t *testing.T) {
	t.Parallel()

	got, ok := SelectVoice(nil, []Voice{{Name: "Hosted FR", Locale: "fr-FR"}}, "fr")
	assert.True(t, ok)
	assert.True(t, got.Local)
}
