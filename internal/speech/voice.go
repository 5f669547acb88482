// Package speech is the speech-synthesis boundary used by the audio engines:
// the voice model, voice selection, and a headless paced synthesizer.
package speech

import (
	"strings"

	"golang.org/x/text/language"
)

// Voice describes a synthesis voice.
type Voice struct {
	Name        string `json:"name"`
	Locale      string `json:"locale"`
	Family      string `json:"family,omitempty"`
	HighQuality bool   `json:"high_quality,omitempty"`
	// Local marks voices hosted by the application rather than the platform.
	Local bool `json:"local,omitempty"`
}

type localeKey struct {
	raw    string
	base   string
	region string
}

func parseLocale(locale string) (localeKey, bool) {
	raw := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if raw == "" {
		return localeKey{}, false
	}

	tag, err := language.Parse(raw)
	if err != nil {
		// Fall back to the leading subtag so odd platform names still match by language.
		return localeKey{raw: raw, base: strings.SplitN(raw, "-", 2)[0]}, true
	}

	key := localeKey{raw: raw}
	if base, conf := tag.Base(); conf != language.No {
		key.base = base.String()
	}
	// Only an explicit region counts; inferred regions would make "en" match "en-US".
	if region, conf := tag.Region(); conf == language.Exact {
		key.region = region.String()
	}
	return key, true
}

func (k localeKey) exact(other localeKey) bool {
	return k.raw == other.raw
}

func (k localeKey) sameRegion(other localeKey) bool {
	return k.base != "" && k.base == other.base && k.region != "" && k.region == other.region
}

func (k localeKey) sameLanguage(other localeKey) bool {
	return k.base != "" && k.base == other.base
}

// SelectVoice picks a voice for locale from the platform voices, falling back
// to the application-hosted catalog. The preference order is:
//
//  1. a high-quality voice with an exact locale match
//  2. a voice from a high-quality family whose language matches
//  3. any voice with an exact locale match
//  4. any voice matching language and region
//  5. any voice matching the language alone
//  6. a hosted voice for the language
//
// It reports false when no voice fits.
func SelectVoice(platform, hosted []Voice, locale string) (Voice, bool) {
	want, ok := parseLocale(locale)
	if !ok {
		return Voice{}, false
	}

	keys := make([]localeKey, len(platform))
	families := make(map[string]struct{})
	for i, v := range platform {
		keys[i], _ = parseLocale(v.Locale)
		if v.HighQuality && v.Family != "" {
			families[v.Family] = struct{}{}
		}
	}

	find := func(match func(i int) bool) (Voice, bool) {
		for i, v := range platform {
			if match(i) {
				return v, true
			}
		}
		return Voice{}, false
	}

	steps := []func(i int) bool{
		func(i int) bool { return platform[i].HighQuality && keys[i].exact(want) },
		func(i int) bool {
			_, hq := families[platform[i].Family]
			return hq && keys[i].sameLanguage(want)
		},
		func(i int) bool { return keys[i].exact(want) },
		func(i int) bool { return keys[i].sameRegion(want) },
		func(i int) bool { return keys[i].sameLanguage(want) },
	}
	for _, step := range steps {
		if v, ok := find(step); ok {
			return v, true
		}
	}

	for _, v := range hosted {
		key, ok := parseLocale(v.Locale)
		if ok && key.sameLanguage(want) {
			v.Local = true
			return v, true
		}
	}

	return Voice{}, false
}
