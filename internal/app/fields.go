package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	FieldTranscript = "2.AI Transcript Rough"
	FieldTopic      = "12.Topic Name"

	FieldCompanyName        = "6.Name"
	FieldCompanyDescription = "6.Company Description"
	FieldCreatorName        = "11.Full Name"
	FieldCreatorBio         = "11.Bio"

	FieldBrandValues        = "7.Brand Values"
	FieldBrandPersonalities = "7.Brand Personalities"
	FieldToneOfVoice        = "7.Tone of Voice Principles"
	FieldLanguageDos        = "7.Language Dos"
	FieldLanguageDonts      = "7.Language Donts"
	FieldAudienceAdaptation = "7.Audience Adaptations"
	FieldOnBrandExamples    = "7.On Brand Examples"
	FieldOffBrandExamples   = "7.Off Brand (Bad) Examples"
	FieldNarrativeStyle     = "7.Narrative and Storytelling Style"
	FieldKeyMessages        = "7.Key Messages"
	FieldSocialStyleGuide   = "7.Social Post Writing Style Guide"
	FieldLongFormStyleGuide = "7.Long Form Writing Style Guide"

	FieldAudience  = "14.array"
	FieldSolutions = "13.array"

	socialSampleFormat   = "11.Social Post Sample %d"
	longFormSampleFormat = "11.Long Form Text Sample %d"
	sampleCount          = 3
)

// RequiredFields must be present for every content type.
var RequiredFields = []string{FieldTranscript, FieldTopic}

// Fields is the flat key/value form submitted by the client. Absent keys
// read as the empty string.
type Fields map[string]string

func (f Fields) Get(key string) string {
	return f[key]
}

func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f Fields) samples(format string) []string {
	samples := make([]string, sampleCount)
	for i := range samples {
		samples[i] = f.Get(fmt.Sprintf(format, i+1))
	}
	return samples
}

// ParseFields decodes a JSON object into Fields. String values are taken
// as-is; any other value is kept as its compact JSON text.
func ParseFields(data []byte) (Fields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode fields: expected a JSON object")
	}

	fields := make(Fields, len(raw))
	for key, value := range raw {
		fields[key] = fieldText(value)
	}
	return fields, nil
}

func fieldText(value json.RawMessage) string {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return strings.TrimSpace(string(trimmed))
	}
	return buf.String()
}
