package app

import (
	"fmt"

	"postcraft/internal/llm"
	"postcraft/pkg/prompts"
)

func promptContext(f Fields) prompts.Context {
	return prompts.Context{
		CompanyName:        f.Get(FieldCompanyName),
		CompanyDescription: f.Get(FieldCompanyDescription),
		CreatorName:        f.Get(FieldCreatorName),
		CreatorBio:         f.Get(FieldCreatorBio),
		BrandValues:        f.Get(FieldBrandValues),
		ToneOfVoice:        f.Get(FieldToneOfVoice),
		Audience:           f.Get(FieldAudience),
		Solutions:          f.Get(FieldSolutions),
	}
}

func socialMessages(p *prompts.Prompts, f Fields) ([]llm.Message, error) {
	params := prompts.SocialParams{
		Context:            promptContext(f),
		BrandPersonalities: f.Get(FieldBrandPersonalities),
		LanguageDos:        f.Get(FieldLanguageDos),
		LanguageDonts:      f.Get(FieldLanguageDonts),
		AudienceAdaptation: f.Get(FieldAudienceAdaptation),
		OnBrandExamples:    f.Get(FieldOnBrandExamples),
		OffBrandExamples:   f.Get(FieldOffBrandExamples),
		NarrativeStyle:     f.Get(FieldNarrativeStyle),
		KeyMessages:        f.Get(FieldKeyMessages),
		StyleGuide:         f.Get(FieldSocialStyleGuide),
		Samples:            f.samples(socialSampleFormat),
		Transcript:         f.Get(FieldTranscript),
		Topic:              f.Get(FieldTopic),
	}

	system, err := p.RenderSocialSystem(params)
	if err != nil {
		return nil, fmt.Errorf("render social system prompt: %w", err)
	}
	user, err := p.RenderSocialUser(params)
	if err != nil {
		return nil, fmt.Errorf("render social user prompt: %w", err)
	}
	return pair(system, user), nil
}

func blogMessages(p *prompts.Prompts, f Fields) ([]llm.Message, error) {
	params := prompts.BlogParams{
		Context:    promptContext(f),
		StyleGuide: f.Get(FieldLongFormStyleGuide),
		Samples:    f.samples(longFormSampleFormat),
		Transcript: f.Get(FieldTranscript),
		Topic:      f.Get(FieldTopic),
	}

	system, err := p.RenderBlogSystem(params)
	if err != nil {
		return nil, fmt.Errorf("render blog system prompt: %w", err)
	}
	user, err := p.RenderBlogUser(params)
	if err != nil {
		return nil, fmt.Errorf("render blog user prompt: %w", err)
	}
	return pair(system, user), nil
}

func pair(system, user string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}
}
