package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	Social PromptPair `yaml:"social"`
	Blog   PromptPair `yaml:"blog"`
}

type PromptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Context carries the company, creator and brand details shared by both
// content types.
type Context struct {
	CompanyName        string
	CompanyDescription string
	CreatorName        string
	CreatorBio         string
	BrandValues        string
	ToneOfVoice        string
	Audience           string
	Solutions          string
}

type SocialParams struct {
	Context
	BrandPersonalities string
	LanguageDos        string
	LanguageDonts      string
	AudienceAdaptation string
	OnBrandExamples    string
	OffBrandExamples   string
	NarrativeStyle     string
	KeyMessages        string
	StyleGuide         string
	Samples            []string
	Transcript         string
	Topic              string
}

type BlogParams struct {
	Context
	StyleGuide string
	Samples    []string
	Transcript string
	Topic      string
}

// Load reads prompts.yaml from the working directory and falls back to the
// built-in prompts when the file does not exist.
func Load() (*Prompts, error) {
	return LoadFrom(defaultPromptsPath)
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parse(data)
}

func Default() (*Prompts, error) {
	return parse(defaultPrompts)
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Prompts) validate() error {
	templates := map[string]string{
		"social.system": p.Social.System,
		"social.user":   p.Social.User,
		"blog.system":   p.Blog.System,
		"blog.user":     p.Blog.User,
	}
	for name, tmpl := range templates {
		if tmpl == "" {
			return fmt.Errorf("prompt %s is empty", name)
		}
		if _, err := template.New(name).Parse(tmpl); err != nil {
			return fmt.Errorf("prompt %s: %w", name, err)
		}
	}
	return nil
}

func (p *Prompts) RenderSocialSystem(params SocialParams) (string, error) {
	return render(p.Social.System, params)
}

func (p *Prompts) RenderSocialUser(params SocialParams) (string, error) {
	return render(p.Social.User, params)
}

func (p *Prompts) RenderBlogSystem(params BlogParams) (string, error) {
	return render(p.Blog.System, params)
}

func (p *Prompts) RenderBlogUser(params BlogParams) (string, error) {
	return render(p.Blog.User, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
