package content

// SocialPost is a short-form post built from a call transcript.
type SocialPost struct {
	Title    string   `json:"title" validate:"required,max=70" jsonschema:"maxLength=70" jsonschema_description:"Concise title in sentence case, 70 characters max. Capitalize only the first word, proper nouns and acronyms."`
	Body     string   `json:"body" validate:"min=500,max=2100,social_structure" jsonschema:"minLength=500,maxLength=2100" jsonschema_description:"100-350 words. A hook line under 150 characters, then short paragraphs under 200 characters each, then a strong closing line or question under 200 characters. Separate every part with a blank line."`
	Hashtags []string `json:"hashtags" validate:"len=3,dive,required" jsonschema:"minItems=3,maxItems=3" jsonschema_description:"Exactly 3 hashtags in this order: a broad subject, a specific term from the transcript, a custom blended term."`
}

func (*SocialPost) SchemaName() string { return "social_post" }

func (*SocialPost) SchemaDescription() string {
	return "Social media post generated from a call transcript and topic"
}

func (p *SocialPost) Validate() error {
	return check(p.SchemaName(), p)
}
