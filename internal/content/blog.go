package content

// BlogPost is an SEO long-form article with frontmatter metadata.
type BlogPost struct {
	Title       string   `json:"title" validate:"required,max=120" jsonschema:"maxLength=120" jsonschema_description:"Catchy SEO title in title case, 120 characters max, containing the primary keyword."`
	ContentBody string   `json:"contentBody" validate:"min=2800,max=4000,frontmatter,heading_outline" jsonschema:"minLength=2800,maxLength=4000" jsonschema_description:"Markdown article. Starts with a frontmatter block between --- lines holding Focus Keyword, Meta Title (60 characters max), Meta Description (160 characters max) and URL. Then one H1 headline, at least three H2 sections, H3 where useful, 1-2 bulleted lists and a concluding summary section."`
	Hashtags    []string `json:"hashtags" validate:"min=3,max=5,dive,required" jsonschema:"minItems=3,maxItems=5" jsonschema_description:"3-5 hashtags for social sharing mixing industry topics and specific terms."`
}

func (*BlogPost) SchemaName() string { return "blog_post" }

func (*BlogPost) SchemaDescription() string {
	return "SEO-optimized blog post generated from a call transcript and topic"
}

func (p *BlogPost) Validate() error {
	return check(p.SchemaName(), p)
}
