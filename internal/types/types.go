package types

// ExtractKeywordsInput represents the input for analyzing a job description
type ExtractKeywordsInput struct {
	JobDescription string `json:"jobDescription"`
}

// JobKeywords represents the structured keywords extracted from a job description.
// All five categories are always present after a successful decode, even when empty.
type JobKeywords struct {
	TechnicalSkills      []string `json:"technical_skills"`
	TechnologiesAndTools []string `json:"technologies_and_tools"`
	SoftSkills           []string `json:"soft_skills"`
	Certifications       []string `json:"certifications"`
	OtherRequirements    []string `json:"other_requirements"`
}

// RewriteResumeInput represents the input for rewriting a resume around keywords.
// Keywords may be empty; the resume then passes through largely unchanged.
type RewriteResumeInput struct {
	Keywords       []string `json:"keywords"`
	OriginalResume string   `json:"originalResume"`
}

// Length and count bounds for rewritten resume sections. These are declared
// both in the response schema sent to the model and in the validation tags
// on ResumeContent.
const (
	SummaryMaxChars          = 450
	ExperienceBulletMaxChars = 140
	ExperienceBulletCount    = 3
	InternshipBulletMin      = 1
	InternshipBulletMax      = 2
	ProjectBulletCount       = 2
)

// ResumeContent represents the rewritten resume sections proposed by the model.
// The no-invented-facts rule is an instruction to the model, not something
// this type can verify; validation here is structural only.
type ResumeContent struct {
	UpdatedSummary        string   `json:"updated_summary" validate:"required,max=450"`
	LibertyMutualGroup    []string `json:"liberty_mutual_group" validate:"len=3,dive,max=140"`
	InovaceTechnologies   []string `json:"inovace_technologies" validate:"len=3,dive,max=140"`
	SpiderDigitalCommerce []string `json:"spider_digital_commerce" validate:"min=1,max=2,dive,max=140"`
	EchoProject           []string `json:"echo_project" validate:"len=2,dive,max=140"`
}

// SectionNames returns the bullet-list section keys in render order.
func (ResumeContent) SectionNames() []string {
	return []string{
		"liberty_mutual_group",
		"inovace_technologies",
		"spider_digital_commerce",
		"echo_project",
	}
}

// Sections returns the bullet lists keyed by section name.
func (rc ResumeContent) Sections() map[string][]string {
	return map[string][]string{
		"liberty_mutual_group":    rc.LibertyMutualGroup,
		"inovace_technologies":    rc.InovaceTechnologies,
		"spider_digital_commerce": rc.SpiderDigitalCommerce,
		"echo_project":            rc.EchoProject,
	}
}

// TotalKeywords returns the sum of list lengths across all five categories.
func (k JobKeywords) TotalKeywords() int {
	return len(k.TechnicalSkills) +
		len(k.TechnologiesAndTools) +
		len(k.SoftSkills) +
		len(k.Certifications) +
		len(k.OtherRequirements)
}

// FlattenMode selects which keyword categories participate in flattening.
type FlattenMode string

const (
	// FlattenCore concatenates technical skills, technologies/tools and
	// soft skills, in that order. This is the default contract.
	FlattenCore FlattenMode = "core"
	// FlattenAll additionally appends certifications and other requirements.
	FlattenAll FlattenMode = "all"
)

// Flatten concatenates the selected keyword categories into a single ordered
// list for rewrite input. Order within each category is preserved.
func (k JobKeywords) Flatten(mode FlattenMode) []string {
	out := make([]string, 0, k.TotalKeywords())
	out = append(out, k.TechnicalSkills...)
	out = append(out, k.TechnologiesAndTools...)
	out = append(out, k.SoftSkills...)
	if mode == FlattenAll {
		out = append(out, k.Certifications...)
		out = append(out, k.OtherRequirements...)
	}
	return out
}
