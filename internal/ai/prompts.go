package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ExtractKeywords string
	RewriteResume   string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ExtractKeywords string
	RewriteResume   string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ExtractKeywords: `You are an expert Technical Recruiter and career coach AI. Your task is to meticulously analyze job descriptions and extract key information into a structured JSON format.

Your core principles are:
- Extract only what the job description actually states; never infer requirements that are not there
- Categorize each finding precisely: technical skills, technologies and tools, soft skills, certifications, and other requirements
- Keep each extracted item short and specific`,

	RewriteResume: `You are an AI assistant helping a user tailor their resume for a specific job application. Your primary goal is to adopt the user's persona and writing style to make subtle, authentic-sounding tweaks to their resume.

Your core principles are:
- Adopt the user's voice: rewritten content should sound like the user wrote it, not a machine or a professional resume writer
- Never invent or exaggerate skills, metrics, or experiences; every claim must be traceable to the original resume
- Prioritize authenticity over keyword coverage: omit any keyword that cannot be integrated naturally
- Respect every character and count limit in the output schema`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ExtractKeywords: `Analyze the job description below and extract the key requirements.

**Instructions:**
1. Extract findings into exactly these categories: technical_skills, technologies_and_tools, soft_skills, certifications, other_requirements.
2. Provide the findings for each category as a JSON list of strings.
3. If no information is found for a category, return an empty list for it.
4. The output must be a valid JSON object with all five categories present. Do not include any text outside of the JSON object.

**Example of the required JSON output format:**
{
"technical_skills": ["Python", "SQL", "Data Modeling"],
"technologies_and_tools": ["Tableau", "AWS S3", "Jira"],
"soft_skills": ["Team Communication", "Stakeholder Management"],
"certifications": [],
"other_requirements": ["5+ years of relevant experience", "Bachelor's degree in Computer Science or related field"]
}

**Job Description to Analyze:**
-----
%s
-----`,

	RewriteResume: `Rewrite parts of the resume below so it aligns with the target keywords, following all the rules.

**Core Instructions:**

1. **Make Targeted, Subtle Changes:** Do not rewrite the entire resume. Make small, targeted changes that align the user's experience with the target keywords. The changes should not be obvious to a casual reader.

2. **Prioritize Authenticity Over Keywords:** It is more important for the resume to sound authentic than for it to include every keyword. If a keyword cannot be integrated naturally, omit it.

3. **Focus on Action-Metric-Result:** When rewriting bullet points, start with what the user did (Action), quantify it where the original does (Metric), and state the positive outcome (Result).

**Output Requirements:**
- updated_summary: one paragraph, at most 450 characters
- liberty_mutual_group: 3 bullet points, at most 140 characters each
- inovace_technologies: 3 bullet points, at most 140 characters each
- spider_digital_commerce: 1-2 bullet points, at most 140 characters each
- echo_project: 2 bullet points, at most 140 characters each

**1. Target Keywords to Integrate:**
%s

**2. Original Resume Text:**
-----
%s
-----`,
}

// GetDefaultPromptConfig returns the default prompt content
func GetDefaultPromptConfig() (SystemPrompts, UserPrompts) {
	return DefaultSystemPrompts, DefaultUserPrompts
}
