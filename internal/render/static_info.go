package render

import "strings"

// StaticInfo holds the resume facts that never change during optimization:
// contact details, employment dates, locations, tech stacks, education and
// the skills section. Values not found in the canonical resume keep their
// defaults.
type StaticInfo struct {
	Name        string
	Email       string
	Phone       string
	Location    string
	LinkedInURL string
	GitHubURL   string
	Summary     string

	LibertyMutualDates     string
	LibertyMutualLocation  string
	LibertyMutualTechStack string

	InovaceDates     string
	InovaceLocation  string
	InovaceTechStack string

	SpiderDates     string
	SpiderLocation  string
	SpiderTechStack string

	GSUDates    string
	GSULocation string
	NSUDates    string
	NSULocation string

	SkillsLanguages  string
	SkillsFrameworks string
	SkillsDatabases  string
}

// DefaultStaticInfo returns the fallback values used when the canonical
// resume is missing or a marker cannot be found in it.
func DefaultStaticInfo() StaticInfo {
	return StaticInfo{
		Name:        "Naimul Islam",
		Email:       "rifat.naimul@gmail.com",
		Phone:       "(669) 273-5676",
		Location:    "Atlanta, GA",
		LinkedInURL: "#",
		GitHubURL:   "#",
		Summary:     "Software Developer with 4 years of experience...",

		LibertyMutualDates:     "Oct 2022 – Dec 2024",
		LibertyMutualLocation:  "Bangkok, Thailand",
		LibertyMutualTechStack: "Java, Spring Boot, Angular, Asp.Net, Jenkins, MSSQL, PostgreSQL",

		InovaceDates:     "Feb 2020 – Aug 2022",
		InovaceLocation:  "Dhaka, Bangladesh",
		InovaceTechStack: "Flutter, Laravel, Spring Boot, MySQL, PostgreSQL, Redis, Vue.js, AngularJs",

		SpiderDates:     "Jun 2019 – Aug 2019",
		SpiderLocation:  "Dhaka, Bangladesh",
		SpiderTechStack: "Android, Java, Firebase, RESTful APIs",

		GSUDates:    "Expected Dec 2025",
		GSULocation: "Atlanta, GA",
		NSUDates:    "2015-2019",
		NSULocation: "Dhaka, Bangladesh",

		SkillsLanguages:  "C/C++, Java, Python, JavaScript, PHP, Dart, Bash",
		SkillsFrameworks: "Spring Boot, Django, Flask, Angular, Vue.js, Flutter, Docker, Jenkins, Git, Linux, CI/CD, RESTful APIs, Android Studio, Firebase, Postman, ASP.NET, JUnit, Mockito, AWS",
		SkillsDatabases:  "MySQL, PostgreSQL, Oracle, MSSQL, Redis, MongoDB",
	}
}

// ExtractStaticInfo scans the canonical markdown resume for known markers:
// a "# " heading for the name, a "❖"-separated contact line, and a bolded
// summary paragraph. Anything it cannot find stays at the default.
func ExtractStaticInfo(content string) StaticInfo {
	info := DefaultStaticInfo()
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "# ") && len(trimmed) > 2:
			info.Name = strings.TrimSpace(line[2:])

		case strings.Contains(line, "❖") && strings.Contains(line, "@"):
			// Contact line: email ❖ phone ❖ location ❖ LinkedIn ❖ GitHub
			contactLine := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			parts := strings.Split(contactLine, "❖")
			if len(parts) >= 3 {
				info.Email = strings.TrimSpace(parts[0])
				info.Phone = strings.TrimSpace(parts[1])
				info.Location = strings.TrimSpace(parts[2])
			}

		case strings.HasPrefix(trimmed, "**Software Developer") && strings.Contains(line, "experience"):
			var summaryLines []string
			for j := i; j < len(lines) && j < i+10; j++ {
				if strings.HasPrefix(lines[j], "WORK EXPERIENCE") {
					break
				}
				if strings.TrimSpace(lines[j]) != "" {
					summaryLines = append(summaryLines, strings.TrimSpace(lines[j]))
				}
			}
			info.Summary = strings.Join(summaryLines, " ")
			return info
		}
	}

	return info
}
