package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"resumeforge/internal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJobKeywords decodes and structurally validates a model response
// against the keyword schema. All five category fields must be present and
// be arrays of strings; nothing is coerced or guessed at. Decoded nil
// slices are normalized to empty slices so every field is always usable.
func DecodeJobKeywords(raw []byte) (JobKeywords, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return JobKeywords{}, err
	}

	required := []string{
		"technical_skills",
		"technologies_and_tools",
		"soft_skills",
		"certifications",
		"other_requirements",
	}

	var k JobKeywords
	lists := map[string]*[]string{
		"technical_skills":       &k.TechnicalSkills,
		"technologies_and_tools": &k.TechnologiesAndTools,
		"soft_skills":            &k.SoftSkills,
		"certifications":         &k.Certifications,
		"other_requirements":     &k.OtherRequirements,
	}

	for _, name := range required {
		value, err := decodeStringList(fields, name)
		if err != nil {
			return JobKeywords{}, err
		}
		*lists[name] = value
	}

	return k, nil
}

// DecodeResumeContent decodes and validates a model response against the
// resume content schema: updated_summary plus four bullet-list sections,
// with the declared length bounds.
func DecodeResumeContent(raw []byte) (ResumeContent, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return ResumeContent{}, err
	}

	var rc ResumeContent

	summaryRaw, ok := fields["updated_summary"]
	if !ok || isNull(summaryRaw) {
		return ResumeContent{}, errors.NewSchemaError(errors.ErrCodeSchemaMismatch,
			"Required field 'updated_summary' is missing", nil)
	}
	if err := json.Unmarshal(summaryRaw, &rc.UpdatedSummary); err != nil {
		return ResumeContent{}, errors.NewSchemaError(errors.ErrCodeSchemaMismatch,
			"Field 'updated_summary' must be a string", err)
	}

	lists := map[string]*[]string{
		"liberty_mutual_group":    &rc.LibertyMutualGroup,
		"inovace_technologies":    &rc.InovaceTechnologies,
		"spider_digital_commerce": &rc.SpiderDigitalCommerce,
		"echo_project":            &rc.EchoProject,
	}
	for _, name := range rc.SectionNames() {
		value, err := decodeStringList(fields, name)
		if err != nil {
			return ResumeContent{}, err
		}
		*lists[name] = value
	}

	if err := validate.Struct(rc); err != nil {
		return ResumeContent{}, errors.NewSchemaError(errors.ErrCodeSchemaMismatch,
			"Resume content violates declared section bounds", err)
	}

	return rc, nil
}

// decodeObject unmarshals raw into a field map, failing when the payload is
// not a single JSON object.
func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.NewSchemaError(errors.ErrCodeSchemaMismatch,
			"Response is not a JSON object", err)
	}
	return fields, nil
}

// decodeStringList extracts a required array-of-strings field. A missing or
// null field is an error; an empty array is fine.
func decodeStringList(fields map[string]json.RawMessage, name string) ([]string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil, errors.NewSchemaError(errors.ErrCodeSchemaMismatch,
			fmt.Sprintf("Required field '%s' is missing", name), nil)
	}

	var value []string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errors.NewSchemaError(errors.ErrCodeSchemaMismatch,
			fmt.Sprintf("Field '%s' must be a list of strings", name), err)
	}
	if value == nil {
		value = []string{}
	}
	return value, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
