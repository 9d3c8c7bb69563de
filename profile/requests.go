package profile

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	devconnect "github.com/goliatone/go-devconnect"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// UpsertRequest is the create-or-update payload. Empty fields keep the
// stored value; social links are replaced as a whole.
type UpsertRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Bio            string `json:"bio"`
	Status         string `json:"status"`
	GithubUsername string `json:"githubusername"`
	// Skills is comma separated
	Skills    string `json:"skills"`
	Youtube   string `json:"youtube"`
	Twitter   string `json:"twitter"`
	Facebook  string `json:"facebook"`
	Linkedin  string `json:"linkedin"`
	Instagram string `json:"instagram"`
}

func (r UpsertRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.By(devconnect.NotBlank("Status is required."))),
		validation.Field(&r.Skills, validation.By(devconnect.NotBlank("At least one skill is required."))),
	)
	return devconnect.NewValidationErrors(err, "status", "skills")
}

// SkillList splits Skills on commas, trimming blanks
func (r UpsertRequest) SkillList() []string {
	out := []string{}
	for _, s := range strings.Split(r.Skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type ExperienceRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	From        string `json:"from"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

func (r ExperienceRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.By(devconnect.NotBlank("Title is required."))),
		validation.Field(&r.Company, validation.By(devconnect.NotBlank("Company is required."))),
		validation.Field(&r.From, validation.By(devconnect.NotBlank("From date is required.")), validation.By(isDate("From date is invalid."))),
		validation.Field(&r.To, validation.By(isDate("To date is invalid."))),
	)
	return devconnect.NewValidationErrors(err, "title", "company", "from", "to")
}

type EducationRequest struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldofstudy"`
	From         string `json:"from"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

func (r EducationRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.School, validation.By(devconnect.NotBlank("School is required."))),
		validation.Field(&r.Degree, validation.By(devconnect.NotBlank("Degree is required."))),
		validation.Field(&r.FieldOfStudy, validation.By(devconnect.NotBlank("Field of study is required."))),
		validation.Field(&r.From, validation.By(devconnect.NotBlank("From date is required.")), validation.By(isDate("From date is invalid."))),
		validation.Field(&r.To, validation.By(isDate("To date is invalid."))),
	)
	return devconnect.NewValidationErrors(err, "school", "degree", "fieldofstudy", "from", "to")
}

func isDate(message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, ok := parseDate(s); !ok {
			return errors.New(message)
		}
		return nil
	}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func optionalDate(s string) *time.Time {
	t, ok := parseDate(s)
	if !ok {
		return nil
	}
	return &t
}
