package domain

type StepKind string

const (
	StepArticle StepKind = "article"
	StepVideo   StepKind = "video"
	StepMixed   StepKind = "mixed"
)

func (k StepKind) Valid() bool {
	switch k {
	case StepArticle, StepVideo, StepMixed:
		return true
	}
	return false
}

type Step struct {
	Index           int      `json:"index" yaml:"index"`
	Title           string   `json:"title" yaml:"title"`
	Kind            StepKind `json:"kind" yaml:"kind"`
	ContentID       string   `json:"contentId,omitempty" yaml:"contentId"`
	Body            string   `json:"body,omitempty" yaml:"body"`
	DurationMinutes int      `json:"durationMinutes" yaml:"durationMinutes"`
}
