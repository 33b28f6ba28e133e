package domain

import "time"

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

type Course struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	Category        string    `json:"category" yaml:"category"`
	Level           Level     `json:"level" yaml:"level"`
	Instructor      string    `json:"instructor" yaml:"instructor"`
	Rating          float64   `json:"rating" yaml:"rating"`
	Enrolled        int       `json:"enrolled" yaml:"enrolled"`
	DurationMinutes int       `json:"durationMinutes" yaml:"durationMinutes"`
	Tags            []string  `json:"tags" yaml:"tags"`
	Modules         []Module  `json:"modules" yaml:"modules"`
	PublishedAt     time.Time `json:"publishedAt" yaml:"publishedAt"`
}

type Module struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Lessons []Lesson `json:"lessons" yaml:"lessons"`
}

type Lesson struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	DurationMinutes int    `json:"durationMinutes" yaml:"durationMinutes"`
}

func (c *Course) TotalLessons() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}
