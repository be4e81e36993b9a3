package models

// Lesson is a single entry in the structured curriculum. QueryTopic is
// the free-text topic string used as the generation prompt seed.
type Lesson struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	QueryTopic  string `json:"queryTopic" yaml:"queryTopic"`
}

// Category groups an ordered sequence of lessons
type Category struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Icon        string   `json:"icon" yaml:"icon"`
	Lessons     []Lesson `json:"lessons" yaml:"lessons"`
}
