// Package curriculum holds the static course catalog. The data is
// embedded at build time and never mutated at runtime.
package curriculum

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"pronounce/internal/models"
)

//go:embed curriculum.yaml
var curriculumYAML []byte

var categories []models.Category

func init() {
	if err := yaml.Unmarshal(curriculumYAML, &categories); err != nil {
		panic(fmt.Sprintf("curriculum: bad embedded catalog: %v", err))
	}
}

// Categories returns the full catalog in display order
func Categories() []models.Category {
	return categories
}

// FindLesson looks up a lesson by id
func FindLesson(id string) (models.Lesson, bool) {
	for _, cat := range categories {
		for _, lesson := range cat.Lessons {
			if lesson.ID == id {
				return lesson, true
			}
		}
	}
	return models.Lesson{}, false
}

// NextLesson returns the lesson immediately after the given one within
// the same category. Lessons do not chain across categories: the last
// lesson of a category has no successor.
func NextLesson(id string) (models.Lesson, bool) {
	for _, cat := range categories {
		for i, lesson := range cat.Lessons {
			if lesson.ID == id {
				if i < len(cat.Lessons)-1 {
					return cat.Lessons[i+1], true
				}
				return models.Lesson{}, false
			}
		}
	}
	return models.Lesson{}, false
}
