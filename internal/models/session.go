package models

import (
	"errors"
	"fmt"
)

// Difficulty is the requested level for a practice session
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Valid reports whether d is one of the three supported levels
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Sentence is a single practice item within a session
type Sentence struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IPA         string `json:"ipa"`
	Translation string `json:"translation"`
	Note        string `json:"note"`
}

// Complete reports whether every content field of the sentence is present.
// The id is excluded: a missing id is repairable, missing content is not.
func (s Sentence) Complete() bool {
	return s.Text != "" && s.IPA != "" && s.Translation != "" && s.Note != ""
}

// PracticeSession is one generated practice run. It is created once per
// generation call and never mutated afterwards; starting a new session
// replaces it wholesale.
type PracticeSession struct {
	Topic      string     `json:"topic"`
	Scenario   string     `json:"scenario"`
	Difficulty Difficulty `json:"difficulty"`
	Sentences  []Sentence `json:"sentences"`
}

// Validate checks the structural invariants of a generated session
func (p *PracticeSession) Validate() error {
	if len(p.Sentences) == 0 {
		return errors.New("missing or empty sentences array")
	}
	for i, s := range p.Sentences {
		if !s.Complete() {
			return fmt.Errorf("sentence %d missing required fields", i+1)
		}
	}
	return nil
}
