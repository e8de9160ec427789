package session

import "github.com/aranyoray/studybot/internal/skill"

// TypeProgress tracks answers for one question type within a session.
type TypeProgress struct {
	Type     skill.QuestionType `json:"type"`
	Attempts int                `json:"attempts"`
	Correct  int                `json:"correct"`
	Accuracy float64            `json:"accuracy"` // Correct / Attempts (computed)
}

// Record adds a new answer result to the progress.
func (tp *TypeProgress) Record(correct bool) {
	tp.Attempts++
	if correct {
		tp.Correct++
	}
	if tp.Attempts > 0 {
		tp.Accuracy = float64(tp.Correct) / float64(tp.Attempts)
	}
}

// typeOrder is the display order of question types.
var typeOrder = []skill.QuestionType{
	skill.TypeRecognition,
	skill.TypeAddition,
	skill.TypeSubtraction,
	skill.TypeSequencing,
}
