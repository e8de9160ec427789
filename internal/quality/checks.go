package quality

// CheckType distinguishes plain trivia checks from the catch instruction.
type CheckType string

const (
	CheckSimple CheckType = "simple"
	CheckCatch  CheckType = "catch"
)

// Check is an attention check to present to the learner.
type Check struct {
	ID       string    `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"-"`
	Options  []string  `json:"options,omitempty"`
	Type     CheckType `json:"type"`
}

var checkPool = []Check{
	{ID: "sum", Question: "What is 2 + 2?", Answer: "4", Options: []string{"3", "4", "5"}, Type: CheckSimple},
	{ID: "sky", Question: "What color is the sky on a clear day?", Answer: "blue", Options: []string{"green", "blue", "red"}, Type: CheckSimple},
	{ID: "cat", Question: "How many legs does a cat have?", Answer: "4", Options: []string{"2", "4", "6"}, Type: CheckSimple},
	{ID: "yes", Question: "Type the word 'yes'.", Answer: "yes", Type: CheckSimple},
}

var catchCheck = Check{
	ID:       "catch",
	Question: "Please select 'I am paying attention' to continue.",
	Answer:   "I am paying attention",
	Options:  []string{"I am not sure", "I am paying attention", "Skip"},
	Type:     CheckCatch,
}

// Pool returns the available checks, catch question last.
func Pool() []Check {
	out := make([]Check, 0, len(checkPool)+1)
	out = append(out, checkPool...)
	return append(out, catchCheck)
}

// CheckByID looks up a pool check by its ID.
func CheckByID(id string) (Check, bool) {
	for _, c := range Pool() {
		if c.ID == id {
			return c, true
		}
	}
	return Check{}, false
}
