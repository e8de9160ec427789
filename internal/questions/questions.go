// Package questions builds arithmetic practice questions from the
// parameters chosen by the skill estimator.
package questions

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/aranyoray/studybot/internal/skill"
)

// Format describes how the learner provides an answer.
type Format string

const (
	// FormatNumeric means the learner types a whole number.
	FormatNumeric Format = "numeric"

	// FormatChoice means the learner picks one of Choices, by text or by
	// 1-based index.
	FormatChoice Format = "choice"
)

// SequenceTerms is the number of terms shown before the blank.
const SequenceTerms = 4

// Question is a generated question ready for display.
type Question struct {
	ID          string             `json:"id"`
	Type        skill.QuestionType `json:"type"`
	Format      Format             `json:"format"`
	Text        string             `json:"text"`
	Choices     []string           `json:"choices,omitempty"`
	Operands    []int              `json:"operands"`
	Answer      string             `json:"-"`
	Difficulty  float64            `json:"difficulty"`
	TimeLimitMs int                `json:"timeLimit"`
}

// Span returns the largest operand used at a difficulty (0–100).
func Span(difficulty float64) int {
	d := math.Max(0, math.Min(100, difficulty))
	return 10 + int(math.Round(d*0.9))
}

// Generate builds a question of p.Type whose operands grow with
// p.Difficulty. An unknown type falls back to the type for the difficulty.
func Generate(p skill.QuestionParams, rng *rand.Rand) Question {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	span := Span(p.Difficulty)

	q := Question{
		ID:          uuid.NewString(),
		Type:        p.Type,
		Format:      FormatNumeric,
		Difficulty:  p.Difficulty,
		TimeLimitMs: p.TimeLimitMs,
	}

	switch p.Type {
	case skill.TypeRecognition:
		a := 1 + rng.IntN(span)
		b := 1 + rng.IntN(span-1)
		if b >= a {
			b++
		}
		q.Format = FormatChoice
		q.Operands = []int{a, b}
		q.Choices = []string{strconv.Itoa(a), strconv.Itoa(b)}
		q.Text = fmt.Sprintf("Which number is larger: %d or %d?", a, b)
		q.Answer = strconv.Itoa(max(a, b))

	case skill.TypeAddition:
		a, b := 1+rng.IntN(span), 1+rng.IntN(span)
		q.Operands = []int{a, b}
		q.Text = fmt.Sprintf("What is %d + %d?", a, b)
		q.Answer = strconv.Itoa(a + b)

	case skill.TypeSubtraction:
		a, b := 1+rng.IntN(span), 1+rng.IntN(span)
		if b > a {
			a, b = b, a
		}
		q.Operands = []int{a, b}
		q.Text = fmt.Sprintf("What is %d - %d?", a, b)
		q.Answer = strconv.Itoa(a - b)

	case skill.TypeSequencing:
		step := 1 + rng.IntN(max(1, span/10))
		start := rng.IntN(span)
		terms := make([]string, SequenceTerms)
		q.Operands = make([]int, SequenceTerms)
		for i := range SequenceTerms {
			n := start + i*step
			q.Operands[i] = n
			terms[i] = strconv.Itoa(n)
		}
		q.Text = fmt.Sprintf("What comes next: %s, ?", strings.Join(terms, ", "))
		q.Answer = strconv.Itoa(start + SequenceTerms*step)

	default:
		p.Type = skill.TypeForDifficulty(p.Difficulty)
		return Generate(p, rng)
	}
	return q
}

// Check compares the learner's input against the correct answer.
// Whitespace is trimmed and leading zeros ignored. Choice questions also
// accept the 1-based index of the correct option.
func (q Question) Check(answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return false
	}
	want, err := strconv.Atoi(q.Answer)
	if err != nil {
		return false
	}
	if n == want {
		return true
	}
	if q.Format == FormatChoice && n >= 1 && n <= len(q.Choices) {
		// A typed value that is itself an option is read as a value.
		return q.Choices[n-1] == q.Answer && !slices.Contains(q.Choices, strconv.Itoa(n))
	}
	return false
}
