package questions

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/aranyoray/studybot/internal/skill"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestSpan(t *testing.T) {
	tests := []struct {
		d    float64
		want int
	}{
		{-5, 10}, {0, 10}, {50, 55}, {100, 100}, {140, 100},
	}
	for _, tt := range tests {
		if got := Span(tt.d); got != tt.want {
			t.Errorf("Span(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestGenerate_AnswersMatchOperands(t *testing.T) {
	rng := testRand()
	for _, typ := range []skill.QuestionType{
		skill.TypeRecognition, skill.TypeAddition, skill.TypeSubtraction, skill.TypeSequencing,
	} {
		for d := 0.0; d <= 100; d += 10 {
			q := Generate(skill.QuestionParams{Difficulty: d, Type: typ, TimeLimitMs: 9000}, rng)
			if q.Type != typ {
				t.Fatalf("Generate(%s).Type = %s", typ, q.Type)
			}
			if q.TimeLimitMs != 9000 {
				t.Errorf("TimeLimitMs = %d, want 9000", q.TimeLimitMs)
			}
			want := expectedAnswer(t, q)
			if q.Answer != strconv.Itoa(want) {
				t.Errorf("%s %q: answer %s, want %d", typ, q.Text, q.Answer, want)
			}
			for _, n := range q.Operands {
				if n < 0 {
					t.Errorf("%s %q: negative operand %d", typ, q.Text, n)
				}
			}
			if !q.Check(q.Answer) {
				t.Errorf("%s: Check(own answer) = false", typ)
			}
		}
	}
}

func expectedAnswer(t *testing.T, q Question) int {
	t.Helper()
	o := q.Operands
	switch q.Type {
	case skill.TypeRecognition:
		if o[0] == o[1] {
			t.Errorf("recognition operands equal: %v", o)
		}
		return max(o[0], o[1])
	case skill.TypeAddition:
		return o[0] + o[1]
	case skill.TypeSubtraction:
		if o[0] < o[1] {
			t.Errorf("subtraction would go negative: %v", o)
		}
		return o[0] - o[1]
	case skill.TypeSequencing:
		step := o[1] - o[0]
		for i := 2; i < len(o); i++ {
			if o[i]-o[i-1] != step {
				t.Errorf("sequence not arithmetic: %v", o)
			}
		}
		return o[len(o)-1] + step
	}
	t.Fatalf("unexpected type %s", q.Type)
	return 0
}

func TestGenerate_OperandsScaleWithDifficulty(t *testing.T) {
	rng := testRand()
	for range 200 {
		q := Generate(skill.QuestionParams{Difficulty: 0, Type: skill.TypeAddition}, rng)
		for _, n := range q.Operands {
			if n > Span(0) {
				t.Fatalf("operand %d exceeds span %d at difficulty 0", n, Span(0))
			}
		}
	}
	big := false
	for range 200 {
		q := Generate(skill.QuestionParams{Difficulty: 100, Type: skill.TypeAddition}, rng)
		if q.Operands[0] > Span(0) || q.Operands[1] > Span(0) {
			big = true
		}
	}
	if !big {
		t.Error("difficulty 100 never produced operands above the easiest span")
	}
}

func TestGenerate_UnknownTypeFallsBack(t *testing.T) {
	q := Generate(skill.QuestionParams{Difficulty: 80, Type: "riddle"}, testRand())
	if q.Type != skill.TypeSequencing {
		t.Errorf("Type = %s, want %s", q.Type, skill.TypeSequencing)
	}
}

func TestCheck_Numeric(t *testing.T) {
	q := Question{Format: FormatNumeric, Answer: "42"}
	tests := []struct {
		input string
		want  bool
	}{
		{"42", true},
		{" 42 ", true},
		{"042", true},
		{"43", false},
		{"", false},
		{"forty-two", false},
	}
	for _, tc := range tests {
		if got := q.Check(tc.input); got != tc.want {
			t.Errorf("Check(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestCheck_Choice(t *testing.T) {
	q := Question{Format: FormatChoice, Answer: "17", Choices: []string{"9", "17"}}
	tests := []struct {
		input string
		want  bool
	}{
		{"17", true},
		{"2", true},
		{"1", false},
		{"9", false},
	}
	for _, tc := range tests {
		if got := q.Check(tc.input); got != tc.want {
			t.Errorf("Check(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}

	// "2" is an option value here, so it is not read as an index.
	q = Question{Format: FormatChoice, Answer: "5", Choices: []string{"2", "5"}}
	if q.Check("2") {
		t.Error(`Check("2") = true, want false when 2 is an option`)
	}
}
