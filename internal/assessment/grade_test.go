package assessment

import "testing"

func TestGradeChoices(t *testing.T) {
	questions := []Question{
		ChoiceQuestion{ID: "1", Correct: NewAnswerSet("A")},
		ChoiceQuestion{ID: "2", Correct: NewAnswerSet("A")},
		ChoiceQuestion{ID: "3", Correct: NewAnswerSet("A", "C")},
		ChoiceQuestion{ID: "4", Correct: NewAnswerSet("A", "C")},
		ChoiceQuestion{ID: "5", Correct: NewAnswerSet("B")},
	}
	answers := map[int]Answer{
		0: ChoiceAnswer{Selected: NewAnswerSet("A")},
		1: ChoiceAnswer{Selected: NewAnswerSet("B")},
		2: ChoiceAnswer{Selected: NewAnswerSet("C", "A")},
		3: ChoiceAnswer{Selected: NewAnswerSet("A")},
		// 4 unanswered
	}

	res := GradeChoices(questions, answers)
	if res.Correct != 2 || res.Total != 5 || *res.Score != 40 {
		t.Fatalf("got %d/%d = %d%%, want 2/5 = 40%%", res.Correct, res.Total, *res.Score)
	}
	want := []bool{true, false, true, false, false}
	for i, ok := range want {
		if res.Breakdown[i] != ok {
			t.Fatalf("breakdown[%d] = %v, want %v", i, res.Breakdown[i], ok)
		}
	}

	again := GradeChoices(questions, answers)
	if *again.Score != *res.Score || again.Correct != res.Correct {
		t.Fatalf("grading is not deterministic")
	}
}

func TestGradeChoicesMixedSets(t *testing.T) {
	keys := [][]string{{"A"}, {"B"}, {"A", "C"}, {"D"}, {"B"}}
	picks := [][]string{{"A"}, {"B"}, {"C"}, {"D"}, {"A"}}

	questions := make([]Question, len(keys))
	answers := make(map[int]Answer, len(picks))
	for i := range keys {
		questions[i] = ChoiceQuestion{ID: string(rune('1' + i)), Correct: NewAnswerSet(keys[i]...)}
		answers[i] = ChoiceAnswer{Selected: NewAnswerSet(picks[i]...)}
	}

	res := GradeChoices(questions, answers)
	if *res.Score != 60 {
		t.Fatalf("score = %d, want 60", *res.Score)
	}
	want := []bool{true, true, false, true, false}
	for i := range want {
		if res.Breakdown[i] != want[i] {
			t.Fatalf("breakdown = %v, want %v", res.Breakdown, want)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		k, n, want int
	}{
		{0, 0, 0},
		{3, 5, 60},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := percent(tc.k, tc.n); got != tc.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tc.k, tc.n, got, tc.want)
		}
	}
}

func TestPassed(t *testing.T) {
	if Passed(69) || !Passed(70) {
		t.Fatalf("passing threshold is not 70")
	}
}

func TestAnswerSetEqual(t *testing.T) {
	if !NewAnswerSet("A", "B").Equal(NewAnswerSet("B", "A", "A")) {
		t.Fatalf("order or duplicates affected equality")
	}
	if NewAnswerSet("A").Equal(NewAnswerSet("A", "B")) {
		t.Fatalf("subset reported equal")
	}
	if len(NewAnswerSet(" ", "")) != 0 {
		t.Fatalf("blank values kept")
	}
}
