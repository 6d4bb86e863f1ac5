package translation

import "testing"

func TestPositionOrderIsLexicographic(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Position
		expected bool
	}{
		{name: "earlier utterance", a: Position{0, 9, 9}, b: Position{1, 0, 0}, expected: true},
		{name: "same utterance earlier word", a: Position{1, 2, 9}, b: Position{1, 3, 0}, expected: true},
		{name: "same word earlier char", a: Position{1, 2, 3}, b: Position{1, 2, 4}, expected: true},
		{name: "equal", a: Position{1, 2, 3}, b: Position{1, 2, 3}, expected: false},
		{name: "later utterance", a: Position{2, 0, 0}, b: Position{1, 9, 9}, expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.a.Less(testCase.b); got != testCase.expected {
				t.Fatalf("expected %v.Less(%v) to be %v, got %v", testCase.a, testCase.b, testCase.expected, got)
			}
		})
	}
}
