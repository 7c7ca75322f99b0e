package workflow_test

import (
	"testing"

	"github.com/aretw0/quill/pkg/workflow"
	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "One. Two. Three.", []string{"One.", "Two.", "Three."}},
		{"mixed terminators", "Really? Yes! Fine.", []string{"Really?", "Yes!", "Fine."}},
		{"abbreviation", "Dr. Smith met Mrs. Jones. They talked.", []string{"Dr. Smith met Mrs. Jones.", "They talked."}},
		{"all titles", "Capt. Lt. Col. Maj. Prof. Rev. Ms. Mr. Lee left.", []string{"Capt. Lt. Col. Maj. Prof. Rev. Ms. Mr. Lee left."}},
		{"decimal", "Pi is 3.14 roughly. Close enough.", []string{"Pi is 3.14 roughly.", "Close enough."}},
		{"no terminator", "Trailing words without end", []string{"Trailing words without end"}},
		{"remainder", "Done. and then", []string{"Done.", "and then"}},
		{"ellipsis", "Wait... what? Ok.", []string{"Wait...", "what?", "Ok."}},
		{"closing quote", `He said "stop." Then left.`, []string{`He said "stop."`, "Then left."}},
		{"closing paren", "(See above.) Next.", []string{"(See above.)", "Next."}},
		{"no space after", "e.g.this stays", []string{"e.g.this stays"}},
		{"extra whitespace", "  One.\n\nTwo.  ", []string{"One.", "Two."}},
		{"empty", "   ", nil},
		{"abbreviation needs exact word", "Drs. Ok.", []string{"Drs.", "Ok."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workflow.SplitSentences(tt.in))
		})
	}
}

func TestJoinSentences(t *testing.T) {
	assert.Equal(t, "One. Three.", workflow.JoinSentences([]string{"One.", " ", "Three. "}))
	assert.Empty(t, workflow.JoinSentences(nil))
}

func TestSplitJoin_Scenario(t *testing.T) {
	sentences := workflow.SplitSentences("One. Two. Three.")
	assert.Equal(t, []string{"One.", "Two.", "Three."}, sentences)

	rest := append(sentences[:1:1], sentences[2:]...)
	assert.Equal(t, "One. Three.", workflow.JoinSentences(rest))
}
