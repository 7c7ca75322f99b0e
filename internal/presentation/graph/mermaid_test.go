package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/quill/internal/presentation/graph"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(workflow.DefaultThresholds(), nil)

	tests := []struct {
		name     string
		contains []string
	}{
		{"nodes", []string{`step1_plan["1. Plan"]`, `step9_finalize["9. Finalize"]`, `done(("completed"))`}},
		{"plain edge", []string{"step2_brainstorm --> step3_research"}},
		{"gated edges", []string{
			`step1_plan -- "title set" --> step2_brainstorm`,
			`step5_draft -- "50% drafted, 50+ words" --> step6_refine`,
			`step6_refine -- "3+ edits" --> step7_reorder`,
		}},
		{"terminal", []string{"step9_finalize --> done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	d := domain.NewEssayData(domain.Essay{ID: "e", CurrentStep: domain.StepDraft})
	d.SetPayload(&domain.OutlineStep{OutlineSentences: []string{"A."}})
	d.SetPayload(&domain.DraftStep{Paragraphs: []string{"A."}})

	out := graph.GenerateMermaid(workflow.DefaultThresholds(), graph.OverlayFor(d))

	assert.Contains(t, out, "class step4_outline visited;")
	assert.Contains(t, out, "class step5_draft current;")
	assert.NotContains(t, out, "class step5_draft visited;")
	assert.NotContains(t, out, "class done visited;")
	assert.Equal(t, 1, strings.Count(out, "current;"))

	d.Essay.IsCompleted = true
	out = graph.GenerateMermaid(workflow.DefaultThresholds(), graph.OverlayFor(d))
	assert.Contains(t, out, "class done visited;")
}
