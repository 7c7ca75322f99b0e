/*
Package quill is a library for guided essay writing.

An essay moves through a fixed nine-step wizard: plan, brainstorm, research,
outline, draft, refine, reorder, review and finalize. Each step stores its own
payload in one JSON document, and edits in early steps flow into later ones:
outline sentences seed draft paragraphs, sentence edits are logged, and
paragraph moves keep a permutation back to the original order.

# Architecture

Quill follows a hexagonal layout. The core (pkg/domain, pkg/workflow) knows
nothing about storage or transport. Documents are persisted through the
ports.KVStore port, with adapters for memory, files, Redis and SQLite, and
rewrite suggestions come from any ports.SuggestionGateway.

The Editor wires these together around one open essay: it debounces and
periodically autosaves edits, flushes them before navigation and cancels
them when the essay is deleted.

# Usage

	store := memory.NewStore()
	editor := quill.New(store)

	ctx := context.Background()
	essay, err := editor.Create(ctx, "On Rivers")
	if err != nil {
		log.Fatal(err)
	}

	_ = editor.Edit(func(d *domain.EssayData) bool {
		return workflow.AddOutlineSentence(d, "Rivers shape cities.")
	})

	if _, err := editor.Advance(ctx); err != nil {
		log.Println("not yet:", err)
	}
	_ = editor.Close(ctx)
	_ = essay
*/
package quill
