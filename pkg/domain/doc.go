/*
Package domain contains the essay document model shared by every layer.

An essay is one Essay metadata record plus up to nine step payloads. Each
payload is a distinct Go type implementing StepPayload; a step that has not
been visited simply has no payload in the document. Documents are read and
written wholesale as JSON with the layout

	{"essay": {...}, "step1": {...}, ..., "step9": {...}}

and every step object is checked against a schema before it is decoded, so a
malformed payload makes the whole document unreadable rather than partially
populated.
*/
package domain
