// Package schema provides a small type system for checking decoded JSON
// documents before they are mapped onto Go structs.
//
// A Schema maps field names to Types. Fields are required unless wrapped in
// Optional. Nested objects are described with Object, lists with Slice.
//
//	outline := schema.Schema{
//	    "outlineSentences": schema.Optional(schema.Slice(schema.String())),
//	}
//
//	if err := schema.Validate(outline, raw); err != nil {
//	    // raw does not look like an outline payload
//	}
//
// Validation collects every failure into an *AggregateError so callers can
// report all problems of a payload at once.
package schema
