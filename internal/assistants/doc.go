// Package assistants provides wire types for the Assistants API: run steps,
// assistants, tool calls and the cursor-paginated list envelope.
//
// Polymorphic fields are modelled as sealed interfaces with one implementing
// type per discriminator value. Decoding reads the "type" tag and only the
// field named after it:
//
//	{"type": "tool_calls", "tool_calls": [...]}       -> *ToolCallsDetails
//	{"type": "message_creation", "message_creation": {...}} -> *MessageCreationDetails
//
// Unknown tags are never coerced into a default variant; they surface as
// *UnknownDiscriminatorError so callers notice protocol drift instead of
// silently dropping tool results.
//
// # Pagination
//
// List endpoints return List[T]. Use Pages or All with a PageFetcher to walk
// forward; the "after" cursor alone determines the next page, so iteration can
// be restarted from any cursor:
//
//	for step, err := range assistants.All(ctx, fetch, assistants.ListParams{}) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
package assistants
