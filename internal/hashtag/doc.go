// Package hashtag keeps the hashtag rows of a post in step with the tags
// submitted for it.
//
// Tags are compared in normalized form (see Normalize). Reconciling a post
// inserts the requested tags that are not stored yet and deletes the stored
// tags that were not requested; tags present in both are left alone, so
// their ids and creation times survive edits.
package hashtag
