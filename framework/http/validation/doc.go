// Package validation provides Laravel-style input validation for request
// payloads.
//
// # Overview
//
// Rules are expressed as pipe-separated strings on a map of field names,
// mirroring Laravel's Validator facade. The input is a flat map, which is
// exactly what Request.All() produces.
//
//	v := validation.Make(req.All(), validation.Rules{
//	    "name":  "required|min:2|max:100",
//	    "email": "required|email",
//	})
//
//	if v.Fails() {
//	    res.ValidationError(v.Errors())
//	    return
//	}
//
// # Available Rules
//
//   - required — field must be present and non-empty
//   - email    — valid RFC 5322 email address
//   - uuid     — valid UUID string
//   - integer  — parseable as int
//   - numeric  — parseable as float64
//   - min:n    — minimum n UTF-8 characters
//   - max:n    — maximum n UTF-8 characters
//   - between:min,max — length between min and max (inclusive)
//   - in:a,b,c — value must be in the comma-separated list
//
// Rules run left to right; a field stops at its first failure, so one
// message per field reaches the error bag per run.
//
// # Error Bag
//
// Errors marshals to the standard Laravel 422 payload:
//
//	{"errors": {"email": ["The email must be a valid email address."]}}
package validation
