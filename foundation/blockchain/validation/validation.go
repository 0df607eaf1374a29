// Package validation provides the result value returned by every operation
// that checks a ledger business rule.
package validation

// Validation represents the outcome of checking a business rule. A failed
// rule is not a Go error, it is an expected answer the caller must act on.
type Validation struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Ok constructs a successful validation. An optional message can be carried
// back to the caller, like the hash of an accepted transaction.
func Ok(message ...string) Validation {
	v := Validation{Success: true}
	if len(message) > 0 {
		v.Message = message[0]
	}
	return v
}

// Fail constructs a failed validation with the reason for the failure.
func Fail(message string) Validation {
	return Validation{
		Success: false,
		Message: message,
	}
}

// String implements the fmt.Stringer interface for logging.
func (v Validation) String() string {
	if v.Success {
		if v.Message == "" {
			return "ok"
		}
		return "ok: " + v.Message
	}
	return "failed: " + v.Message
}
