package models

import "fmt"

// MissingFieldError reports a required field absent from the document.
// Missing the accounts array fails the whole build; a missing account
// identifier only drops that account.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// InvalidStatusError reports an explicit status string outside the
// known set.
type InvalidStatusError struct {
	Raw string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("unknown account status %q", e.Raw)
}

// MalformedQuotaError reports a quota percentage that is present but
// not a valid number in [0,100]. The offending entry is dropped; the
// rest of the snapshot survives.
type MalformedQuotaError struct {
	Account string
	Model   string
	Detail  string
}

func (e *MalformedQuotaError) Error() string {
	return fmt.Sprintf("malformed quota for account %q model %q: %s", e.Account, e.Model, e.Detail)
}

// ParseWarning records an entry dropped during snapshot building.
// Warnings are logged and counted but never void the snapshot.
type ParseWarning struct {
	Account string
	Model   string
	Err     error
}

func (w ParseWarning) String() string {
	switch {
	case w.Account != "" && w.Model != "":
		return fmt.Sprintf("account %q model %q: %v", w.Account, w.Model, w.Err)
	case w.Account != "":
		return fmt.Sprintf("account %q: %v", w.Account, w.Err)
	default:
		return w.Err.Error()
	}
}
