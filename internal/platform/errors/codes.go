package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Candidate resolution errors
	CodeParseFailure      Code = "PARSE_FAILURE"
	CodePastEventRejected Code = "PAST_EVENT_REJECTED"
	CodeDuplicateRejected Code = "DUPLICATE_REJECTED"

	// Reminder lifecycle errors
	CodeReminderTitleEmpty        Code = "REMINDER_TITLE_EMPTY"
	CodeReminderOwnerEmpty        Code = "REMINDER_OWNER_EMPTY"
	CodeReminderInvalidStatus     Code = "REMINDER_INVALID_STATUS"
	CodeReminderInvalidTransition Code = "REMINDER_INVALID_STATUS_TRANSITION"
	CodeSyncFailure               Code = "SYNC_FAILURE"
	CodeCalendarNotConnected      Code = "CALENDAR_NOT_CONNECTED"

	// Journal errors
	CodeJournalContentEmpty Code = "JOURNAL_CONTENT_EMPTY"

	// Boundary errors
	CodeNotAuthorized       Code = "NOT_AUTHORIZED"
	CodeNotFound            Code = "NOT_FOUND"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP status codes for the web surface.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotAuthorized:
		return http.StatusForbidden
	case CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case CodeReminderInvalidTransition:
		return http.StatusConflict
	case CodeInvalidInput,
		CodeReminderTitleEmpty,
		CodeReminderOwnerEmpty,
		CodeReminderInvalidStatus,
		CodeJournalContentEmpty,
		CodeCalendarNotConnected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
