package domain

import "errors"

var (
	// ErrNoQuestions is returned when neither the remote path nor the
	// unfiltered local fetch yields any questions. Fatal to session start.
	ErrNoQuestions = errors.New("no questions available for category")
	// ErrCategoryNotFound indicates the category could not be loaded.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of
	// the active session.
	ErrQuestionNotFound = errors.New("question not found in session")
	// ErrNoActiveSession is returned by the remote session service when no
	// resumable session exists for the category.
	ErrNoActiveSession = errors.New("no active remote session")
	// ErrRemoteUnavailable indicates the remote session service could not
	// be reached or declined; recovered via local fallback.
	ErrRemoteUnavailable = errors.New("remote session service unavailable")
	// ErrAnswerSync indicates a remote answer sync failed after the local
	// ledger write; the local entry stays authoritative.
	ErrAnswerSync = errors.New("remote answer sync failed")
	// ErrInvalidTransition is a programming error: an operation was invoked
	// in a state that does not permit it.
	ErrInvalidTransition = errors.New("invalid session state transition")
	// ErrSessionActive is returned when starting a quiz while another
	// session is still active for the same user and category.
	ErrSessionActive = errors.New("a session is already active")
)
