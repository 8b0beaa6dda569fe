package chat

import "errors"

var (
	// ErrEmptyMessage is returned for blank utterances
	ErrEmptyMessage = errors.New("chat: message is empty")

	// ErrUnknownQuickAction is returned for values outside the quick action menu
	ErrUnknownQuickAction = errors.New("chat: unknown quick action")

	// ErrEmptyCompletion is returned when the completion service answers with no text
	ErrEmptyCompletion = errors.New("chat: completion returned no text")

	// ErrUnknownSession is returned when a session id has no stored transcript
	ErrUnknownSession = errors.New("chat: unknown session")
)
