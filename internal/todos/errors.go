package todos

// ErrorKind classifies what the error banner shows. The cause of a failed
// remote call is logged, never surfaced.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrValidation
	ErrLoad
	ErrCreate
	ErrUpdate
	ErrDelete
)

func (k ErrorKind) String() string {
	switch k {
	case ErrValidation:
		return "Title should not be empty"
	case ErrLoad:
		return "Unable to load todos"
	case ErrCreate:
		return "Unable to add a todo"
	case ErrUpdate:
		return "Unable to update a todo"
	case ErrDelete:
		return "Unable to delete a todo"
	default:
		return ""
	}
}

// Error lets an ErrorKind travel as an error value out of one-shot commands.
func (k ErrorKind) Error() string { return k.String() }
