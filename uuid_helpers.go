package auth

import "github.com/google/uuid"

type uuidCapableSession interface {
	GetUserUUID() (uuid.UUID, error)
}

// HasUserUUID reports whether the session user id parses as a UUID.
func HasUserUUID(session Session) bool {
	if session == nil {
		return false
	}
	s, ok := session.(uuidCapableSession)
	if !ok {
		return false
	}
	_, err := s.GetUserUUID()
	return err == nil
}
