package models

import "github.com/google/uuid"

// Viewer is the identity every core operation receives explicitly. There is
// no ambient "current user" lookup anywhere below the route layer.
type Viewer struct {
	UserID    uuid.UUID
	Anonymous bool
}

func AnonymousViewer() Viewer {
	return Viewer{Anonymous: true}
}

func UserViewer(userID uuid.UUID) Viewer {
	return Viewer{UserID: userID}
}

// Is reports whether the viewer is the given (non-anonymous) user.
func (v Viewer) Is(userID uuid.UUID) bool {
	return !v.Anonymous && v.UserID == userID
}
