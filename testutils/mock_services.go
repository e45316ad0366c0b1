package testutils

import (
	"errors"

	"qqueue-app/qqueue/database"
	"qqueue-app/qqueue/utils/token"

	"github.com/google/uuid"
)

// MockAuthService maps bearer tokens to fixed identities so route tests can
// exercise the auth middleware without signing real JWTs.
type MockAuthService struct {
	Tokens map[string]uuid.UUID
}

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{Tokens: make(map[string]uuid.UUID)}
}

// TokenFor registers and returns a token for the given user id.
func (m *MockAuthService) TokenFor(userID uuid.UUID) string {
	t := "token-" + userID.String()
	m.Tokens[t] = userID
	return t
}

func (m *MockAuthService) Login(db *database.Database, emailOrUsername, password string) (string, error) {
	return "", errors.New("not implemented")
}

func (m *MockAuthService) ValidateToken(tokenString string) (*token.JWTClaims, error) {
	userID, ok := m.Tokens[tokenString]
	if !ok {
		return nil, token.ErrInvalidToken
	}
	return &token.JWTClaims{UserID: userID, Username: "user-" + userID.String()[:8]}, nil
}

func (m *MockAuthService) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (m *MockAuthService) ComparePasswords(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}
