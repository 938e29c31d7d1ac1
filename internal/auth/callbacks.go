package auth

import "github.com/gatehouse-dev/gatehouse/internal/models"

// EmbedIdentity runs when a token is minted or refreshed. On sign-in the
// freshly authenticated user is passed and its ID becomes the token subject;
// later calls pass no user and leave the token untouched.
func EmbedIdentity(token *Claims, user *models.User) *Claims {
	if user != nil {
		token.Subject = user.ID
	}
	return token
}

// ProjectSession copies the token subject into the session user id
func ProjectSession(session *Session, token *Claims) *Session {
	if token.Subject != "" && session.User != nil {
		session.User.ID = token.Subject
	}
	return session
}
