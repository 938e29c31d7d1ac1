package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"
)

const (
	stateCookieName    = "gatehouse.oauth-state"
	pkceCookieName     = "gatehouse.oauth-pkce"
	callbackCookieName = "gatehouse.callback-url"
	flowTTL            = 5 * time.Minute
)

// Flow is the per-attempt state kept in short-lived cookies between the
// redirect to the provider and the callback.
type Flow struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
	CallbackURL   string
}

// NewFlow generates a random state and a PKCE verifier/challenge pair
func NewFlow(callbackURL string) (*Flow, error) {
	state, err := randomToken()
	if err != nil {
		return nil, err
	}
	verifier, err := randomToken()
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256([]byte(verifier))
	return &Flow{
		State:         state,
		CodeVerifier:  verifier,
		CodeChallenge: base64.RawURLEncoding.EncodeToString(hash[:]),
		CallbackURL:   callbackURL,
	}, nil
}

// SetCookies stores the flow on the response
func (f *Flow) SetCookies(w http.ResponseWriter, secure bool) {
	for name, value := range map[string]string{
		stateCookieName:    f.State,
		pkceCookieName:     f.CodeVerifier,
		callbackCookieName: f.CallbackURL,
	} {
		http.SetCookie(w, flowCookie(name, value, int(flowTTL.Seconds()), secure))
	}
}

// ReadFlow restores the flow from the callback request. It returns false
// when the cookies are missing or the state parameter does not match.
func ReadFlow(r *http.Request) (*Flow, bool) {
	stateQuery := r.URL.Query().Get("state")
	if stateQuery == "" {
		return nil, false
	}

	state, err := r.Cookie(stateCookieName)
	if err != nil {
		return nil, false
	}
	if subtle.ConstantTimeCompare([]byte(state.Value), []byte(stateQuery)) != 1 {
		return nil, false
	}

	verifier, err := r.Cookie(pkceCookieName)
	if err != nil || verifier.Value == "" {
		return nil, false
	}

	flow := &Flow{State: state.Value, CodeVerifier: verifier.Value}
	if cb, err := r.Cookie(callbackCookieName); err == nil {
		flow.CallbackURL = cb.Value
	}
	return flow, true
}

// ClearCookies expires the flow cookies
func ClearCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{stateCookieName, pkceCookieName, callbackCookieName} {
		http.SetCookie(w, flowCookie(name, "", -1, secure))
	}
}

func flowCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
