package auth

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-Api-Key"

// RequireAPIKey guards administrative endpoints with a bcrypt-hashed service
// key. An empty hash disables the endpoints entirely rather than leaving them
// open.
func RequireAPIKey(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				http.Error(w, "administrative access disabled", http.StatusForbidden)
				return
			}
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				http.Error(w, "missing api key", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HashAPIKey produces the bcrypt hash stored in configuration; used by
// provisioning tooling and tests.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
