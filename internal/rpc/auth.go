package rpc

import "net/http"

// AuthConfig holds endpoint authentication configuration.
type AuthConfig struct {
	Type     string            `json:"type"` // "bearer", "basic", "custom"
	Token    string            `json:"token"`
	Username string            `json:"username"`
	Password string            `json:"password"`
	Headers  map[string]string `json:"headers"`
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case "basic":
		req.SetBasicAuth(a.Username, a.Password)
	case "custom":
		for k, v := range a.Headers {
			req.Header.Set(k, v)
		}
	}
}
