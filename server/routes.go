package server

import (
	"encoding/json"
	"net/http"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Routes builds the HTTP surface: account endpoints plus the websocket
// upgrade.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ws", s.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s, w, r)
	}))
	return mux
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{"username and password are required"})
		return
	}
	existing, err := s.repo.FindUserByName(creds.Username)
	if err != nil {
		s.log.Error("register lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, errorResponse{"user already exists"})
		return
	}
	hash, err := HashPassword(creds.Password)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
		return
	}
	user, err := s.repo.AddUser(creds.Username, hash)
	if err != nil {
		s.log.Error("register failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
		return
	}
	token, err := s.CreateToken(user.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"malformed request"})
		return
	}
	user, err := s.repo.FindUserByName(creds.Username)
	if err != nil {
		s.log.Error("login lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{"invalid credentials"})
		return
	}
	ok, err := VerifyPassword(creds.Password, user.Password)
	if err != nil || !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{"invalid credentials"})
		return
	}
	token, err := s.CreateToken(user.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
