package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cookshare/apiserver/internal/services"
	"github.com/cookshare/apiserver/internal/store"
	"github.com/cookshare/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	accountService *services.AccountService
	profileService *services.ProfileService
	secret         []byte
	tokenTTL       time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(accountService *services.AccountService, profileService *services.ProfileService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		profileService: profileService,
		secret:         []byte(jwtSecret),
		tokenTTL:       defaultTokenTTL,
	}
}

// AuthRouter registers auth routes on the given router. limit may be nil.
func AuthRouter(
	r chi.Router,
	accountService *services.AccountService,
	profileService *services.ProfileService,
	jwtSecret string,
	limit func(http.Handler) http.Handler,
) {
	handler := NewAuthHandler(accountService, profileService, jwtSecret)

	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/signup", handler.SignUp)
		r.Post("/login", handler.Login)
	})
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth enforces JWT authentication and injects the subject into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return requireAuth(h.secret)(next)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret))
}

func requireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SignUp creates an account with its profile and returns a JWT.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	account, profile, err := h.accountService.SignUp(r.Context(), services.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		FullName: req.FullName,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to create account")
		return
	}

	token, err := issueToken(account.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, Account: account, Profile: &profile})
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	account, err := h.accountService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "failed to authenticate")
		return
	}

	token, err := issueToken(account.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Account: account})
}

// Me returns the current account and its profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := callerFromRequest(r)
	if !caller.Authenticated() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	account, err := h.accountService.GetByID(r.Context(), caller.UserID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load account")
		return
	}

	resp := MeResponse{Account: account}
	profile, err := h.profileService.GetOwn(r.Context(), caller)
	switch {
	case err == nil:
		resp.Profile = &profile
	case !errors.Is(err, store.ErrNotFound):
		writeServiceError(w, r, err, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"fullname"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string         `json:"token"`
	Account types.Account  `json:"account"`
	Profile *types.Profile `json:"profile,omitempty"`
}

type MeResponse struct {
	Account types.Account  `json:"account"`
	Profile *types.Profile `json:"profile"`
}

func issueToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
