package handler

import (
	"net/http"
	"strings"

	"tracebloom/internal/adapter/http/dto"
	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"
	"tracebloom/pkg/apperror"
	"tracebloom/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authSvc     ports.AuthService
	sigVerifier ports.SignatureVerifier
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService, sigVerifier ports.SignatureVerifier) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, sigVerifier: sigVerifier}
}

// Signup handles POST /api/v1/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.authSvc.Signup(c.Request.Context(), ports.SignupRequest{
		Email:    strings.ToLower(req.Email),
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, authResultToDTO(result))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.authSvc.Login(c.Request.Context(), strings.ToLower(req.Email), req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, authResultToDTO(result))
}

// WalletNonce handles POST /api/v1/auth/wallet/nonce.
func (h *AuthHandler) WalletNonce(c *gin.Context) {
	var req dto.NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	challenge, err := h.authSvc.IssueWalletChallenge(c.Request.Context(), ports.NonceRequest{
		WalletAddress: req.WalletAddress,
		Email:         strings.ToLower(req.Email),
		Role:          domain.Role(req.Role),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ChallengeResponse{
		WalletAddress: challenge.WalletAddress,
		Nonce:         challenge.Nonce,
		Message:       h.sigVerifier.BuildLoginMessage(challenge.Nonce),
		ExpiresAt:     challenge.ExpiresAt.Unix(),
	})
}

// WalletVerify handles POST /api/v1/auth/wallet/verify.
func (h *AuthHandler) WalletVerify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.authSvc.VerifyWallet(c.Request.Context(), ports.VerifyRequest{
		WalletAddress: req.WalletAddress,
		Signature:     req.Signature,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, authResultToDTO(result))
}

func authResultToDTO(result *ports.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:  result.Token,
		Expiry: result.ExpiresAt.Unix(),
		Identity: dto.IdentityResponse{
			ID:            result.Identity.ID.String(),
			Email:         result.Identity.Email,
			Role:          string(result.Identity.Role),
			WalletAddress: result.Identity.WalletAddress,
		},
	}
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
