package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"quillpost-api/models"
)

const identityKey = "identity"

// IdentityClaims is the token payload issued by the identity provider. The
// subject is the caller's token identifier.
type IdentityClaims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Picture  string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func (c IdentityClaims) identity() *models.Identity {
	return &models.Identity{
		TokenIdentifier: c.Subject,
		Name:            c.Name,
		Email:           c.Email,
		Username:        c.Username,
		PictureURL:      c.Picture,
	}
}

// SignIdentity issues an HS256 token for identity, valid for ttl.
func SignIdentity(secret string, identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		Name:     identity.Name,
		Email:    identity.Email,
		Username: identity.Username,
		Picture:  identity.PictureURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.TokenIdentifier,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseIdentity(secret, raw string) (*models.Identity, error) {
	var claims IdentityClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims.identity(), nil
}

// Identity resolves a bearer token into the caller's identity. Requests
// without an Authorization header continue anonymously; a malformed or
// invalid token is rejected.
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Invalid authorization header",
				Code:  http.StatusUnauthorized,
			})
			return
		}

		identity, err := parseIdentity(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "Invalid token",
				Message: err.Error(),
				Code:    http.StatusUnauthorized,
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireIdentity aborts with 401 unless Identity resolved a caller.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Not authenticated",
				Code:  http.StatusUnauthorized,
			})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the caller's identity, or nil for anonymous requests.
func IdentityFrom(c *gin.Context) *models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*models.Identity)
	return identity
}
