package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"recipe-api/models"
	"strings"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
)

// mySigningKey is replaced at startup with the configured jwt_secret.
var mySigningKey = []byte("mySigningKey")

var tokenTTL = 24 * time.Hour

const (
	issuer = "recipe-api"

	// UserAttribute is the request attribute holding the authenticated *models.User.
	UserAttribute = "user"
)

// SetSigningKey allows setting the key from outside the package.
func SetSigningKey(key []byte) {
	if len(key) > 0 {
		mySigningKey = key
	}
}

// SetTokenTTL changes how long newly issued tokens stay valid.
func SetTokenTTL(ttl time.Duration) {
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// CustomClaims represents the custom claims carried by API tokens.
type CustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT for the given user.
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(mySigningKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseAndValidateToken : used by the REST filter and the gRPC interceptor
func ParseAndValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return mySigningKey, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, errors.New("malformed token")
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				return nil, errors.New("token is either expired or not active yet")
			} else if ve.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ExtractToken pulls the token out of an Authorization header value. Both
// "Bearer <token>" and "Token <token>" are accepted.
func ExtractToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("Authentication credentials were not provided")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", errors.New("Invalid authorization header format")
	}
	scheme := strings.ToLower(parts[0])
	if scheme != "bearer" && scheme != "token" {
		return "", errors.New("Invalid authorization header format")
	}
	return parts[1], nil
}

// UserLookup loads the principal named by a token.
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticate resolves a raw Authorization header to an active user.
func Authenticate(ctx context.Context, users UserLookup, header string) (*models.User, error) {
	tokenString, err := ExtractToken(header)
	if err != nil {
		return nil, err
	}
	claims, err := ParseAndValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.New("User not found")
	}
	if !user.IsActive {
		return nil, errors.New("User inactive or deleted")
	}
	return user, nil
}

func writeMessage(resp *restful.Response, status int, message string) {
	_ = resp.WriteHeaderAndJson(status, map[string]string{"message": message}, restful.MIME_JSON)
}

// AuthFilter creates a go-restful FilterFunction for token authentication.
func AuthFilter(users UserLookup) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		user, err := Authenticate(req.Request.Context(), users, req.HeaderParameter("Authorization"))
		if err != nil {
			resp.AddHeader("WWW-Authenticate", `Bearer realm="api"`)
			writeMessage(resp, http.StatusUnauthorized, err.Error())
			return
		}

		// Store user information in request attributes for use by subsequent processing functions
		req.SetAttribute(UserAttribute, user)
		chain.ProcessFilter(req, resp)
	}
}

// StaffFilter must run after AuthFilter.
func StaffFilter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		user, ok := CurrentUser(req)
		if !ok {
			writeMessage(resp, http.StatusUnauthorized, "Authentication credentials were not provided")
			return
		}
		if !user.IsStaff {
			writeMessage(resp, http.StatusForbidden, "Forbidden: staff access required")
			return
		}
		chain.ProcessFilter(req, resp)
	}
}

// CurrentUser extracts the user set by the AuthFilter.
func CurrentUser(req *restful.Request) (*models.User, bool) {
	user, ok := req.Attribute(UserAttribute).(*models.User)
	return user, ok && user != nil
}
