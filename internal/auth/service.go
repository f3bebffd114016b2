// Service layer of the internal package authentication.

package auth

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/pkg/log"
	"context"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"Quorum/internal/user"

	"golang.org/x/crypto/bcrypt"
)

// Lifetimes of the signed token pair.
const (
	accTokenLifetime = time.Minute * 15
	refTokenLifetime = time.Hour * 24 * 7
)

// Service layer of internal package auth which encapsulates authentication logic of Quorum.
type Service interface {
	// Registers an user in Quorum with valid user credentials
	register(ctx context.Context, ue entity.User) (map[string]interface{}, error)
	// Verifies credentials of an user and returns a fresh token pair
	login(ctx context.Context, ul entity.UserLogin) (map[string]interface{}, error)
	// Invalidates the token pair of the calling user
	logout(ctx context.Context) error
	// Generates and stores a fresh token pair for an already verified user
	refreshtoken(ctx context.Context, username string) (map[string]interface{}, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	accSigningKey string
	refSigningKey string
	userRepo      user.Repository
	authRepo      Repository
	logger        log.Logger
}

// Helps to access the service layer interface and call methods. Service object is passed from main.
func NewService(accSigningKey string, refSigningKey string, userRepo user.Repository, authRepo Repository, logger log.Logger) Service {
	return service{accSigningKey, refSigningKey, userRepo, authRepo, logger}
}

func (s service) register(ctx context.Context, ue entity.User) (map[string]interface{}, error) {
	// Validate the received user data which is serialized to entity.User struct
	if _, valerr := govalidator.ValidateStruct(ue); valerr != nil {
		// Error occured during validation
		return nil, errors.GenerateValidationErrorResponse(valerr.(govalidator.Errors).Errors())
	}

	// Check for user availability against user.Username
	available, dberr := s.userRepo.HasUser(ctx, s.logger, ue.Username)
	if dberr != nil {
		// Error occured in HasUser()
		return nil, dberr
	} else if available {
		// User by the received username is already available in the platform
		valerr := errors.New("username:username is already taken")
		return nil, errors.GenerateValidationErrorResponse([]error{valerr})
	}

	// Hash user password and save the credentials in the user object
	hasheduserpwd, hasherr := s.generatePwDHash(ctx, ue.Password)
	if hasherr != nil {
		return nil, errors.InternalServerError("")
	}
	ue.Password = hasheduserpwd
	// Everyone registers as a plain unverified user, moderation happens later
	ue.Role = entity.RoleUser
	ue.Verified = false
	ue.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	// Save the user in the DB
	if _, dberr = s.userRepo.SetOrUpdateUser(ctx, s.logger, ue, true); dberr != nil {
		// Error occured in SetOrUpdateUser()
		return nil, dberr
	}

	return s.issueTokenPair(ctx, ue.Username)
}

func (s service) login(ctx context.Context, ul entity.UserLogin) (map[string]interface{}, error) {
	// Validate the received credentials against validation-tags mentioned in its entity
	if _, valerr := govalidator.ValidateStruct(ul); valerr != nil {
		return nil, errors.GenerateValidationErrorResponse(valerr.(govalidator.Errors).Errors())
	}

	ue, dberr := s.userRepo.GetUser(ctx, s.logger, ul.Username)
	if dberr != nil {
		// User not found or DB error, keep the response uniform
		if errresp, ok := dberr.(errors.ErrorResponse); ok && errresp.Status == 404 {
			return nil, errors.Unauthorized("Invalid username or password")
		}
		return nil, dberr
	}
	if !s.verifyPwDHash(ul.Password, ue.Password) {
		return nil, errors.Unauthorized("Invalid username or password")
	}

	return s.issueTokenPair(ctx, ue.Username)
}

func (s service) logout(ctx context.Context) error {
	// Fetch the access_token UUID set by AuthMiddleware
	accTokenUUID, ok := ctx.Value("access_token").(string)
	if !ok {
		// access_token UUID missing from context
		return errors.InternalServerError("")
	}
	dberr := s.authRepo.DelToken(ctx, s.logger, accTokenUUID)
	if dberr != nil {
		if errresp, ok := dberr.(errors.ErrorResponse); ok && errresp.Status == 404 {
			// Token already gone, logout is still a success
			return nil
		}
		return dberr
	}
	return nil
}

func (s service) refreshtoken(ctx context.Context, username string) (map[string]interface{}, error) {
	return s.issueTokenPair(ctx, username)
}

// Helper to create, store and package a fresh token pair for an user.
func (s service) issueTokenPair(ctx context.Context, username string) (map[string]interface{}, error) {
	userJWTData, jwterr := s.createToken(ctx, username)
	if jwterr != nil {
		// Error during generating user's jwtData
		return nil, errors.InternalServerError("")
	}
	// Save generated tokens with expiration into the DB
	if dberr := s.authRepo.SetToken(ctx, s.logger, userJWTData); dberr != nil {
		// Error during saving user's JWT
		return nil, errors.InternalServerError("")
	}

	token := make(map[string]interface{})
	token["access_token"] = userJWTData.AccessToken
	token["access_token_exp"] = time.Unix(userJWTData.AccTokenExp, 0)
	token["access_token_maxAge"] = int(accTokenLifetime.Seconds())
	token["refresh_token"] = userJWTData.RefreshToken
	token["refresh_token_exp"] = time.Unix(userJWTData.RefTokenExp, 0)
	token["refresh_token_maxAge"] = int(refTokenLifetime.Seconds())
	return token, nil
}

// Helper to generate password hash and return in string type.
// Uses external package "bcrypt" and its function GenerateFromPassword.
func (s service) generatePwDHash(ctx context.Context, password string) (string, error) {
	pwdbyte, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during Password encryption.")
		return "", errors.InternalServerError("")
	}
	return string(pwdbyte), nil
}

// Helper to verify incoming password with the actual hash of user's set password.
// Helpful during login verification of an user in Quorum.
func (s service) verifyPwDHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

type JWTdata struct {
	Username        string `json:"username"`
	AccessToken     string `json:"access_token"`
	AccTokenExp     int64  `json:"access_token_expiry"`
	AccessTokenUUID string `json:"access_token_uuid"`
	RefreshToken    string `json:"refresh_token"`
	RefTokenExp     int64  `json:"refresh_token_expiry"`
	RefTokenUUID    string `json:"refresh_token_uuid"`
}

// Helper to generate a JWT for an user given the claims data.
func (s service) generateJWT(ctx context.Context, claims jwt.Claims, signingKey string) (string, error) {
	token, jwterr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if jwterr != nil {
		s.logger.Error().Err(jwterr).Msg("Error occured during JWT generation")
		return "", jwterr
	}
	return token, nil
}

// Helper to create and return jwtData for an user with username passed as param.
func (s service) createToken(ctx context.Context, username string) (*JWTdata, error) {
	jd := &JWTdata{}
	var jwterr error

	jd.Username = username
	jd.AccessTokenUUID = uuid.NewString()
	jd.AccTokenExp = time.Now().Add(accTokenLifetime).Unix()
	jd.RefTokenUUID = uuid.NewString()
	jd.RefTokenExp = time.Now().Add(refTokenLifetime).Unix()

	// Generate AccessToken using above data as claims
	// Pass AccessTokenSigningKey fetched from env to service
	jd.AccessToken, jwterr = s.generateJWT(ctx, jwt.MapClaims{
		"authorized":        true,
		"access_token_uuid": jd.AccessTokenUUID,
		"username":          username,
		"exp":               jd.AccTokenExp,
	}, s.accSigningKey)
	if jwterr != nil {
		// Error in generateJWT
		return nil, jwterr
	}
	// Generate RefreshToken using above data as claims
	// Pass RefreshTokenSigningKey fetched from env to service
	jd.RefreshToken, jwterr = s.generateJWT(ctx, jwt.MapClaims{
		"refresh_token_uuid": jd.RefTokenUUID,
		"username":           username,
		"exp":                jd.RefTokenExp,
	}, s.refSigningKey)
	if jwterr != nil {
		// Error in generateJWT
		return nil, jwterr
	}

	return jd, nil
}
