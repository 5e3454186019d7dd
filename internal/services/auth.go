package services

import (
	"errors"
	"time"

	"github.com/dhelicopters/pubquiz/internal/models"
	"github.com/dhelicopters/pubquiz/internal/quizerr"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

func (s *AuthService) Register(username, password string) (string, error) {
	var existing models.Account
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return "", quizerr.Conflict("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", quizerr.Internal("hashing password", err)
	}

	account := models.Account{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(&account).Error; err != nil {
		return "", quizerr.Internal("creating account", err)
	}

	return s.GenerateToken(account.ID)
}

func (s *AuthService) Login(username, password string) (string, error) {
	var account models.Account
	if err := s.db.Where("username = ?", username).First(&account).Error; err != nil {
		return "", quizerr.Forbidden("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", quizerr.Forbidden("invalid credentials")
	}

	return s.GenerateToken(account.ID)
}

func (s *AuthService) GenerateToken(accountID uint) (string, error) {
	claims := jwt.MapClaims{
		"account_id": accountID,
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}

	accountIDFloat, ok := claims["account_id"].(float64)
	if !ok {
		return 0, errors.New("invalid account_id in token")
	}

	return uint(accountIDFloat), nil
}
