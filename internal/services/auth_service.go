package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"tour-app/internal/models"
	"tour-app/internal/repository"
	"tour-app/internal/utils"
)

type AuthService struct {
	userRepo repository.UserRepository
	jwtUtil  *utils.JWTUtil
	email    EmailService
	redis    *redis.Client
}

func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, email EmailService, redis *redis.Client) *AuthService {
	return &AuthService{userRepo: userRepo, jwtUtil: jwtUtil, email: email, redis: redis}
}

// Register создаёт пользователя с временным паролем и отправляет его на почту
func (s *AuthService) Register(ctx context.Context, user *models.User) (string, error) {
	existing, _ := s.userRepo.FindByEmail(ctx, user.Email)
	if existing != nil {
		return "", errors.New("user already exists")
	}

	tempPass := utils.GenerateCode(10)
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPass), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	newUser := &models.User{
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Email:         user.Email,
		PhoneNumber:   user.PhoneNumber,
		Password:      string(hashed),
		Role:          "user",
		ResetRequired: true,
	}

	createdUser, err := s.userRepo.Create(ctx, newUser)
	if err != nil {
		return "", err
	}

	if err := s.email.SendVerificationCode(user.Email, tempPass); err != nil {
		_ = s.userRepo.Delete(ctx, createdUser.ID)
		return "", errors.New("failed to send email with temporary password")
	}

	return s.jwtUtil.GenerateToken(createdUser.ID.Hex(), createdUser.Role, createdUser.ResetRequired)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Printf("User not found: %s", email)
		return "", errors.New("invalid credentials")
	}

	if user.Banned {
		log.Printf("User is banned: %s", email)
		return "", errors.New("user is banned")
	}

	if err := user.ComparePassword(password); err != nil {
		log.Printf("Password comparison failed for user %s: %v", email, err)
		return "", errors.New("invalid credentials")
	}

	return s.jwtUtil.GenerateToken(user.ID.Hex(), user.Role, user.ResetRequired)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.ComparePassword(oldPassword); err != nil {
		return errors.New("invalid credentials")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, userID, bson.M{
		"password":       string(hashed),
		"reset_required": false,
	}); err != nil {
		return err
	}
	s.invalidateProfileCache(ctx, userID.Hex())
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	cacheKey := fmt.Sprintf("user_profile:%s", userID.Hex())

	var cached models.User
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := unmarshalCached(val, &cached); jsonErr == nil {
			return &cached, nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	setCached(ctx, s.redis, cacheKey, user, 5*time.Minute)
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, fields bson.M) error {
	allowed := bson.M{}
	for _, key := range []string{"first_name", "last_name", "phone_number", "device_token"} {
		if v, ok := fields[key]; ok {
			allowed[key] = v
		}
	}
	if len(allowed) == 0 {
		return errors.New("no updatable fields provided")
	}
	if err := s.userRepo.UpdateFields(ctx, userID, allowed); err != nil {
		return err
	}
	s.invalidateProfileCache(ctx, userID.Hex())
	return nil
}

// --- Администрирование пользователей ---

func (s *AuthService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

func (s *AuthService) SetBanned(ctx context.Context, userID primitive.ObjectID, banned bool) error {
	if err := s.userRepo.UpdateFields(ctx, userID, bson.M{"banned": banned}); err != nil {
		return err
	}
	s.invalidateProfileCache(ctx, userID.Hex())
	return nil
}

func (s *AuthService) SetRole(ctx context.Context, userID primitive.ObjectID, role string) error {
	if role != "user" && role != "manager" && role != "admin" {
		return errors.New("unknown role")
	}
	if err := s.userRepo.UpdateFields(ctx, userID, bson.M{"role": role}); err != nil {
		return err
	}
	s.invalidateProfileCache(ctx, userID.Hex())
	return nil
}

func (s *AuthService) invalidateProfileCache(ctx context.Context, userID string) {
	if err := s.redis.Del(ctx, fmt.Sprintf("user_profile:%s", userID)).Err(); err != nil {
		log.Printf("Failed to invalidate profile cache: %v", err)
	}
}
