package service

import (
	"context"
	"time"

	"spectra-chat/internal/dto"
	"spectra-chat/internal/entity"
	"spectra-chat/internal/repository/specification"
	"spectra-chat/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IUserService interface {
	// RegisterUser upserts a user by email. Calling it twice with the same
	// email returns the same identity.
	RegisterUser(ctx context.Context, req *dto.RegisterUserRequest) (*dto.UserResponse, error)
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error)
	GetOrCreateByEmail(ctx context.Context, email, name string) (*entity.User, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUserService(uowFactory unitofwork.RepositoryFactory) IUserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

func (s *userService) GetOrCreateByEmail(ctx context.Context, email, name string) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	if name == "" {
		name = "User"
	}

	user = &entity.User{
		Id:        uuid.New(),
		Email:     email,
		FullName:  name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// A concurrent register may have won the unique-email race; re-read.
		existing, findErr := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	return user, nil
}

func (s *userService) RegisterUser(ctx context.Context, req *dto.RegisterUserRequest) (*dto.UserResponse, error) {
	user, err := s.GetOrCreateByEmail(ctx, req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return toUserResponse(user), nil
}

func toUserResponse(user *entity.User) *dto.UserResponse {
	res := &dto.UserResponse{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
	}
	if user.AvatarURL != nil {
		res.AvatarURL = *user.AvatarURL
	}
	return res
}
