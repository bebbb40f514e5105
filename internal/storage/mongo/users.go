package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/smolinaa/chathub-auth/internal/models"
	"github.com/smolinaa/chathub-auth/internal/storage"
)

// userDoc — представление пользователя в коллекции users.
// Пустые email/phone в документ не пишутся (omitempty), чтобы работали
// sparse-уникальные индексы: отсутствующее поле уникальность не нарушает.
type userDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Username      string    `bson:"username"`
	Email         string    `bson:"email,omitempty"`
	Phone         string    `bson:"phone,omitempty"`
	PhoneVerified bool      `bson:"phone_verified"`
	PasswordHash  string    `bson:"password_hash"`
	Avatar        string    `bson:"avatar,omitempty"`
	Provider      string    `bson:"provider"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:            u.ID.String(),
		Name:          u.Name,
		Username:      u.Username,
		Email:         u.Email,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		PasswordHash:  u.PasswordHash,
		Avatar:        u.Avatar,
		Provider:      string(u.Provider),
		CreatedAt:     u.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt:     u.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
}

func (d userDoc) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}

	return &models.User{
		ID:            id,
		Name:          d.Name,
		Username:      d.Username,
		Email:         d.Email,
		Phone:         d.Phone,
		PhoneVerified: d.PhoneVerified,
		PasswordHash:  d.PasswordHash,
		Avatar:        d.Avatar,
		Provider:      models.Provider(d.Provider),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

// SaveUser создаёт нового пользователя.
// Нарушение уникальности email/phone/username -> storage.ErrAlreadyExists.
func (m *Mongo) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage/mongo/SaveUser"

	if _, err := m.users.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByID находит пользователя по ID.
func (m *Mongo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage/mongo/UserByID"
	return m.findUser(ctx, op, bson.D{{Key: "_id", Value: id.String()}})
}

// UserByEmail находит пользователя по email.
func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage/mongo/UserByEmail"
	return m.findUser(ctx, op, bson.D{{Key: "email", Value: email}})
}

// UserByUsername находит пользователя по хэндлу.
func (m *Mongo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage/mongo/UserByUsername"
	return m.findUser(ctx, op, bson.D{{Key: "username", Value: username}})
}

// UserByEmailOrPhone находит пользователя по email ИЛИ телефону.
// Пустые аргументы в фильтр не попадают; оба пустых -> ErrNotFound.
func (m *Mongo) UserByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error) {
	const op = "storage/mongo/UserByEmailOrPhone"

	var or bson.A
	if email != "" {
		or = append(or, bson.D{{Key: "email", Value: email}})
	}
	if phone != "" {
		or = append(or, bson.D{{Key: "phone", Value: phone}})
	}

	if len(or) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return m.findUser(ctx, op, bson.D{{Key: "$or", Value: or}})
}

// UpdateUser перезаписывает документ пользователя целиком по ID.
// Нарушение уникальности (например, занятый телефон) -> storage.ErrAlreadyExists.
func (m *Mongo) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage/mongo/UpdateUser"

	doc := toUserDoc(user)
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	res, err := m.users.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func (m *Mongo) findUser(ctx context.Context, op string, filter bson.D) (*models.User, error) {
	var doc userDoc
	if err := m.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}
