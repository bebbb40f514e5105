package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/smolinaa/chathub-auth/internal/models"
	"github.com/smolinaa/chathub-auth/internal/storage"
)

// sessionDoc — представление записи сессии в коллекции sessions.
// token_hash — bcrypt-хэш подписанного refresh-токена; искать по нему
// равенством нельзя, подбор записи делает сервис перебором по user_id.
type sessionDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	TokenHash   string    `bson:"token_hash"`
	ExpiresAt   time.Time `bson:"expires_at"`
	DeviceLabel string    `bson:"device_label"`
	Revoked     bool      `bson:"revoked"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toSessionDoc(s *models.Session) sessionDoc {
	return sessionDoc{
		ID:          s.ID.String(),
		UserID:      s.UserID.String(),
		TokenHash:   s.TokenHash,
		ExpiresAt:   s.ExpiresAt.UTC().Truncate(time.Millisecond),
		DeviceLabel: s.DeviceLabel,
		Revoked:     s.Revoked,
		CreatedAt:   s.CreatedAt.UTC().Truncate(time.Millisecond),
	}
}

func (d sessionDoc) toModel() (models.Session, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Session{}, fmt.Errorf("parse session id: %w", err)
	}

	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return models.Session{}, fmt.Errorf("parse session user id: %w", err)
	}

	return models.Session{
		ID:          id,
		UserID:      userID,
		TokenHash:   d.TokenHash,
		ExpiresAt:   d.ExpiresAt,
		DeviceLabel: d.DeviceLabel,
		Revoked:     d.Revoked,
		CreatedAt:   d.CreatedAt,
	}, nil
}

// SaveSession сохраняет новую запись сессии.
func (m *Mongo) SaveSession(ctx context.Context, session *models.Session) error {
	const op = "storage/mongo/SaveSession"

	if _, err := m.sessions.InsertOne(ctx, toSessionDoc(session)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SessionsByUser возвращает все записи сессий пользователя (по одной на устройство).
func (m *Mongo) SessionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	const op = "storage/mongo/SessionsByUser"

	cur, err := m.sessions.Find(ctx, bson.D{{Key: "user_id", Value: userID.String()}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var out []models.Session
	for cur.Next(ctx) {
		var doc sessionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		s, err := doc.toModel()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		out = append(out, s)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return out, nil
}

// DeleteSession удаляет одну запись сессии по ID.
// Если записи нет -> storage.ErrNotFound.
func (m *Mongo) DeleteSession(ctx context.Context, id uuid.UUID) error {
	const op = "storage/mongo/DeleteSession"

	res, err := m.sessions.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteSessionsByUser удаляет все записи сессий пользователя
// (полная замена сессий при подтверждении телефона).
func (m *Mongo) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error {
	const op = "storage/mongo/DeleteSessionsByUser"

	if _, err := m.sessions.DeleteMany(ctx, bson.D{{Key: "user_id", Value: userID.String()}}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
