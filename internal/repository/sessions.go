package repository

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/receiptwise/receiptwise/internal/common"
	"github.com/receiptwise/receiptwise/internal/entity"
)

// SessionRepository stores users (keyed by user_id, with an email index)
// and sessions (keyed by session_token).
type SessionRepository interface {
	UpsertUserByEmail(email, name string, picture *string) (*entity.User, error)
	GetUser(userID string) (*entity.User, error)
	CreateSession(sess *entity.Session) error
	GetSessionByToken(token string) (*entity.Session, error)
	DeleteSessionByToken(token string) error
}

type sessionRepository struct {
	db     *bbolt.DB
	logger *slog.Logger
}

func NewSessionRepository(db *bbolt.DB, logger *slog.Logger) SessionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionRepository{db: db, logger: logger}
}

// email index entries live in the users bucket under "email/<addr>" and
// hold the user_id; user documents live under "id/<user_id>".
func userKey(userID string) []byte { return []byte("id/" + userID) }
func emailKey(email string) []byte { return []byte("email/" + email) }
func tokenKey(token string) []byte { return []byte(token) }

func (r *sessionRepository) UpsertUserByEmail(email, name string, picture *string) (*entity.User, error) {
	var user *entity.User
	err := r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(usersBucket))
		now := time.Now().UTC()

		if idData := bucket.Get(emailKey(email)); idData != nil {
			data := bucket.Get(userKey(string(idData)))
			if data == nil {
				return fmt.Errorf("user index points at missing document: %s", idData)
			}
			if err := json.Unmarshal(data, &user); err != nil {
				return fmt.Errorf("unmarshaling user: %w", err)
			}
			user.Name = name
			user.Picture = picture
			user.UpdatedAt = now
		} else {
			user = &entity.User{
				UserID:    entity.NewUserID(),
				Email:     email,
				Name:      name,
				Picture:   picture,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := bucket.Put(emailKey(email), []byte(user.UserID)); err != nil {
				return err
			}
		}

		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshaling user: %w", err)
		}
		return bucket.Put(userKey(user.UserID), data)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *sessionRepository) GetUser(userID string) (*entity.User, error) {
	var user *entity.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(usersBucket)).Get(userKey(userID))
		if data == nil {
			return common.ErrNotFound
		}
		return json.Unmarshal(data, &user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *sessionRepository) CreateSession(sess *entity.Session) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionsBucket))
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshaling session: %w", err)
		}
		return bucket.Put(tokenKey(sess.SessionToken), data)
	})
}

func (r *sessionRepository) GetSessionByToken(token string) (*entity.Session, error) {
	var sess *entity.Session
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(sessionsBucket)).Get(tokenKey(token))
		if data == nil {
			return common.ErrNotFound
		}
		return json.Unmarshal(data, &sess)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (r *sessionRepository) DeleteSessionByToken(token string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionsBucket)).Delete(tokenKey(token))
	})
}
