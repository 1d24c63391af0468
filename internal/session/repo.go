package session

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Upsert returns the session for key, creating it on first use. Repeated
// calls with the same key always resolve to the same row.
func (r *Repo) Upsert(ctx context.Context, key string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where(Session{SessionKey: key}).
		FirstOrCreate(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetBySessionID loads a session by its numeric ID.
func (r *Repo) GetBySessionID(ctx context.Context, sessionID uint64) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// AppendMessages inserts messages in the given order.
func (r *Repo) AppendMessages(ctx context.Context, sessionID uint64, msgs []*Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range msgs {
			m.SessionID = sessionID
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListMessages returns the session's messages in insertion order.
func (r *Repo) ListMessages(ctx context.Context, sessionID uint64) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetMessageByID loads a single message.
func (r *Repo) GetMessageByID(ctx context.Context, id uint64) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Turn job CRUD

func (r *Repo) CreateTurnJob(ctx context.Context, job *TurnJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetTurnJobByID(ctx context.Context, id string) (*TurnJob, error) {
	var j TurnJob
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateTurnJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&TurnJob{}).
		Where("id = ? AND status = ?", id, TurnJobQueued).
		Update("status", TurnJobRunning).Error
}

func (r *Repo) MarkTurnJobSucceeded(ctx context.Context, id string, resultMsgID uint64) error {
	return r.db.WithContext(ctx).Model(&TurnJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            TurnJobSucceeded,
			"result_message_id": resultMsgID,
			"error":             nil,
		}).Error
}

func (r *Repo) MarkTurnJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&TurnJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            TurnJobFailed,
			"error":             errMsg,
			"result_message_id": nil,
		}).Error
}
