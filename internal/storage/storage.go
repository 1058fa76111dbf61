package storage

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ListeningEvent 一条收听历史；只追加，档案构建时按时间倒序读取
type ListeningEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"size:64;index:idx_user_played" json:"userId"`
	TrackID     string    `gorm:"size:64;index" json:"trackId"`
	Category    string    `gorm:"size:64" json:"category"`
	Source      string    `gorm:"size:128" json:"source"`
	Title       string    `gorm:"size:512" json:"title"`
	PlayedAt    time.Time `gorm:"index:idx_user_played" json:"playedAt"`
	DurationSec int       `json:"durationSec"`

	CreatedAt time.Time `json:"createdAt"`
}

// UserPreference 用户声明的兴趣标签
type UserPreference struct {
	UserID    string                      `gorm:"primaryKey;size:64" json:"userId"`
	Interests datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"interests"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&ListeningEvent{}, &UserPreference{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// AddListeningEvent 追加一条收听记录
func (s *Store) AddListeningEvent(ctx context.Context, ev *ListeningEvent) error {
	ev.UserID = strings.TrimSpace(ev.UserID)
	ev.TrackID = strings.TrimSpace(ev.TrackID)
	if ev.PlayedAt.IsZero() {
		ev.PlayedAt = time.Now()
	}
	return s.DB.WithContext(ctx).Create(ev).Error
}

// RecentEvents 返回某用户最近的 limit 条收听记录，新的在前
func (s *Store) RecentEvents(ctx context.Context, userID string, limit int) ([]ListeningEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var events []ListeningEvent
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("played_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CountEvents 某用户的历史总条数
func (s *Store) CountEvents(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&ListeningEvent{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// Interests 读取用户声明的兴趣；没有记录按空处理，不算错误
func (s *Store) Interests(ctx context.Context, userID string) ([]string, error) {
	var pref UserPreference
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pref.Interests, nil
}

// SaveInterests 以 userID 为幂等键覆盖兴趣列表
func (s *Store) SaveInterests(ctx context.Context, userID string, interests []string) error {
	pref := &UserPreference{UserID: userID, Interests: datatypes.NewJSONSlice(interests)}
	db := s.DB.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).FirstOrCreate(pref).Error; err != nil {
		return err
	}
	return db.Model(pref).Update("interests", datatypes.NewJSONSlice(interests)).Error
}

// CacheGet 读响应缓存；redis 不可用或未命中都按 miss 处理
func (s *Store) CacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.Redis == nil {
		return nil, false
	}
	bs, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return bs, true
}

// CacheSet 写响应缓存，失败只记日志不影响请求
func (s *Store) CacheSet(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if s.Redis == nil || len(payload) == 0 {
		return
	}
	if err := s.Redis.Set(ctx, key, payload, ttl).Err(); err != nil {
		log.Printf("cache set %s error: %v", key, err)
	}
}
