package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/langchou/fleetgazer/internal/models"
)

// 状态镜像 TTL：投影表才是权威数据，镜像过期后看板回源即可
const stateTTL = 60 * time.Second

// 发布频道
const (
	channelState       = "fleet:state"
	channelTransitions = "fleet:transitions"
)

// StateCache 资产实时状态的 Redis 镜像
// 尽力而为：写失败只记日志不影响摄入结果
type StateCache struct {
	client *redis.Client
}

// NewStateCache 创建并连接缓存
func NewStateCache(ctx context.Context, addr, password string, db int) (*StateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &StateCache{client: client}, nil
}

// Close 关闭连接
func (c *StateCache) Close() error {
	return c.client.Close()
}

// MirrorState 将投影快照写入 Redis 并广播
// HSet + Expire + Publish 合并为一次 pipeline
func (c *StateCache) MirrorState(ctx context.Context, st *models.AssetState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal asset state: %w", err)
	}

	fields := map[string]interface{}{
		"last_event_at": st.LastEventAt.Unix(),
		"payload":       string(payload),
	}
	if st.Latitude != nil && st.Longitude != nil {
		fields["lat"] = *st.Latitude
		fields["lng"] = *st.Longitude
	}
	if st.ZoneID != nil {
		fields["zone_id"] = *st.ZoneID
	}

	key := fmt.Sprintf("asset:%d:state", st.AssetID)

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, stateTTL)
	pipe.Publish(ctx, channelState, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror state: %w", err)
	}
	return nil
}

// PublishTransition 广播围栏穿越
func (c *StateCache) PublishTransition(ctx context.Context, tr *models.ZoneTransition) error {
	payload, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}
	if err := c.client.Publish(ctx, channelTransitions, payload).Err(); err != nil {
		return fmt.Errorf("publish transition: %w", err)
	}
	return nil
}
