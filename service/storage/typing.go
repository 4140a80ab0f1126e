package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// typing key: im:typing:<room>, a zset of user ids scored by expiry.
// Expired members are pruned on every read/write, so a client that
// drops without sending isTyping=false stops "typing" after TypingTTL.
func typingKey(room string) string { return "im:typing:" + room }

// SetTyping flips the typing flag for one user in one room.
func (s *Store) SetTyping(ctx context.Context, roomID, userID string, isTyping bool) error {
	key := typingKey(roomID)
	if !isTyping {
		return s.rdb.ZRem(ctx, key, userID).Err()
	}
	now := time.Now()
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.Add(s.conf.TypingTTL).UnixMilli()),
		Member: userID,
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.UnixMilli(), 10))
	pipe.Expire(ctx, key, s.conf.TypingTTL*2)
	_, err := pipe.Exec(ctx)
	return err
}

// TypingUsers lists the users currently typing in the room.
func (s *Store) TypingUsers(ctx context.Context, roomID string) ([]string, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return s.rdb.ZRangeByScore(ctx, typingKey(roomID), &redis.ZRangeBy{Min: now, Max: "+inf"}).Result()
}
