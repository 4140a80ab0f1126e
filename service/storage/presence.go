package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// presence key: im:presence:<user>
// value: the id of one live connection; TTL bounds staleness if the
// process dies without cleanup.
func presenceKey(user string) string { return "im:presence:" + user }

// SetOnline marks the user online and renews the TTL.
func (s *Store) SetOnline(ctx context.Context, userID, connID string) error {
	return s.rdb.Set(ctx, presenceKey(userID), connID, s.conf.OnlineTTL).Err()
}

// SetOffline clears the presence key once the user's last connection is
// gone. Intermediate disconnects only refresh the stored conn id.
func (s *Store) SetOffline(ctx context.Context, userID, connID string, lastConn bool) error {
	if !lastConn {
		return s.rdb.Set(ctx, presenceKey(userID), connID, s.conf.OnlineTTL).Err()
	}
	return s.rdb.Del(ctx, presenceKey(userID)).Err()
}

// IsOnline reports whether the user has a valid presence key.
func (s *Store) IsOnline(ctx context.Context, userID string) (bool, error) {
	_, err := s.rdb.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
