package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/pkg/logger"
)

const (
	// KeyPrefix is the prefix for every key owned by the repository
	KeyPrefix = "userregistry:"

	seqKey = KeyPrefix + "users:seq"
	idsKey = KeyPrefix + "users:ids"

	// maxRetries bounds optimistic transaction retries on concurrent writes
	maxRetries = 10
)

func userKey(id int64) string {
	return KeyPrefix + "user:" + strconv.FormatInt(id, 10)
}

func emailKey(email string) string {
	return KeyPrefix + "user:email:" + email
}

// record is the hash layout of a stored user
type record struct {
	Name      string `redis:"name"`
	Email     string `redis:"email"`
	Age       int    `redis:"age"`
	CreatedAt string `redis:"created_at"`
}

func toRecord(u *user.User) record {
	return record{
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (rec record) toUser(id int64) (*user.User, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at of user %d: %w", id, err)
	}
	return &user.User{
		ID:        id,
		Name:      rec.Name,
		Email:     rec.Email,
		Age:       rec.Age,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// UserRepository implements user.Repository on Redis.
// Each user is a hash; an email index key and a sorted id set keep
// lookups and listing consistent under WATCH/MULTI.
type UserRepository struct {
	client *redis.Client
	logger *logger.Logger
}

// NewUserRepository creates a new Redis user repository
func NewUserRepository(client *redis.Client, log *logger.Logger) *UserRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &UserRepository{
		client: client,
		logger: log.WithField("component", "redis_user_repo"),
	}
}

// Create stores a user under a freshly allocated ID
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	id, err := r.client.Incr(ctx, seqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate user id: %w", err)
	}

	ek := emailKey(u.Email)
	err = r.watch(ctx, func(tx *redis.Tx) error {
		taken, err := tx.Exists(ctx, ek).Result()
		if err != nil {
			return err
		}
		if taken > 0 {
			return user.ErrEmailAlreadyExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, userKey(id), toRecord(u))
			pipe.Set(ctx, ek, id, 0)
			pipe.ZAdd(ctx, idsKey, redis.Z{Score: float64(id), Member: id})
			return nil
		})
		return err
	}, ek)
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	cmd := r.client.HGetAll(ctx, userKey(id))
	u, err := scanUser(id, cmd)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by exact email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	id, err := r.client.Get(ctx, emailKey(email)).Int64()
	if err == redis.Nil {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return r.GetByID(ctx, id)
}

// List retrieves all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	members, err := r.client.ZRange(ctx, idsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q in index: %w", m, err)
		}
		ids = append(ids, id)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, userKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	users := make([]*user.User, 0, len(ids))
	for i, id := range ids {
		u, err := scanUser(id, cmds[i])
		if errors.Is(err, user.ErrUserNotFound) {
			// deleted between ZRANGE and HGETALL
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load user %d: %w", id, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// Update writes name, email and age, moving the email index when it changes
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	uk := userKey(u.ID)
	err := r.watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, uk, "email").Result()
		if err == redis.Nil {
			return user.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		newKey := emailKey(u.Email)
		emailChanged := current != u.Email
		if emailChanged {
			if err := tx.Watch(ctx, newKey).Err(); err != nil {
				return err
			}
			taken, err := tx.Exists(ctx, newKey).Result()
			if err != nil {
				return err
			}
			if taken > 0 {
				return user.ErrEmailAlreadyExists
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, uk, "name", u.Name, "email", u.Email, "age", u.Age)
			if emailChanged {
				pipe.Del(ctx, emailKey(current))
				pipe.Set(ctx, newKey, u.ID, 0)
			}
			return nil
		})
		return err
	}, uk)

	return r.wrap("update user", err)
}

// Delete removes a user and its email index entry
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	uk := userKey(id)
	err := r.watch(ctx, func(tx *redis.Tx) error {
		email, err := tx.HGet(ctx, uk, "email").Result()
		if err == redis.Nil {
			return user.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, uk)
			pipe.Del(ctx, emailKey(email))
			pipe.ZRem(ctx, idsKey, id)
			return nil
		})
		return err
	}, uk)

	return r.wrap("delete user", err)
}

// Ping checks the Redis connection
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// watch runs fn under WATCH on keys, retrying when another client
// modified a watched key before EXEC
func (r *UserRepository) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := r.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		r.logger.Debug("optimistic transaction conflict, retrying", "attempt", attempt, "keys", keys)
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", maxRetries, redis.TxFailedErr)
}

func (r *UserRepository) wrap(op string, err error) error {
	if err == nil || errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrEmailAlreadyExists) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func scanUser(id int64, cmd *redis.MapStringStringCmd) (*user.User, error) {
	fields, err := cmd.Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, user.ErrUserNotFound
	}

	var rec record
	if err := cmd.Scan(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode user %d: %w", id, err)
	}
	return rec.toUser(id)
}
