// services/scheduler.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamekey-storefront/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/go-redis/redis/v8"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context)

// JobScheduler registers periodic jobs. Injectable so tests invoke jobs
// synchronously instead of waiting for wall-clock cadences.
type JobScheduler interface {
	Every(name string, interval time.Duration, job Job) error
	DailyAt(name string, hours []int, job Job) error
	Start()
	Stop() error
}

// JobLock serializes job runs across service replicas. Without it, every
// replica would hit the upstream supplier on its own cadence.
type JobLock interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// RedisJobLock is a SetNX lease. Token identifies this instance so a replica
// never releases a lock it does not hold.
type RedisJobLock struct {
	Client *redis.Client
	Token  string
}

func NewRedisJobLock(client *redis.Client, instanceToken string) *RedisJobLock {
	return &RedisJobLock{Client: client, Token: instanceToken}
}

func (l *RedisJobLock) lockKey(name string) string {
	return "jobs:lock:" + name
}

func (l *RedisJobLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.Client.SetNX(ctx, l.lockKey(name), l.Token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire job lock %s: %w", name, err)
	}
	return ok, nil
}

// releaseScript deletes the lock only while this instance still holds it.
// Compare and delete must be one atomic step: a GET-then-DEL could delete
// another instance's lock after our TTL lapsed between the two calls.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisJobLock) Release(ctx context.Context, name string) error {
	err := releaseScript.Run(ctx, l.Client, []string{l.lockKey(name)}, l.Token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release job lock %s: %w", name, err)
	}
	return nil
}

// GocronScheduler is the production JobScheduler.
type GocronScheduler struct {
	sched gocron.Scheduler
	lock  JobLock
	log   utils.Logger
}

func NewGocronScheduler(lock JobLock, log utils.Logger) (*GocronScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &GocronScheduler{sched: s, lock: lock, log: log}, nil
}

func (g *GocronScheduler) Every(name string, interval time.Duration, job Job) error {
	_, err := g.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(g.guarded(name, interval, job)),
	)
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	return nil
}

func (g *GocronScheduler) DailyAt(name string, hours []int, job Job) error {
	if len(hours) == 0 {
		return fmt.Errorf("schedule job %s: no run times given", name)
	}
	atTimes := make([]gocron.AtTime, 0, len(hours))
	for _, h := range hours {
		atTimes = append(atTimes, gocron.NewAtTime(uint(h), 0, 0))
	}
	_, err := g.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(atTimes[0], atTimes[1:]...)),
		gocron.NewTask(g.guarded(name, time.Hour, job)),
	)
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	return nil
}

func (g *GocronScheduler) Start() {
	g.sched.Start()
}

func (g *GocronScheduler) Stop() error {
	return g.sched.Shutdown()
}

// guarded wraps a job run in the distributed lock. The lock TTL is the job's
// cadence so a crashed holder frees the slot by the next run at the latest.
func (g *GocronScheduler) guarded(name string, ttl time.Duration, job Job) func() {
	return func() {
		ctx := context.Background()
		if g.lock != nil {
			ok, err := g.lock.Acquire(ctx, name, ttl)
			if err != nil {
				g.log.Warn("job lock unavailable, skipping run", "job", name, "error", err)
				return
			}
			if !ok {
				g.log.Info("job held by another instance, skipping run", "job", name)
				return
			}
			defer func() {
				if err := g.lock.Release(ctx, name); err != nil {
					g.log.Warn("job lock release failed", "job", name, "error", err)
				}
			}()
		}
		job(ctx)
	}
}
