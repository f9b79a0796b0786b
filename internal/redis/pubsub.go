package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ShowsPubSub fans show changes out to every instance so each can drop its
// cached copies.
type ShowsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewShowsPubSub(rdb *redis.Client) *ShowsPubSub {
	return &ShowsPubSub{
		rdb:     rdb,
		channel: ChannelShowsChanged(),
	}
}

type showChangedMsg struct {
	Type       string `json:"type"`
	Deployment string `json:"deployment"`
	ShowKey    string `json:"show_key"`
	TsUnix     int64  `json:"ts_unix"`
}

func (p *ShowsPubSub) PublishShowChanged(ctx context.Context, deployment, showKey string) error {
	msg := showChangedMsg{
		Type:       "show_changed",
		Deployment: deployment,
		ShowKey:    showKey,
		TsUnix:     time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, string(b)).Err()
}

// Subscribe calls handler for every change notification until ctx is done.
func (p *ShowsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, deployment, showKey string)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg showChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil &&
				msg.Deployment != "" && msg.ShowKey != "" {
				handler(ctx, msg.Deployment, msg.ShowKey)
			}
		}
	}
}
