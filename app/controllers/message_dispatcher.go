package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/app/models"
	"github.com/tapin-app/tapin-backend/app/queries"
	"github.com/tapin-app/tapin-backend/pkg/database"
	"github.com/tapin-app/tapin-backend/pkg/utils"
)

// job is a side effect that runs after the request that caused it has
// committed. Failures are logged and never reach the client.
type job struct {
	name string
	run  func(ctx context.Context) error
}

const jobTimeout = 15 * time.Second

var jobs = make(chan job, 256)

func enqueue(name string, run func(ctx context.Context) error) {
	select {
	case jobs <- job{name: name, run: run}:
	default:
		log.Warn().Str("event", "dispatch_dropped").Str("job", name).Msg("dispatch queue full")
	}
}

// StartMessageDispatcher drains the side-effect queue until ctx is cancelled.
func StartMessageDispatcher(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case j := <-jobs:
				runJob(ctx, j)
			}
		}
	}()
}

func runJob(parent context.Context, j job) {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("event", "dispatch_panic").Str("job", j.name).Interface("panic", r).Msg("")
		}
	}()
	if err := j.run(ctx); err != nil {
		log.Error().Str("event", "dispatch_error").Str("job", j.name).Err(err).Msg("")
	}
}

type messageEvent struct {
	Event string `json:"event"`
	models.Message
}

// fanOutMessage pushes a new message to every connected participant and
// sends an Expo push to participants that are offline.
func fanOutMessage(ctx context.Context, msg models.Message, room models.ChatRoom, senderName string) error {
	rq := queries.RoomQueries{DB: database.DB}
	ids, err := rq.ParticipantIDs(ctx, msg.RoomID)
	if err != nil {
		return err
	}

	ev := messageEvent{Event: models.NotificationMessage, Message: msg}
	for _, uid := range ids {
		_ = utils.DefaultNotifier.Send(uid, ev)
	}

	targets, err := rq.PushTargets(ctx, msg.RoomID, msg.SenderID)
	if err != nil {
		return err
	}

	body := msg.Content
	if body == "" && msg.GifURL != nil {
		body = "sent a GIF"
	}
	title := room.Name
	if !room.IsPublic() {
		title = senderName
	} else if senderName != "" {
		body = senderName + ": " + body
	}

	pushes := make([]utils.PushMessage, 0, len(targets))
	for _, t := range targets {
		if utils.DefaultNotifier.Online(t.UserID) {
			continue
		}
		pushes = append(pushes, utils.PushMessage{
			To:    t.PushToken,
			Title: title,
			Body:  truncate(body, 140),
			Data:  map[string]interface{}{"type": models.NotificationMessage, "room_id": msg.RoomID},
		})
	}
	if len(pushes) == 0 {
		return nil
	}
	failed, err := utils.DefaultPush.Send(ctx, pushes)
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	if failed > 0 {
		log.Warn().Str("event", "push_partial").Str("room", msg.RoomID.String()).Int("failed", failed).Msg("")
	}
	return nil
}

// notifyUser stores a notification, delivers it over the websocket and
// pushes it to the user's device.
func notifyUser(ctx context.Context, userID uuid.UUID, typ string, payload map[string]interface{}, title, body string) error {
	n, err := models.NewNotification(userID, typ, payload)
	if err != nil {
		return err
	}
	nq := queries.NotificationQueries{DB: database.DB}
	if err := nq.CreateNotification(ctx, n); err != nil {
		return err
	}

	_ = utils.DefaultNotifier.Send(userID, map[string]interface{}{
		"event":        typ,
		"notification": n,
	})

	profiles := queries.ProfileQueries{DB: database.DB}
	p, err := profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return err
	}
	if p.PushToken == nil || *p.PushToken == "" {
		return nil
	}
	data := map[string]interface{}{"type": typ, "notification_id": n.ID}
	for k, v := range payload {
		data[k] = v
	}
	_, err = utils.DefaultPush.Send(ctx, []utils.PushMessage{{To: *p.PushToken, Title: title, Body: body, Data: data}})
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
