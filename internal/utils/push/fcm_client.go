package push

import (
	"context"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// FCMClient пуш-уведомления через Firebase Cloud Messaging
type FCMClient struct {
	messaging *messaging.Client
}

// NewFCMClient принимает путь к JSON сервисного аккаунта Firebase
func NewFCMClient(serviceAccountPath string) (*FCMClient, error) {
	opt := option.WithCredentialsFile(serviceAccountPath)

	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, err
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, err
	}

	return &FCMClient{messaging: client}, nil
}

func (f *FCMClient) SendPushNotification(ctx context.Context, token, title, body string) error {
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Token: token,
	}
	_, err := f.messaging.Send(ctx, msg)
	return err
}
