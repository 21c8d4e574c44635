// Package webhooknotify publica recordatorios vía POST JSON a un
// endpoint externo (p.ej. un servicio de email o un canal de Slack).
package webhooknotify

import (
	"context"
	"time"

	"pet-wellness/internal/platform/httpclient"
	"pet-wellness/internal/ports/notify"
)

type Notifier struct {
	client *httpclient.Client
	url    string
}

func New(url string) *Notifier {
	return &Notifier{
		client: httpclient.New(10 * time.Second),
		url:    url,
	}
}

type payload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	SentAt  string `json:"sent_at"`
}

func (n *Notifier) Send(ctx context.Context, msg notify.Message) error {
	return n.client.DoJSON(ctx, "POST", n.url, nil, payload{
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil)
}
