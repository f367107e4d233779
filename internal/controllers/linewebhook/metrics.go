package linewebhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeNoToken = "no_reply_token"
)

var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linebot",
		Name:      "webhook_deliveries_total",
		Help:      "Webhook POSTs by verification result.",
	}, []string{"result"})

	commandRepliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linebot",
		Name:      "command_replies_total",
		Help:      "Chat commands answered, by command and reply outcome.",
	}, []string{"command", "outcome"})
)
