package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/db/models"
)

func (svc *SoulService) StartWebhookSubscription(ctx context.Context, url string) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	settledSouls := make(chan models.Soul)
	subId := svc.SoulPubSub.Subscribe(common.SoulTopicSettled, settledSouls)
	defer svc.SoulPubSub.Unsubscribe(subId, common.SoulTopicSettled)
	for {
		select {
		case <-ctx.Done():
			return
		case soul := <-settledSouls:
			svc.postToWebhook(soul, url)
		}
	}
}

func (svc *SoulService) postToWebhook(soul models.Soul, url string) {
	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(soul)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	resp, err := http.Post(url, "application/json", payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
