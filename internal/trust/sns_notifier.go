package trust

import (
	"context"
	"fmt"

	apperrors "beauty-workers/internal/common/errors"
)

// JSONPublisher is satisfied by *aws.SNSClient.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, subject string, payload interface{}, attributes map[string]string) (string, error)
}

// SNSNotifier publishes floor crossings to an SNS topic.
type SNSNotifier struct {
	publisher JSONPublisher
}

func NewSNSNotifier(publisher JSONPublisher) *SNSNotifier {
	return &SNSNotifier{publisher: publisher}
}

func (n *SNSNotifier) NotifyFloorCrossed(ctx context.Context, crossing FloorCrossing) error {
	subject := fmt.Sprintf("Merchant %s trust score moved %s the floor", crossing.MerchantID, crossing.Direction)
	_, err := n.publisher.PublishJSON(ctx, subject, crossing, map[string]string{
		"merchantId": crossing.MerchantID,
		"direction":  string(crossing.Direction),
	})
	if err != nil {
		return apperrors.NewNotificationFailedError("sns", err)
	}
	return nil
}
