package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

// SNSAPI is the part of the SNS client the push service uses.
type SNSAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

type PushService struct {
	db             *gorm.DB
	sns            SNSAPI
	fcmPlatformArn string
}

// NewPushService accepts a nil client; device registration then fails and
// pushes are skipped.
func NewPushService(db *gorm.DB, sns SNSAPI, fcmPlatformArn string) *PushService {
	return &PushService{db: db, sns: sns, fcmPlatformArn: fcmPlatformArn}
}

type RegisterDeviceInput struct {
	Platform string `json:"platform" binding:"required"` // "android" | "ios"
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) enabled() bool { return p.sns != nil && p.fcmPlatformArn != "" }

func (p *PushService) RegisterDevice(ctx context.Context, userID uint, in RegisterDeviceInput) (*models.UserDevice, error) {
	platform := strings.ToLower(strings.TrimSpace(in.Platform))
	if platform != "android" && platform != "ios" {
		return nil, invalid("unknown platform %q", in.Platform)
	}
	if !p.enabled() {
		return nil, invalid("push notifications are not configured")
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.fcmPlatformArn),
		Token:                  aws.String(in.Token),
	})
	if err != nil {
		return nil, err
	}

	dev := models.UserDevice{UserID: userID, TokenHash: tokenHash(in.Token)}
	err = p.db.WithContext(ctx).
		Where(models.UserDevice{UserID: userID, TokenHash: dev.TokenHash}).
		Assign(map[string]any{
			"platform":     platform,
			"endpoint_arn": aws.ToString(out.EndpointArn),
			"enabled":      true,
		}).
		FirstOrCreate(&dev).Error
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

// SetEnabled toggles push delivery for all of the user's devices.
func (p *PushService) SetEnabled(ctx context.Context, userID uint, enabled bool) error {
	return p.db.WithContext(ctx).
		Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
}

// PushToUser is best effort: failures are logged per endpoint.
func (p *PushService) PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string) {
	if p.sns == nil {
		return
	}
	var endpoints []models.UserDevice
	if err := p.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&endpoints).Error; err != nil {
		logger.Warn("push: load devices", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if len(endpoints) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data,
	})
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})
	for _, d := range endpoints {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			logger.Warn("push: publish", zap.Uint("device_id", d.ID), zap.Error(err))
		}
	}
}
