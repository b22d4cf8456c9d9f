package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

type fakeSNS struct {
	mu        sync.Mutex
	published []*awssns.PublishInput
}

func (f *fakeSNS) CreatePlatformEndpoint(_ context.Context, in *awssns.CreatePlatformEndpointInput, _ ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error) {
	return &awssns.CreatePlatformEndpointOutput{EndpointArn: aws.String("arn:endpoint/" + aws.ToString(in.Token))}, nil
}

func (f *fakeSNS) Publish(_ context.Context, in *awssns.PublishInput, _ ...func(*awssns.Options)) (*awssns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, in)
	return &awssns.PublishOutput{}, nil
}

func TestEmitPersistsAndPushes(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "notify@example.com", models.RoleUser)
	sns := &fakeSNS{}
	push := NewPushService(db, sns, "arn:app/fcm")
	s := NewNotificationService(db, NewRealtimeHub(), push)
	ctx := context.Background()

	if _, err := push.RegisterDevice(ctx, u.ID, RegisterDeviceInput{Platform: "blackberry", Token: "t"}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("bad platform: %v", err)
	}
	dev, err := push.RegisterDevice(ctx, u.ID, RegisterDeviceInput{Platform: "Android", Token: "tok-1"})
	if err != nil {
		t.Fatal(err)
	}
	if dev.EndpointARN != "arn:endpoint/tok-1" {
		t.Fatalf("device %+v", dev)
	}
	// Registering the same token again updates the existing row.
	if _, err := push.RegisterDevice(ctx, u.ID, RegisterDeviceInput{Platform: "android", Token: "tok-1"}); err != nil {
		t.Fatal(err)
	}
	var devices int64
	db.Model(&models.UserDevice{}).Count(&devices)
	if devices != 1 {
		t.Fatalf("%d devices", devices)
	}

	s.Emit(ctx, u.ID, NotifyInfo, "hello")
	if len(sns.published) != 1 {
		t.Fatalf("published %d", len(sns.published))
	}
	var envelope map[string]string
	if err := json.Unmarshal([]byte(aws.ToString(sns.published[0].Message)), &envelope); err != nil {
		t.Fatal(err)
	}
	var gcm struct {
		Notification map[string]string `json:"notification"`
	}
	if err := json.Unmarshal([]byte(envelope["GCM"]), &gcm); err != nil || gcm.Notification["body"] != "hello" {
		t.Fatalf("GCM payload %q (%v)", envelope["GCM"], err)
	}

	if err := push.SetEnabled(ctx, u.ID, false); err != nil {
		t.Fatal(err)
	}
	s.Emit(ctx, u.ID, NotifyInfo, "quiet")
	if len(sns.published) != 1 {
		t.Fatal("pushed to a disabled device")
	}

	list, err := s.List(ctx, u.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("unread %d", len(list))
	}
	if err := s.MarkRead(ctx, u.ID, list[0].ID); err != nil {
		t.Fatal(err)
	}
	if list, _ = s.List(ctx, u.ID, true); len(list) != 1 {
		t.Fatalf("unread after mark %d", len(list))
	}
	if err := s.MarkRead(ctx, u.ID+100, list[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign mark: %v", err)
	}
}

func TestPushWithoutSNS(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "nopush@example.com", models.RoleUser)
	push := NewPushService(db, nil, "")
	if _, err := push.RegisterDevice(context.Background(), u.ID, RegisterDeviceInput{Platform: "ios", Token: "x"}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("unconfigured: %v", err)
	}
	NewNotificationService(db, nil, push).Emit(context.Background(), u.ID, NotifyInfo, "still stored")
	var n int64
	db.Model(&models.Notification{}).Count(&n)
	if n != 1 {
		t.Fatalf("%d notifications", n)
	}
}
