package eventpub_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/middlewares/eventpub"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
	"github.com/anemonelabs/anemone-cloud/pkg/services/mock"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published map[string][]*message.Message
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{published: map[string][]*message.Message{}}
}

func (p *capturingPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[topic] = append(p.published[topic], messages...)
	return nil
}

func (p *capturingPublisher) Close() error {
	return nil
}

func (p *capturingPublisher) messagesOn(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published[topic]
}

func setupDeviceEventPublisher(t *testing.T) (services.DeviceManagerService, *mock.MockDeviceManagerService, *capturingPublisher) {
	t.Helper()

	publisher := newCapturingPublisher()
	next := &mock.MockDeviceManagerService{}

	wrapped := eventpub.NewDeviceEventPublisher(&eventpub.CloudEventPublisher{
		Publisher: publisher,
		ServiceID: models.DeviceManagerSource,
		Logger:    helpers.SetupLogger(config.None, "test", "eventpub"),
	})(next)

	return wrapped, next, publisher
}

func TestDeviceEventPublisherPublishesOnSuccess(t *testing.T) {
	svc, next, publisher := setupDeviceEventPublisher(t)

	device := &models.Device{ID: "dev-1", SerialNumber: "SN-100"}
	next.On("CreateDevice", tmock.Anything, tmock.Anything).Return(device, nil).Once()

	_, err := svc.CreateDevice(context.Background(), services.CreateDeviceInput{Name: "bedroom", SerialNumber: "SN-100"})
	assert.NoError(t, err)

	messages := publisher.messagesOn(string(models.EventCreateDeviceKey))
	assert.Len(t, messages, 1)

	event, err := helpers.ParseCloudEvent(messages[0].Payload)
	assert.NoError(t, err)
	assert.Equal(t, string(models.EventCreateDeviceKey), event.Type())
	assert.Equal(t, "source://"+models.DeviceManagerSource, event.Source())
}

func TestDeviceEventPublisherStaysSilentOnFailure(t *testing.T) {
	svc, next, publisher := setupDeviceEventPublisher(t)

	next.On("CreateDevice", tmock.Anything, tmock.Anything).Return(nil, errors.New("boom")).Once()

	_, err := svc.CreateDevice(context.Background(), services.CreateDeviceInput{Name: "bedroom", SerialNumber: "SN-100"})
	assert.Error(t, err)
	assert.Empty(t, publisher.messagesOn(string(models.EventCreateDeviceKey)))
}

func TestDeviceEventPublisherOmitsKeyMaterialFromProvisionEvents(t *testing.T) {
	svc, next, publisher := setupDeviceEventPublisher(t)

	output := &services.ProvisionDeviceOutput{
		Device:         models.Device{ID: "dev-1"},
		Certificate:    models.DeviceCertificate{CertificateID: "cert-1"},
		CertificateURL: "https://blobs.test/cert-1.pem",
		PrivateKeyURL:  "https://blobs.test/cert-1.key",
	}
	next.On("ProvisionDevice", tmock.Anything, tmock.Anything).Return(output, nil).Once()

	_, err := svc.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: "dev-1"})
	assert.NoError(t, err)

	messages := publisher.messagesOn(string(models.EventProvisionDeviceKey))
	assert.Len(t, messages, 1)
	assert.NotContains(t, string(messages[0].Payload), "cert-1.key")
}
