package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishMessage_MarshalError(t *testing.T) {
	// В json marshal нельзя сериализовать канал
	badMsg := struct {
		Ch chan int `json:"ch"`
	}{
		Ch: make(chan int),
	}

	err := PublishMessage(nil, "", "entitlement.activated", badMsg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
}
