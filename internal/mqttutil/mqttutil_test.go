package mqttutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectFailsFastAgainstRefusedPort(t *testing.T) {
	_, err := Connect(Config{
		Broker:   "127.0.0.1",
		Port:     1, // nothing listens here; the OS refuses the connection immediately
		ClientID: "satori-test",
		Topic:    "satori/archive",
	})
	assert.Error(t, err)
}
