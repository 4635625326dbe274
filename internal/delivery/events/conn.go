package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

// Connect dials NATS as the named client. The connection reconnects forever and logs
// every disconnect and reconnect.
func Connect(url, name string, log *logger.Logger) (*nats.Conn, error) {
	log = log.WithFields(map[string]interface{}{"nats_url": url, "client": name})

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("NATS reconnected to %s", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Debug("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Connected to NATS")
	return nc, nil
}
