package session

import "github.com/pscheid92/eventsub-client/internal/eventsub"

// controlListener observes the session messages the Session itself acts on
// and forwards every callback to the application listener.
type controlListener struct {
	eventsub.Listener

	welcome      *eventsub.SessionInfo
	reconnectURL string
}

func (c *controlListener) OnSessionWelcome(md eventsub.Metadata, p eventsub.SessionWelcomePayload) {
	c.welcome = &p.Session
	c.Listener.OnSessionWelcome(md, p)
}

func (c *controlListener) OnSessionReconnect(md eventsub.Metadata, p eventsub.SessionReconnectPayload) {
	if p.Session.ReconnectURL != nil {
		c.reconnectURL = *p.Session.ReconnectURL
	}
	c.Listener.OnSessionReconnect(md, p)
}
