package server

import (
	"container/list"
	"sync"

	"github.com/hyperjump/semmap/internal/search"
)

// SessionHeader names the client's query stream. Requests without it never supersede
// each other.
const SessionHeader = "X-Semmap-Session"

const maxSessions = 1024

// sessionCache keeps the most recently used search sessions.
type sessionCache struct {
	engine *search.Engine
	size   int

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

type sessionEntry struct {
	id      string
	session *search.Session
}

func newSessionCache(engine *search.Engine, size int) *sessionCache {
	return &sessionCache{
		engine: engine,
		size:   size,
		order:  list.New(),
		items:  make(map[string]*list.Element),
	}
}

// get returns the session for id, creating it if needed. An empty id yields a fresh
// session that is not retained.
func (c *sessionCache) get(id string) *search.Session {
	if id == "" {
		return c.engine.NewSession()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[id]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*sessionEntry).session
	}
	s := c.engine.NewSession()
	c.items[id] = c.order.PushFront(&sessionEntry{id: id, session: s})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*sessionEntry).id)
	}
	return s
}

func (c *sessionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
